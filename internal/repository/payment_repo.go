package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"escrowhub/internal/model"
	"escrowhub/internal/store"
)

type PaymentRepository struct {
	seq    sequence[model.RegularPayment]
	logger *zap.Logger
}

func NewPaymentRepository(s store.Store, logger *zap.Logger) *PaymentRepository {
	return &PaymentRepository{
		seq:    newSequence[model.RegularPayment](s, store.KindPayment, store.CounterPayments),
		logger: logger,
	}
}

func (r *PaymentRepository) NextID(ctx context.Context) (int64, error) {
	return r.seq.nextID(ctx)
}

func (r *PaymentRepository) Insert(ctx context.Context, p *model.RegularPayment) error {
	r.logger.Debug("Inserting regular payment",
		zap.Int64("payment_id", p.ID),
		zap.String("from", p.From),
		zap.String("to", p.To),
		zap.Duration("interval", p.Interval),
	)
	if err := r.seq.insert(ctx, p.ID, p); err != nil {
		r.logger.Error("Failed to insert regular payment", zap.Int64("payment_id", p.ID), zap.Error(err))
		return err
	}
	return nil
}

func (r *PaymentRepository) Save(ctx context.Context, p *model.RegularPayment) error {
	if err := r.seq.save(ctx, p.ID, p); err != nil {
		r.logger.Error("Failed to save regular payment", zap.Int64("payment_id", p.ID), zap.Error(err))
		return err
	}
	return nil
}

func (r *PaymentRepository) Get(ctx context.Context, id int64) (*model.RegularPayment, error) {
	p, ok, err := r.seq.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: regular payment %d", model.ErrNotFound, id)
	}
	return p, nil
}

// List returns every scheduled payment in id order.
func (r *PaymentRepository) List(ctx context.Context) ([]model.RegularPayment, error) {
	payments := []model.RegularPayment{}
	err := r.seq.scan(ctx, 1, func(p *model.RegularPayment) error {
		payments = append(payments, *p)
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to list regular payments", zap.Error(err))
		return nil, err
	}
	return payments, nil
}
