package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"escrowhub/internal/model"
	"escrowhub/internal/store"
)

// TransactionRepository is the journal's storage. Entries are never rewritten.
type TransactionRepository struct {
	seq    sequence[model.Transaction]
	logger *zap.Logger
}

func NewTransactionRepository(s store.Store, logger *zap.Logger) *TransactionRepository {
	return &TransactionRepository{
		seq:    newSequence[model.Transaction](s, store.KindTransaction, store.CounterTransactions),
		logger: logger,
	}
}

func (r *TransactionRepository) NextID(ctx context.Context) (int64, error) {
	return r.seq.nextID(ctx)
}

// LastID returns the id of the newest entry, 0 for an empty journal.
func (r *TransactionRepository) LastID(ctx context.Context) (int64, error) {
	return r.seq.counter.Current(ctx)
}

func (r *TransactionRepository) Append(ctx context.Context, tx *model.Transaction) error {
	if err := r.seq.insert(ctx, tx.ID, tx); err != nil {
		r.logger.Error("Failed to append transaction", zap.Int64("tx_id", tx.ID), zap.Error(err))
		return err
	}
	return nil
}

func (r *TransactionRepository) Get(ctx context.Context, id int64) (*model.Transaction, error) {
	tx, ok, err := r.seq.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: transaction %d", model.ErrNotFound, id)
	}
	return tx, nil
}

// ScanFrom visits entries with id >= from, oldest first.
func (r *TransactionRepository) ScanFrom(ctx context.Context, from int64, fn func(*model.Transaction) error) error {
	if from < 1 {
		from = 1
	}
	if err := r.seq.scan(ctx, from, fn); err != nil {
		r.logger.Error("Failed to scan journal", zap.Int64("from", from), zap.Error(err))
		return err
	}
	return nil
}
