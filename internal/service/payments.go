package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"escrowhub/internal/model"
	"escrowhub/pkg/logger"
	"escrowhub/pkg/metrics"
)

// RecordTransaction writes a journal entry without moving funds.
func (l *Ledger) RecordTransaction(ctx context.Context, from, to string, amount decimal.Decimal, message string) (*model.Transaction, error) {
	if err := model.ValidateAmount(amount); err != nil {
		return nil, err
	}

	var tx *model.Transaction
	err := l.mutate(ctx, "record_transaction", func() error {
		var err error
		tx, err = l.journal.Record(ctx, from, to, amount, message, "")
		return err
	})
	return tx, err
}

// GetTransactionHistory returns every entry address took part in, oldest first.
func (l *Ledger) GetTransactionHistory(ctx context.Context, address string) ([]model.Transaction, error) {
	return l.journal.History(ctx, address)
}

// MultiTransfer pays each recipient in order and journals every leg. All amounts are validated
// before anything moves; the first failed transfer stops the batch. The count of completed
// legs is returned in both cases.
func (l *Ledger) MultiTransfer(ctx context.Context, from string, recipients []model.Recipient, token, message string) (int, error) {
	if token == "" {
		return 0, fmt.Errorf("%w: token is required", model.ErrInvalidArgument)
	}
	for i, r := range recipients {
		if r.To == "" {
			return 0, fmt.Errorf("%w: recipient %d has no address", model.ErrInvalidArgument, i)
		}
		if err := model.ValidatePositiveAmount(r.Amount); err != nil {
			return 0, fmt.Errorf("recipient %d: %w", i, err)
		}
	}

	done := 0
	err := l.mutate(ctx, "multi_transfer", func() error {
		for i, r := range recipients {
			if err := l.transfer(ctx, "", token, from, r.To, r.Amount); err != nil {
				return fmt.Errorf("recipient %d (%s): %w", i, r.To, err)
			}
			if _, err := l.journal.Record(ctx, from, r.To, r.Amount, message, ""); err != nil {
				return err
			}
			done++
		}
		return nil
	})

	logger.WithTrace(ctx, l.logger).Info("Multi-transfer finished",
		zap.String("from", from),
		zap.Int("completed", done),
		zap.Int("requested", len(recipients)),
	)
	return done, err
}

// CreateRegularPayment schedules a recurring transfer; the first one falls due after one interval.
func (l *Ledger) CreateRegularPayment(ctx context.Context, from, to string, amount decimal.Decimal, interval time.Duration, message string) (*model.RegularPayment, error) {
	if from == "" || to == "" {
		return nil, fmt.Errorf("%w: from and to are required", model.ErrInvalidArgument)
	}
	if err := model.ValidatePositiveAmount(amount); err != nil {
		return nil, err
	}
	if interval <= 0 {
		return nil, fmt.Errorf("%w: interval must be positive", model.ErrInvalidArgument)
	}

	var payment *model.RegularPayment
	err := l.mutate(ctx, "create_regular_payment", func() error {
		id, err := l.payments.NextID(ctx)
		if err != nil {
			return err
		}
		now := l.clock.Now()
		payment = &model.RegularPayment{
			ID:          id,
			From:        from,
			To:          to,
			Amount:      amount,
			Interval:    interval,
			NextPayment: now.Add(interval),
			Message:     message,
			CreatedAt:   now,
		}
		return l.payments.Insert(ctx, payment)
	})
	if err != nil {
		return nil, err
	}

	logger.WithTrace(ctx, l.logger).Info("Regular payment scheduled",
		zap.Int64("payment_id", payment.ID),
		zap.String("from", from),
		zap.String("to", to),
		zap.Duration("interval", interval),
	)
	return payment, nil
}

// ExecuteRegularPayments makes one pass over the schedule. Each due payment is transferred,
// journaled and advanced by exactly one interval, then saved on its own. A failed transfer
// leaves that payment as it was so the next pass retries it.
func (l *Ledger) ExecuteRegularPayments(ctx context.Context, token string) (model.PaymentRunSummary, error) {
	var summary model.PaymentRunSummary
	if token == "" {
		return summary, fmt.Errorf("%w: token is required", model.ErrInvalidArgument)
	}

	log := logger.WithTrace(ctx, l.logger)
	err := l.mutate(ctx, "execute_regular_payments", func() error {
		payments, err := l.payments.List(ctx)
		if err != nil {
			return err
		}
		now := l.clock.Now()

		for i := range payments {
			p := &payments[i]
			if !p.Due(now) {
				summary.Skipped++
				continue
			}

			if err := l.transfer(ctx, regularPaymentKey(p), token, p.From, p.To, p.Amount); err != nil {
				summary.Failed++
				metrics.IncrementScheduledPayment("failed")
				log.Warn("Regular payment failed",
					zap.Int64("payment_id", p.ID),
					zap.String("from", p.From),
					zap.Error(err),
				)
				continue
			}
			if _, err := l.journal.Record(ctx, p.From, p.To, p.Amount, p.Message, model.RefPayment(p.ID)); err != nil {
				return err
			}
			p.Advance()
			if err := l.payments.Save(ctx, p); err != nil {
				return err
			}
			summary.Executed++
			metrics.IncrementScheduledPayment("executed")
		}
		return nil
	})

	log.Info("Regular payments pass finished",
		zap.Int("executed", summary.Executed),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
	)
	return summary, err
}
