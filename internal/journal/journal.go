package journal

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"escrowhub/contracts/mq"
	"escrowhub/internal/clock"
	"escrowhub/internal/model"
	"escrowhub/internal/repository"
	"escrowhub/pkg/logger"
	"escrowhub/pkg/metrics"
)

// EventPublisher receives one event per recorded entry. *mq.Publisher from pkg/mq satisfies it.
type EventPublisher interface {
	PublishWithContext(ctx context.Context, routingKey string, payload any) error
}

// Journal is the append-only record of every value movement. It is the source of truth for
// campaign contributions and refunds; the in-process index is a cache that catches up on read.
type Journal struct {
	repo      *repository.TransactionRepository
	clock     clock.Clock
	custody   string
	publisher EventPublisher
	logger    *zap.Logger

	mu    sync.Mutex
	index *contributionIndex
}

// New builds a journal. publisher may be nil.
func New(repo *repository.TransactionRepository, clk clock.Clock, custody string, publisher EventPublisher, logger *zap.Logger) *Journal {
	return &Journal{
		repo:      repo,
		clock:     clk,
		custody:   custody,
		publisher: publisher,
		logger:    logger,
		index:     newContributionIndex(custody),
	}
}

// Record appends an entry. Amount sign and party distinctness are not checked.
func (j *Journal) Record(ctx context.Context, from, to string, amount decimal.Decimal, message, ref string) (*model.Transaction, error) {
	j.mu.Lock()
	id, err := j.repo.NextID(ctx)
	if err != nil {
		j.mu.Unlock()
		return nil, fmt.Errorf("journal next id: %w", err)
	}

	tx := &model.Transaction{
		ID:        id,
		From:      from,
		To:        to,
		Amount:    amount,
		Message:   message,
		Ref:       ref,
		Timestamp: j.clock.Now(),
	}
	if err := j.repo.Append(ctx, tx); err != nil {
		j.mu.Unlock()
		return nil, fmt.Errorf("journal append: %w", err)
	}
	j.mu.Unlock()

	metrics.IncrementJournalEntry(messageLabel(message))
	logger.WithTrace(ctx, j.logger).Info("Transaction recorded",
		zap.Int64("tx_id", tx.ID),
		zap.String("from", from),
		zap.String("to", to),
		logger.Amount(amount),
		zap.String("message", message),
		zap.String("ref", ref),
	)

	j.publish(ctx, tx)
	return tx, nil
}

func (j *Journal) publish(ctx context.Context, tx *model.Transaction) {
	if j.publisher == nil {
		return
	}
	payload := mq.TransactionRecordedPayload{
		TransactionID: tx.ID,
		From:          tx.From,
		To:            tx.To,
		Amount:        tx.Amount.String(),
		Message:       tx.Message,
		Ref:           tx.Ref,
		Timestamp:     tx.Timestamp,
	}
	if err := j.publisher.PublishWithContext(ctx, mq.RoutingKeyTransactionRecorded, payload); err != nil {
		logger.WithTrace(ctx, j.logger).Warn("Failed to publish transaction event",
			zap.Int64("tx_id", tx.ID),
			zap.Error(err),
		)
	}
}

// History returns every entry where address is sender or receiver, oldest first.
func (j *Journal) History(ctx context.Context, address string) ([]model.Transaction, error) {
	out := []model.Transaction{}
	err := j.repo.ScanFrom(ctx, 1, func(tx *model.Transaction) error {
		if tx.Involves(address) {
			out = append(out, *tx)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (j *Journal) All(ctx context.Context) ([]model.Transaction, error) {
	out := []model.Transaction{}
	err := j.repo.ScanFrom(ctx, 1, func(tx *model.Transaction) error {
		out = append(out, *tx)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Contribution is the total backer has pledged to the campaign according to the journal.
func (j *Journal) Contribution(ctx context.Context, campaignID int64, backer string) (decimal.Decimal, error) {
	t, err := j.lookup(ctx, campaignID, backer)
	return t.contributed, err
}

// Refunded is the total already refunded to backer for the campaign.
func (j *Journal) Refunded(ctx context.Context, campaignID int64, backer string) (decimal.Decimal, error) {
	t, err := j.lookup(ctx, campaignID, backer)
	return t.refunded, err
}

// Outstanding is Contribution minus Refunded.
func (j *Journal) Outstanding(ctx context.Context, campaignID int64, backer string) (decimal.Decimal, error) {
	t, err := j.lookup(ctx, campaignID, backer)
	if err != nil {
		return decimal.Zero, err
	}
	return t.contributed.Sub(t.refunded), nil
}

// PaidOut is the total already paid from custody to the campaign's creator.
func (j *Journal) PaidOut(ctx context.Context, campaignID int64) (decimal.Decimal, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.catchUp(ctx); err != nil {
		return decimal.Zero, err
	}
	return j.index.payouts[campaignID], nil
}

// Rebuild drops the contribution index and re-derives it from the whole journal.
func (j *Journal) Rebuild(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.index = newContributionIndex(j.custody)
	return j.catchUp(ctx)
}

func (j *Journal) lookup(ctx context.Context, campaignID int64, backer string) (backerTotals, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.catchUp(ctx); err != nil {
		return backerTotals{}, err
	}
	return j.index.lookup(campaignID, backer), nil
}

// catchUp folds entries newer than the index's last id. Caller holds j.mu.
func (j *Journal) catchUp(ctx context.Context) error {
	from := j.index.lastID + 1
	err := j.repo.ScanFrom(ctx, from, func(tx *model.Transaction) error {
		j.index.fold(tx)
		return nil
	})
	if err != nil {
		return fmt.Errorf("journal index catch-up: %w", err)
	}
	if folded := j.index.lastID - from + 1; folded > 0 {
		j.logger.Debug("Contribution index caught up",
			zap.Int64("from", from),
			zap.Int64("last_id", j.index.lastID),
		)
	}
	return nil
}

func messageLabel(message string) string {
	switch message {
	case model.MessageJobCreation, model.MessageJobPayment, model.MessageCampaignFunding,
		model.MessageCampaignPayout, model.MessageCampaignRefund:
		return message
	}
	return "custom"
}
