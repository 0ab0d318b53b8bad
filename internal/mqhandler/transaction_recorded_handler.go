package mqhandler

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	mqcontracts "escrowhub/contracts/mq"
	"escrowhub/internal/model"
	"escrowhub/internal/repository"
	"escrowhub/pkg/logger"
	"escrowhub/pkg/util"
)

const (
	feedHandlerName = "feed"
	maxRetries      = 5
)

// TransactionRecordedHandler fans each journal entry out to the activity feeds of both parties.
type TransactionRecordedHandler struct {
	feed         *repository.FeedRepository
	retryCounter *util.RetryCounter
	deduper      *util.Deduper
	logger       *zap.Logger
}

func NewTransactionRecordedHandler(
	feed *repository.FeedRepository,
	retryCounter *util.RetryCounter,
	deduper *util.Deduper,
	logger *zap.Logger,
) *TransactionRecordedHandler {
	return &TransactionRecordedHandler{
		feed:         feed,
		retryCounter: retryCounter,
		deduper:      deduper,
		logger:       logger,
	}
}

// Handle returns an error only when the message should be redelivered.
func (h *TransactionRecordedHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	log := logger.WithTrace(ctx, h.logger)

	var p mqcontracts.TransactionRecordedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Error("Failed to unmarshal transaction payload, dropping",
			zap.Error(err),
			zap.String("raw_payload", string(raw)),
		)
		return nil
	}

	amount, err := decimal.NewFromString(p.Amount)
	if err != nil {
		log.Error("Invalid amount in transaction payload, dropping",
			zap.Int64("tx_id", p.TransactionID),
			zap.String("amount", p.Amount),
		)
		return nil
	}

	if !h.deduper.AcquireOnce(ctx, feedHandlerName, p.TransactionID) {
		return nil
	}

	tx := model.Transaction{
		ID:        p.TransactionID,
		From:      p.From,
		To:        p.To,
		Amount:    amount,
		Message:   p.Message,
		Ref:       p.Ref,
		Timestamp: p.Timestamp,
	}

	if err := h.feed.PushAll(ctx, model.FeedItemsFor(tx)); err != nil {
		h.deduper.Release(ctx, feedHandlerName, p.TransactionID)
		return h.retryOrDrop(ctx, log, p.TransactionID, err)
	}

	if err := h.retryCounter.Clear(ctx, feedHandlerName, p.TransactionID); err != nil {
		log.Debug("Failed to clear retry count", zap.Int64("tx_id", p.TransactionID), zap.Error(err))
	}

	log.Debug("Feed updated",
		zap.Int64("tx_id", p.TransactionID),
		zap.String("from", p.From),
		zap.String("to", p.To),
	)
	return nil
}

func (h *TransactionRecordedHandler) retryOrDrop(ctx context.Context, log *zap.Logger, txID int64, cause error) error {
	isRetryable, errType := util.IsRetryableError(cause)

	retryCount, err := h.retryCounter.Failed(ctx, feedHandlerName, txID)
	if err != nil {
		log.Warn("Failed to get retry count, continuing anyway", zap.Int64("tx_id", txID), zap.Error(err))
		retryCount = 1
	}

	if util.ShouldRetry(retryCount, maxRetries, isRetryable) {
		log.Warn("Feed update failed, will retry",
			zap.Int64("tx_id", txID),
			zap.String("error_type", errType),
			zap.Int64("retry_count", retryCount),
			zap.Error(cause),
		)
		return cause
	}

	log.Error("Feed update failed, giving up",
		zap.Int64("tx_id", txID),
		zap.String("error_type", errType),
		zap.Bool("retryable", isRetryable),
		zap.Int64("retry_count", retryCount),
		zap.Error(cause),
	)
	_ = h.retryCounter.Clear(ctx, feedHandlerName, txID)
	return nil
}
