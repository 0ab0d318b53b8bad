package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"escrowhub/internal/model"
)

// FeedRepository keeps a bounded, newest-first activity list per address in Redis.
type FeedRepository struct {
	rdb    *redis.Client
	prefix string
	maxLen int64
	logger *zap.Logger
}

func NewFeedRepository(rdb *redis.Client, prefix string, maxLen int64, logger *zap.Logger) *FeedRepository {
	return &FeedRepository{rdb: rdb, prefix: prefix, maxLen: maxLen, logger: logger}
}

func (r *FeedRepository) key(address string) string {
	if r.prefix == "" {
		return "feed:" + address
	}
	return r.prefix + ":feed:" + address
}

func (r *FeedRepository) Push(ctx context.Context, address string, item model.FeedItem) error {
	return r.PushAll(ctx, map[string]model.FeedItem{address: item})
}

// PushAll writes every address's item in one MULTI so a redelivery never sees half of them.
func (r *FeedRepository) PushAll(ctx context.Context, items map[string]model.FeedItem) error {
	pipe := r.rdb.TxPipeline()
	for address, item := range items {
		raw, err := json.Marshal(item)
		if err != nil {
			return err
		}
		key := r.key(address)
		pipe.LPush(ctx, key, raw)
		pipe.LTrim(ctx, key, 0, r.maxLen-1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to push feed items", zap.Int("addresses", len(items)), zap.Error(err))
		return fmt.Errorf("push feed: %w", err)
	}
	return nil
}

// List returns up to limit items, newest first.
func (r *FeedRepository) List(ctx context.Context, address string, limit int64) ([]model.FeedItem, error) {
	if limit <= 0 || limit > r.maxLen {
		limit = r.maxLen
	}
	rows, err := r.rdb.LRange(ctx, r.key(address), 0, limit-1).Result()
	if err != nil {
		r.logger.Error("Failed to read feed", zap.String("address", address), zap.Error(err))
		return nil, err
	}

	items := make([]model.FeedItem, 0, len(rows))
	for _, row := range rows {
		var item model.FeedItem
		if err := json.Unmarshal([]byte(row), &item); err != nil {
			r.logger.Warn("Skipping malformed feed item", zap.String("address", address), zap.Error(err))
			continue
		}
		items = append(items, item)
	}
	return items, nil
}
