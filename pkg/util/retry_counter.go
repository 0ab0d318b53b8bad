package util

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RetryCounter counts failed deliveries of a journal entry to one consumer. A count expires ttl
// after its last failure.
type RetryCounter struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRetryCounter(rdb *redis.Client, prefix string, ttl time.Duration) *RetryCounter {
	return &RetryCounter{rdb: rdb, prefix: prefix, ttl: ttl}
}

// Failed records one more failed delivery of entry txID and returns the failures so far.
func (r *RetryCounter) Failed(ctx context.Context, consumer string, txID int64) (int64, error) {
	key := r.Key(consumer, txID)
	var incr *redis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (r *RetryCounter) Failures(ctx context.Context, consumer string, txID int64) (int64, error) {
	count, err := r.rdb.Get(ctx, r.Key(consumer, txID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return count, err
}

// Clear forgets the failures of entry txID, once it is delivered or dropped.
func (r *RetryCounter) Clear(ctx context.Context, consumer string, txID int64) error {
	return r.rdb.Del(ctx, r.Key(consumer, txID)).Err()
}

// Key is the Redis key holding the failure count of entry txID for consumer.
func (r *RetryCounter) Key(consumer string, txID int64) string {
	key := fmt.Sprintf("journal:%d:retries:%s", txID, consumer)
	if r.prefix == "" {
		return key
	}
	return r.prefix + ":" + key
}
