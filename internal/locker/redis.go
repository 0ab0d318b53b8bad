package locker

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Options struct {
	Expiry     time.Duration
	Tries      int
	RetryDelay time.Duration
}

func DefaultOptions() Options {
	return Options{
		Expiry:     30 * time.Second,
		Tries:      64,
		RetryDelay: 100 * time.Millisecond,
	}
}

// RedisLocker shares the ledger lock between processes through Redis (RedLock via redsync).
type RedisLocker struct {
	rs     *redsync.Redsync
	opts   Options
	logger *zap.Logger
}

func NewRedisLocker(client *redis.Client, opts Options, logger *zap.Logger) *RedisLocker {
	pool := goredis.NewPool(client)
	return &RedisLocker{rs: redsync.New(pool), opts: opts, logger: logger}
}

func (l *RedisLocker) WithLock(ctx context.Context, key string, fn func() error) error {
	mutex := l.rs.NewMutex(
		key,
		redsync.WithExpiry(l.opts.Expiry),
		redsync.WithTries(l.opts.Tries),
		redsync.WithRetryDelay(l.opts.RetryDelay),
	)

	if err := mutex.LockContext(ctx); err != nil {
		l.logger.Error("Failed to acquire lock", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	l.logger.Debug("Lock acquired", zap.String("key", key))

	stop := make(chan struct{})
	done := make(chan struct{})
	go l.keepAlive(ctx, key, mutex, stop, done)

	defer func() {
		close(stop)
		<-done
		// a fresh context so a cancelled request still releases the lock
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if ok, err := mutex.UnlockContext(releaseCtx); !ok || err != nil {
			l.logger.Error("Failed to release lock", zap.String("key", key), zap.Bool("ok", ok), zap.Error(err))
		}
	}()

	return fn()
}

// keepAlive extends the lock every third of its expiry until stop closes.
func (l *RedisLocker) keepAlive(ctx context.Context, key string, mutex *redsync.Mutex, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	interval := l.opts.Expiry / 3
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			extendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), interval)
			ok, err := mutex.ExtendContext(extendCtx)
			cancel()
			if !ok || err != nil {
				l.logger.Warn("Failed to extend lock", zap.String("key", key), zap.Bool("ok", ok), zap.Error(err))
				continue
			}
			l.logger.Debug("Lock extended", zap.String("key", key))
		}
	}
}
