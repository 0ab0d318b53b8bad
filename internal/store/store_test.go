package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, CounterKey(CounterJobs), []byte("1")))
	v, ok, err := s.Get(ctx, CounterKey(CounterJobs))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), v)

	require.NoError(t, s.Set(ctx, CounterKey(CounterJobs), []byte("2")))
	v, _, err = s.Get(ctx, CounterKey(CounterJobs))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	buf := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", buf))
	buf[0] = 'x'

	v, _, _ := s.Get(ctx, "k")
	assert.Equal(t, "abc", string(v))
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := NewRedisStore(client, "escrowhub", zap.NewNop())
	exerciseStore(t, s)
	require.NoError(t, s.Ping(context.Background()))

	raw, err := mr.Get("escrowhub:counter:jobs")
	require.NoError(t, err)
	assert.Equal(t, "2", raw)
}

func TestRedisStore_BackendDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	s := NewRedisStore(client, "", zap.NewNop())
	mr.Close()

	_, _, err := s.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.Error(t, s.Set(context.Background(), "k", []byte("v")))
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "job:4", AggregateKey(KindJob, 4))
	assert.Equal(t, "tx:12", AggregateKey(KindTransaction, 12))
	assert.Equal(t, "user:0xabc", UserKey("0xabc"))
	assert.Equal(t, "counter:payments", CounterKey(CounterPayments))
}
