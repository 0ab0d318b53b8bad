package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"escrowhub/internal/store"
)

func loadJSON(ctx context.Context, s store.Store, key string, out any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func saveJSON(ctx context.Context, s store.Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}

// Counter is a monotonically increasing id sequence kept under counter:<name>.
type Counter struct {
	store store.Store
	name  string
}

func NewCounter(s store.Store, name string) *Counter {
	return &Counter{store: s, name: name}
}

// Current returns the highest id issued so far, 0 when none.
func (c *Counter) Current(ctx context.Context) (int64, error) {
	raw, ok, err := c.store.Get(ctx, store.CounterKey(c.name))
	if err != nil || !ok {
		return 0, err
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("decode counter %s: %w", c.name, err)
	}
	return n, nil
}

func (c *Counter) Set(ctx context.Context, n int64) error {
	return c.store.Set(ctx, store.CounterKey(c.name), []byte(strconv.FormatInt(n, 10)))
}

// Seed writes 0 unless the counter already exists.
func (c *Counter) Seed(ctx context.Context) error {
	_, ok, err := c.store.Get(ctx, store.CounterKey(c.name))
	if err != nil || ok {
		return err
	}
	return c.Set(ctx, 0)
}

// sequence stores aggregates of one kind under <kind>:<id>, ids issued by a counter.
type sequence[T any] struct {
	store   store.Store
	kind    string
	counter *Counter
}

func newSequence[T any](s store.Store, kind, counter string) sequence[T] {
	return sequence[T]{store: s, kind: kind, counter: NewCounter(s, counter)}
}

func (q sequence[T]) nextID(ctx context.Context) (int64, error) {
	n, err := q.counter.Current(ctx)
	if err != nil {
		return 0, err
	}
	return n + 1, nil
}

// insert writes the aggregate before bumping the counter so a reader never sees an id without a value.
func (q sequence[T]) insert(ctx context.Context, id int64, v *T) error {
	if err := saveJSON(ctx, q.store, store.AggregateKey(q.kind, id), v); err != nil {
		return err
	}
	return q.counter.Set(ctx, id)
}

func (q sequence[T]) save(ctx context.Context, id int64, v *T) error {
	return saveJSON(ctx, q.store, store.AggregateKey(q.kind, id), v)
}

func (q sequence[T]) get(ctx context.Context, id int64) (*T, bool, error) {
	var v T
	ok, err := loadJSON(ctx, q.store, store.AggregateKey(q.kind, id), &v)
	if err != nil || !ok {
		return nil, false, err
	}
	return &v, true, nil
}

// scan visits ids from..current in order. Missing ids are skipped.
func (q sequence[T]) scan(ctx context.Context, from int64, fn func(*T) error) error {
	n, err := q.counter.Current(ctx)
	if err != nil {
		return err
	}
	for id := from; id <= n; id++ {
		v, ok, err := q.get(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := fn(v); err != nil {
			return err
		}
	}
	return nil
}
