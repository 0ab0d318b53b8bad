package logger

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"escrowhub/pkg/trace"
)

func TestLedgerFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	base := Ledger(zap.New(core), "custody-1")

	ctx := trace.WithContext(context.Background(), "trace-9")
	WithTrace(ctx, base).Info("Campaign refund sent", Amount(decimal.RequireFromString("12.50")))
	WithTrace(context.Background(), base).Info("no trace")

	entries := logs.All()
	require.Len(t, entries, 2)
	fields := entries[0].ContextMap()
	assert.Equal(t, "custody-1", fields["custody"])
	assert.Equal(t, "trace-9", fields["trace_id"])
	assert.Equal(t, "12.5", fields["amount"])

	assert.NotContains(t, entries[1].ContextMap(), "trace_id")
}

func TestNewHonoursLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	l := New("worker")
	assert.False(t, l.Core().Enabled(zap.InfoLevel))
	assert.True(t, l.Core().Enabled(zap.WarnLevel))

	t.Setenv("LOG_LEVEL", "")
	assert.True(t, New("api").Core().Enabled(zap.InfoLevel))
}
