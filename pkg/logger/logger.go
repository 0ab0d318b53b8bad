package logger

import (
	"context"
	"os"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"escrowhub/pkg/trace"
)

// New builds the production logger for one escrowhub binary. Every entry carries the binary
// name under "service"; LOG_LEVEL overrides the info default.
func New(service string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if level, err := zap.ParseAtomicLevel(raw); err == nil {
			cfg.Level = level
		}
	}
	l, err := cfg.Build(zap.Fields(zap.String("service", service)))
	if err != nil {
		panic(err)
	}
	return l
}

// WithTrace returns logger annotated with the trace_id carried by ctx, if any.
func WithTrace(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if traceID := trace.FromContext(ctx); traceID != "" {
		return logger.With(zap.String("trace_id", traceID))
	}
	return logger
}

// Amount logs a token amount in its exact decimal form.
func Amount(d decimal.Decimal) zap.Field {
	return zap.String("amount", d.String())
}

// Ledger scopes logger to the custody address whose funds it reports on.
func Ledger(logger *zap.Logger, custody string) *zap.Logger {
	return logger.With(zap.String("custody", custody))
}
