package gateway

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrInsufficientFunds is returned by gateways that can tell a balance shortfall apart.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Gateway moves token amounts between addresses. Transfers are all-or-nothing and not retried.
type Gateway interface {
	Transfer(ctx context.Context, token, from, to string, amount decimal.Decimal) error
	Balance(ctx context.Context, token, address string) (decimal.Decimal, error)
}

type idempotencyKeyCtx struct{}

// WithIdempotencyKey tags the transfers made with ctx as one logical payment. A gateway that
// already applied a transfer under key must not move the funds again.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	if key == "" {
		return ctx
	}
	return context.WithValue(ctx, idempotencyKeyCtx{}, key)
}

// IdempotencyKeyFrom returns the key set by WithIdempotencyKey, or "".
func IdempotencyKeyFrom(ctx context.Context) string {
	key, _ := ctx.Value(idempotencyKeyCtx{}).(string)
	return key
}
