package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// MemoryGateway keeps token balances in process. Used by tests and single-node deployments.
type MemoryGateway struct {
	mu       sync.Mutex
	balances map[string]map[string]decimal.Decimal

	// failing addresses reject every outgoing transfer
	failing map[string]bool

	// idempotency keys of transfers already applied
	applied map[string]bool
}

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{
		balances: make(map[string]map[string]decimal.Decimal),
		failing:  make(map[string]bool),
		applied:  make(map[string]bool),
	}
}

// Mint credits amount to address out of thin air.
func (g *MemoryGateway) Mint(token, address string, amount decimal.Decimal) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.credit(token, address, amount)
}

// FailFrom makes every transfer out of address fail until cleared with false.
func (g *MemoryGateway) FailFrom(address string, fail bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failing[address] = fail
}

func (g *MemoryGateway) credit(token, address string, amount decimal.Decimal) {
	byAddr, ok := g.balances[token]
	if !ok {
		byAddr = make(map[string]decimal.Decimal)
		g.balances[token] = byAddr
	}
	byAddr[address] = byAddr[address].Add(amount)
}

// Transfer moves amount from one address to another. A repeat under an idempotency key that
// already succeeded is acknowledged without moving funds.
func (g *MemoryGateway) Transfer(ctx context.Context, token, from, to string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("transfer amount %s must be positive", amount)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	key := IdempotencyKeyFrom(ctx)
	if key != "" && g.applied[key] {
		return nil
	}
	if g.failing[from] {
		return fmt.Errorf("transfers from %s are blocked", from)
	}
	have := g.balances[token][from]
	if have.LessThan(amount) {
		return fmt.Errorf("%w: %s holds %s %s, needs %s", ErrInsufficientFunds, from, have, token, amount)
	}
	g.balances[token][from] = have.Sub(amount)
	g.credit(token, to, amount)
	if key != "" {
		g.applied[key] = true
	}
	return nil
}

func (g *MemoryGateway) Balance(_ context.Context, token, address string) (decimal.Decimal, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.balances[token][address], nil
}
