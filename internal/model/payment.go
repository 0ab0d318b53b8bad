package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegularPayment is a recurring transfer. It never completes; it fires every Interval forever.
type RegularPayment struct {
	ID          int64           `json:"id"`
	From        string          `json:"from"`
	To          string          `json:"to"`
	Amount      decimal.Decimal `json:"amount"`
	Interval    time.Duration   `json:"interval"`
	NextPayment time.Time       `json:"next_payment"`
	Message     string          `json:"message"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (p *RegularPayment) Due(now time.Time) bool {
	return !p.NextPayment.After(now)
}

// Advance moves NextPayment forward by exactly one interval, keeping the original cadence.
func (p *RegularPayment) Advance() {
	p.NextPayment = p.NextPayment.Add(p.Interval)
}

// Recipient is one leg of a multi-transfer.
type Recipient struct {
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

// PaymentRunSummary reports one scheduler pass.
type PaymentRunSummary struct {
	Executed int `json:"executed"`
	Failed   int `json:"failed"`
	Skipped  int `json:"skipped"`
}
