package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeedItem is one line of an address's activity feed.
type FeedItem struct {
	TransactionID int64           `json:"transaction_id"`
	Direction     string          `json:"direction"`
	Counterparty  string          `json:"counterparty"`
	Amount        decimal.Decimal `json:"amount"`
	Message       string          `json:"message"`
	Timestamp     time.Time       `json:"timestamp"`
}

const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// FeedItemsFor returns the items tx produces, one per party. A self transfer yields one item.
func FeedItemsFor(tx Transaction) map[string]FeedItem {
	out := map[string]FeedItem{
		tx.From: {
			TransactionID: tx.ID,
			Direction:     DirectionOut,
			Counterparty:  tx.To,
			Amount:        tx.Amount,
			Message:       tx.Message,
			Timestamp:     tx.Timestamp,
		},
	}
	if tx.To != tx.From {
		out[tx.To] = FeedItem{
			TransactionID: tx.ID,
			Direction:     DirectionIn,
			Counterparty:  tx.From,
			Amount:        tx.Amount,
			Message:       tx.Message,
			Timestamp:     tx.Timestamp,
		}
	}
	return out
}
