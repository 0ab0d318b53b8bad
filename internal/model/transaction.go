package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	MessageJobCreation     = "Job creation"
	MessageJobPayment      = "Job payment"
	MessageCampaignFunding = "Campaign funding"
	MessageCampaignPayout  = "Campaign payout"
	MessageCampaignRefund  = "Campaign refund"
)

// Transaction is an immutable journal entry.
type Transaction struct {
	ID      int64           `json:"id"`
	From    string          `json:"from"`
	To      string          `json:"to"`
	Amount  decimal.Decimal `json:"amount"`
	Message string          `json:"message"`

	// Ref names the aggregate the movement belongs to, e.g. "campaign:7"; empty for free transfers.
	Ref       string    `json:"ref,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (t Transaction) Involves(address string) bool {
	return t.From == address || t.To == address
}

func RefJob(id int64) string      { return fmt.Sprintf("job:%d", id) }
func RefCampaign(id int64) string { return fmt.Sprintf("campaign:%d", id) }
func RefPayment(id int64) string  { return fmt.Sprintf("payment:%d", id) }
