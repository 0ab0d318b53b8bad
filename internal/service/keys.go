package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"escrowhub/internal/model"
)

// Idempotency keys for transfers out of custody and scheduled payments. Each key is derived from
// journal state that only changes once the transfer is journaled, so a retry reuses it.

func jobPaymentKey(jobID int64) string {
	return fmt.Sprintf("job:%d:payment", jobID)
}

func payoutKey(campaignID int64, paid decimal.Decimal) string {
	return fmt.Sprintf("campaign:%d:payout:%s", campaignID, paid.String())
}

func refundKey(campaignID int64, backer string, refunded decimal.Decimal) string {
	return fmt.Sprintf("campaign:%d:refund:%s:%s", campaignID, backer, refunded.String())
}

func regularPaymentKey(p *model.RegularPayment) string {
	return fmt.Sprintf("payment:%d:%d", p.ID, p.NextPayment.UnixNano())
}
