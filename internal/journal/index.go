package journal

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"escrowhub/internal/model"
)

type backerTotals struct {
	contributed decimal.Decimal
	refunded    decimal.Decimal
}

// contributionIndex folds campaign funding and refund entries per campaign and backer,
// and payouts per campaign. lastID is the newest journal id already folded in.
type contributionIndex struct {
	custody   string
	lastID    int64
	campaigns map[int64]map[string]*backerTotals
	payouts   map[int64]decimal.Decimal
}

func newContributionIndex(custody string) *contributionIndex {
	return &contributionIndex{
		custody:   custody,
		campaigns: make(map[int64]map[string]*backerTotals),
		payouts:   make(map[int64]decimal.Decimal),
	}
}

func campaignIDFromRef(ref string) (int64, bool) {
	raw, ok := strings.CutPrefix(ref, "campaign:")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (ix *contributionIndex) totals(campaignID int64, backer string) *backerTotals {
	byBacker, ok := ix.campaigns[campaignID]
	if !ok {
		byBacker = make(map[string]*backerTotals)
		ix.campaigns[campaignID] = byBacker
	}
	t, ok := byBacker[backer]
	if !ok {
		t = &backerTotals{}
		byBacker[backer] = t
	}
	return t
}

func (ix *contributionIndex) fold(tx *model.Transaction) {
	if tx.ID > ix.lastID {
		ix.lastID = tx.ID
	}
	campaignID, ok := campaignIDFromRef(tx.Ref)
	if !ok {
		return
	}
	switch {
	case tx.Message == model.MessageCampaignFunding && tx.To == ix.custody:
		t := ix.totals(campaignID, tx.From)
		t.contributed = t.contributed.Add(tx.Amount)
	case tx.Message == model.MessageCampaignRefund && tx.From == ix.custody:
		t := ix.totals(campaignID, tx.To)
		t.refunded = t.refunded.Add(tx.Amount)
	case tx.Message == model.MessageCampaignPayout && tx.From == ix.custody:
		ix.payouts[campaignID] = ix.payouts[campaignID].Add(tx.Amount)
	}
}

func (ix *contributionIndex) lookup(campaignID int64, backer string) backerTotals {
	if t, ok := ix.campaigns[campaignID][backer]; ok {
		return *t
	}
	return backerTotals{}
}
