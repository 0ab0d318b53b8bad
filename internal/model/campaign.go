package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type CampaignStatus string

const (
	CampaignActive     CampaignStatus = "active"
	CampaignSuccessful CampaignStatus = "successful"
	CampaignFailed     CampaignStatus = "failed"
	CampaignClosed     CampaignStatus = "closed"
)

func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignActive, CampaignSuccessful, CampaignFailed, CampaignClosed:
		return true
	}
	return false
}

// FundingTier is a reward level shown to backers. It is not checked against pledges.
type FundingTier struct {
	Amount decimal.Decimal `json:"amount"`
	Reward string          `json:"reward"`
}

type Campaign struct {
	ID          int64           `json:"id"`
	Creator     string          `json:"creator"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Goal        decimal.Decimal `json:"goal"`
	Raised      decimal.Decimal `json:"raised"`
	EndTime     time.Time       `json:"end_time"`
	Token       string          `json:"token"`
	Status      CampaignStatus  `json:"status"`

	// one entry per funding event, repeats allowed
	Backers   []string      `json:"backers"`
	Tiers     []FundingTier `json:"tiers"`
	CreatedAt time.Time     `json:"created_at"`
}

// CheckFundable validates a pledge at now without mutating the campaign.
func (c *Campaign) CheckFundable(now time.Time) error {
	if c.Status != CampaignActive {
		return fmt.Errorf("%w: campaign %d is %s, funding needs %s", ErrInvalidState, c.ID, c.Status, CampaignActive)
	}
	if now.After(c.EndTime) {
		return fmt.Errorf("%w: campaign %d ended at %s", ErrDeadlinePassed, c.ID, c.EndTime.Format(time.RFC3339))
	}
	return nil
}

// AddPledge records a pledge and advances to successful once raised reaches goal.
func (c *Campaign) AddPledge(backer string, amount decimal.Decimal) {
	c.Backers = append(c.Backers, backer)
	c.Raised = c.Raised.Add(amount)
	if c.Status == CampaignActive && c.Raised.GreaterThanOrEqual(c.Goal) {
		c.Status = CampaignSuccessful
	}
}

// Resolve settles an active campaign at now into successful or failed.
// Non-active campaigns are returned as they are.
func (c *Campaign) Resolve(now time.Time) error {
	if c.Status != CampaignActive {
		return nil
	}
	if !now.After(c.EndTime) {
		return fmt.Errorf("%w: campaign %d ends at %s", ErrDeadlineNotReached, c.ID, c.EndTime.Format(time.RFC3339))
	}
	if c.Raised.GreaterThanOrEqual(c.Goal) {
		c.Status = CampaignSuccessful
	} else {
		c.Status = CampaignFailed
	}
	return nil
}

// DistinctBackers returns each backer once, in order of first pledge.
func (c *Campaign) DistinctBackers() []string {
	seen := make(map[string]struct{}, len(c.Backers))
	out := make([]string, 0, len(c.Backers))
	for _, b := range c.Backers {
		if _, ok := seen[b]; ok {
			continue
		}
		seen[b] = struct{}{}
		out = append(out, b)
	}
	return out
}
