package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"escrowhub/internal/model"
	"escrowhub/pkg/logger"
)

// CreateCampaign opens an active campaign ending duration from now.
func (l *Ledger) CreateCampaign(ctx context.Context, creator, title, description string, goal decimal.Decimal,
	duration time.Duration, token string, tiers []model.FundingTier) (*model.Campaign, error) {
	if creator == "" || token == "" {
		return nil, fmt.Errorf("%w: creator and token are required", model.ErrInvalidArgument)
	}
	if err := model.ValidatePositiveAmount(goal); err != nil {
		return nil, err
	}
	if duration <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", model.ErrInvalidArgument)
	}
	for _, tier := range tiers {
		if err := model.ValidateAmount(tier.Amount); err != nil {
			return nil, err
		}
	}
	if tiers == nil {
		tiers = []model.FundingTier{}
	}

	var campaign *model.Campaign
	err := l.mutate(ctx, "create_campaign", func() error {
		id, err := l.campaigns.NextID(ctx)
		if err != nil {
			return err
		}
		now := l.clock.Now()
		campaign = &model.Campaign{
			ID:          id,
			Creator:     creator,
			Title:       title,
			Description: description,
			Goal:        goal,
			Raised:      decimal.Zero,
			EndTime:     now.Add(duration),
			Token:       token,
			Status:      model.CampaignActive,
			Backers:     []string{},
			Tiers:       tiers,
			CreatedAt:   now,
		}
		return l.campaigns.Insert(ctx, campaign)
	})
	if err != nil {
		return nil, err
	}

	logger.WithTrace(ctx, l.logger).Info("Campaign created",
		zap.Int64("campaign_id", campaign.ID),
		zap.String("creator", creator),
		zap.String("goal", goal.String()),
		zap.Time("end_time", campaign.EndTime),
	)
	return campaign, nil
}

// FundCampaign moves a pledge from backer into custody. Reaching the goal marks the campaign
// successful, which closes it to further pledges.
func (l *Ledger) FundCampaign(ctx context.Context, backer string, campaignID int64, amount decimal.Decimal) (*model.Campaign, error) {
	if err := model.ValidatePositiveAmount(amount); err != nil {
		return nil, err
	}

	var campaign *model.Campaign
	err := l.mutate(ctx, "fund_campaign", func() error {
		var err error
		campaign, err = l.campaigns.Get(ctx, campaignID)
		if err != nil {
			return err
		}
		if err := campaign.CheckFundable(l.clock.Now()); err != nil {
			return err
		}
		if err := l.transfer(ctx, "", campaign.Token, backer, l.custody, amount); err != nil {
			return err
		}
		if _, err := l.journal.Record(ctx, backer, l.custody, amount, model.MessageCampaignFunding, model.RefCampaign(campaignID)); err != nil {
			return err
		}

		campaign.AddPledge(backer, amount)
		return l.campaigns.Save(ctx, campaign)
	})
	if err != nil {
		return nil, err
	}

	logger.WithTrace(ctx, l.logger).Info("Campaign funded",
		zap.Int64("campaign_id", campaignID),
		zap.String("backer", backer),
		logger.Amount(amount),
		zap.String("raised", campaign.Raised.String()),
		zap.String("status", string(campaign.Status)),
	)
	return campaign, nil
}

// CloseCampaign settles a campaign. A successful campaign pays raised to its creator once; a failed
// one refunds each distinct backer whatever the journal says is still outstanding. Closing a
// closed campaign returns it unchanged.
func (l *Ledger) CloseCampaign(ctx context.Context, campaignID int64) (*model.Campaign, error) {
	var campaign *model.Campaign
	err := l.mutate(ctx, "close_campaign", func() error {
		var err error
		campaign, err = l.campaigns.Get(ctx, campaignID)
		if err != nil {
			return err
		}
		if campaign.Status == model.CampaignClosed {
			return nil
		}

		before := campaign.Status
		if err := campaign.Resolve(l.clock.Now()); err != nil {
			return err
		}
		if campaign.Status != before {
			if err := l.campaigns.Save(ctx, campaign); err != nil {
				return err
			}
		}

		switch campaign.Status {
		case model.CampaignSuccessful:
			err = l.payOut(ctx, campaign)
		case model.CampaignFailed:
			err = l.refundBackers(ctx, campaign)
		}
		if err != nil {
			return err
		}

		campaign.Status = model.CampaignClosed
		return l.campaigns.Save(ctx, campaign)
	})
	if err != nil {
		return nil, err
	}

	logger.WithTrace(ctx, l.logger).Info("Campaign closed",
		zap.Int64("campaign_id", campaignID),
		zap.String("raised", campaign.Raised.String()),
	)
	return campaign, nil
}

// payOut sends the creator whatever part of raised the journal has not yet paid.
func (l *Ledger) payOut(ctx context.Context, c *model.Campaign) error {
	paid, err := l.journal.PaidOut(ctx, c.ID)
	if err != nil {
		return err
	}
	due := c.Raised.Sub(paid)
	if !due.IsPositive() {
		return nil
	}
	if err := l.transfer(ctx, payoutKey(c.ID, paid), c.Token, l.custody, c.Creator, due); err != nil {
		return err
	}
	_, err = l.journal.Record(ctx, l.custody, c.Creator, due, model.MessageCampaignPayout, model.RefCampaign(c.ID))
	return err
}

// refundBackers refunds each distinct backer's outstanding contribution. It stops at the first
// failed transfer; refunds already made are journaled so a later call only pays the rest.
func (l *Ledger) refundBackers(ctx context.Context, c *model.Campaign) error {
	log := logger.WithTrace(ctx, l.logger)
	for _, backer := range c.DistinctBackers() {
		due, err := l.journal.Outstanding(ctx, c.ID, backer)
		if err != nil {
			return err
		}
		refunded, err := l.journal.Refunded(ctx, c.ID, backer)
		if err != nil {
			return err
		}
		if !due.IsPositive() {
			continue
		}
		if err := l.transfer(ctx, refundKey(c.ID, backer, refunded), c.Token, l.custody, backer, due); err != nil {
			log.Error("Campaign refund failed",
				zap.Int64("campaign_id", c.ID),
				zap.String("backer", backer),
				logger.Amount(due),
				zap.Error(err),
			)
			return err
		}
		if _, err := l.journal.Record(ctx, l.custody, backer, due, model.MessageCampaignRefund, model.RefCampaign(c.ID)); err != nil {
			return err
		}
		log.Info("Campaign refund sent",
			zap.Int64("campaign_id", c.ID),
			zap.String("backer", backer),
			logger.Amount(due),
		)
	}
	return nil
}

func (l *Ledger) GetCampaign(ctx context.Context, campaignID int64) (*model.Campaign, error) {
	return l.campaigns.Get(ctx, campaignID)
}

// GetCampaignsByStatus returns matching campaigns in id order.
func (l *Ledger) GetCampaignsByStatus(ctx context.Context, status model.CampaignStatus) ([]model.Campaign, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown campaign status %q", model.ErrInvalidArgument, status)
	}
	return l.campaigns.ListByStatus(ctx, status)
}
