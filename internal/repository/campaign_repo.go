package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"escrowhub/internal/model"
	"escrowhub/internal/store"
)

type CampaignRepository struct {
	seq    sequence[model.Campaign]
	logger *zap.Logger
}

func NewCampaignRepository(s store.Store, logger *zap.Logger) *CampaignRepository {
	return &CampaignRepository{seq: newSequence[model.Campaign](s, store.KindCampaign, store.CounterCampaigns), logger: logger}
}

func (r *CampaignRepository) NextID(ctx context.Context) (int64, error) {
	return r.seq.nextID(ctx)
}

func (r *CampaignRepository) Insert(ctx context.Context, c *model.Campaign) error {
	r.logger.Debug("Inserting campaign",
		zap.Int64("campaign_id", c.ID),
		zap.String("creator", c.Creator),
		zap.String("goal", c.Goal.String()),
	)
	if err := r.seq.insert(ctx, c.ID, c); err != nil {
		r.logger.Error("Failed to insert campaign", zap.Int64("campaign_id", c.ID), zap.Error(err))
		return err
	}
	return nil
}

func (r *CampaignRepository) Save(ctx context.Context, c *model.Campaign) error {
	if err := r.seq.save(ctx, c.ID, c); err != nil {
		r.logger.Error("Failed to save campaign", zap.Int64("campaign_id", c.ID), zap.Error(err))
		return err
	}
	return nil
}

func (r *CampaignRepository) Get(ctx context.Context, id int64) (*model.Campaign, error) {
	c, ok, err := r.seq.get(ctx, id)
	if err != nil {
		r.logger.Error("Failed to load campaign", zap.Int64("campaign_id", id), zap.Error(err))
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: campaign %d", model.ErrNotFound, id)
	}
	return c, nil
}

// ListByStatus returns campaigns in any of statuses, in id order.
func (r *CampaignRepository) ListByStatus(ctx context.Context, statuses ...model.CampaignStatus) ([]model.Campaign, error) {
	campaigns := []model.Campaign{}
	err := r.seq.scan(ctx, 1, func(c *model.Campaign) error {
		for _, s := range statuses {
			if c.Status == s {
				campaigns = append(campaigns, *c)
				break
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to list campaigns", zap.Error(err))
		return nil, err
	}
	return campaigns, nil
}
