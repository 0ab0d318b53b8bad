package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"escrowhub/internal/model"
)

// Orchestrator drives the time-based work of the ledger: due regular payments and campaigns
// whose deadline has passed.
type Orchestrator struct {
	ledger *Ledger
	token  string
	logger *zap.Logger
}

func NewOrchestrator(ledger *Ledger, token string, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{ledger: ledger, token: token, logger: logger}
}

// RunPayments executes every due regular payment in the configured token.
func (o *Orchestrator) RunPayments(ctx context.Context) error {
	o.logger.Debug("Running regular payments", zap.String("token", o.token))
	summary, err := o.ledger.ExecuteRegularPayments(ctx, o.token)
	if err != nil {
		o.logger.Error("Regular payments pass aborted", zap.Error(err))
		return err
	}
	if summary.Executed > 0 || summary.Failed > 0 {
		o.logger.Info("Regular payments executed",
			zap.Int("executed", summary.Executed),
			zap.Int("failed", summary.Failed),
		)
	}
	return nil
}

// CloseExpiredCampaigns closes every unsettled campaign past its end time. A campaign whose
// refunds fail is left failed and retried on the next call.
func (o *Orchestrator) CloseExpiredCampaigns(ctx context.Context) (int, error) {
	campaigns, err := o.ledger.campaigns.ListByStatus(ctx,
		model.CampaignActive, model.CampaignSuccessful, model.CampaignFailed)
	if err != nil {
		o.logger.Error("Failed to list open campaigns", zap.Error(err))
		return 0, err
	}

	now := o.ledger.clock.Now()
	closed := 0
	var errs []error
	for _, c := range campaigns {
		if !now.After(c.EndTime) {
			continue
		}
		if _, err := o.ledger.CloseCampaign(ctx, c.ID); err != nil {
			o.logger.Error("Failed to close campaign", zap.Int64("campaign_id", c.ID), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		closed++
		o.logger.Info("Closed expired campaign", zap.Int64("campaign_id", c.ID))
	}

	if len(campaigns) == 0 {
		o.logger.Debug("No open campaigns found")
	}
	return closed, errors.Join(errs...)
}

// Tick runs one round of scheduled work.
func (o *Orchestrator) Tick(ctx context.Context) {
	if err := o.RunPayments(ctx); err != nil {
		o.logger.Warn("Payment run failed", zap.Error(err))
	}
	if _, err := o.CloseExpiredCampaigns(ctx); err != nil {
		o.logger.Warn("Campaign sweep failed", zap.Error(err))
	}
}
