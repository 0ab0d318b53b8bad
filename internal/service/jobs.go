package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"escrowhub/internal/model"
	"escrowhub/pkg/logger"
	"escrowhub/pkg/rbac"
)

// CreateJob escrows budget from employer into custody and opens a job.
// Nothing is written when the transfer fails.
func (l *Ledger) CreateJob(ctx context.Context, employer, title, description string, budget decimal.Decimal, token string) (*model.Job, error) {
	if err := model.ValidatePositiveAmount(budget); err != nil {
		return nil, err
	}
	if token == "" {
		return nil, fmt.Errorf("%w: token is required", model.ErrInvalidArgument)
	}

	var job *model.Job
	err := l.mutate(ctx, "create_job", func() error {
		user, err := l.authorize(ctx, employer, rbac.PermissionCreateJob)
		if err != nil {
			return err
		}

		id, err := l.jobs.NextID(ctx)
		if err != nil {
			return err
		}
		if err := l.transfer(ctx, "", token, employer, l.custody, budget); err != nil {
			return err
		}
		if _, err := l.journal.Record(ctx, employer, l.custody, budget, model.MessageJobCreation, model.RefJob(id)); err != nil {
			return err
		}

		job = &model.Job{
			ID:          id,
			Employer:    employer,
			Title:       title,
			Description: description,
			Budget:      budget,
			Token:       token,
			Status:      model.JobOpen,
			Proposals:   []model.Proposal{},
			CreatedAt:   l.clock.Now(),
		}
		if err := l.jobs.Insert(ctx, job); err != nil {
			return err
		}

		user.AddJob(id)
		return l.users.Save(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	logger.WithTrace(ctx, l.logger).Info("Job created",
		zap.Int64("job_id", job.ID),
		zap.String("employer", employer),
		zap.String("budget", budget.String()),
		zap.String("token", token),
	)
	return job, nil
}

// SubmitProposal appends a proposal to an open job. Repeat proposals are allowed.
func (l *Ledger) SubmitProposal(ctx context.Context, freelancer string, jobID int64, price decimal.Decimal) (*model.Job, error) {
	if err := model.ValidateAmount(price); err != nil {
		return nil, err
	}

	var job *model.Job
	err := l.mutate(ctx, "submit_proposal", func() error {
		if _, err := l.authorize(ctx, freelancer, rbac.PermissionSubmitProposal); err != nil {
			return err
		}

		var err error
		job, err = l.jobs.Get(ctx, jobID)
		if err != nil {
			return err
		}
		if err := job.AddProposal(model.Proposal{Freelancer: freelancer, Price: price}); err != nil {
			return err
		}
		return l.jobs.Save(ctx, job)
	})
	if err != nil {
		return nil, err
	}

	logger.WithTrace(ctx, l.logger).Info("Proposal submitted",
		zap.Int64("job_id", jobID),
		zap.String("freelancer", freelancer),
		zap.String("price", price.String()),
	)
	return job, nil
}

// AcceptProposal assigns freelancer to the employer's open job. The freelancer must have proposed.
func (l *Ledger) AcceptProposal(ctx context.Context, employer string, jobID int64, freelancer string) (*model.Job, error) {
	var job *model.Job
	err := l.mutate(ctx, "accept_proposal", func() error {
		if _, err := l.authorize(ctx, employer, rbac.PermissionAcceptProposal); err != nil {
			return err
		}

		var err error
		job, err = l.jobs.Get(ctx, jobID)
		if err != nil {
			return err
		}
		if job.Employer != employer {
			return fmt.Errorf("%w: %s is not the employer of job %d", model.ErrUnauthorized, employer, jobID)
		}
		if err := job.Accept(freelancer); err != nil {
			return err
		}
		if err := l.jobs.Save(ctx, job); err != nil {
			return err
		}

		fl, err := l.users.Get(ctx, freelancer)
		if errors.Is(err, model.ErrNotFound) {
			l.logger.Warn("Accepted freelancer has no user record", zap.String("freelancer", freelancer))
			return nil
		}
		if err != nil {
			return err
		}
		fl.AddJob(jobID)
		return l.users.Save(ctx, fl)
	})
	if err != nil {
		return nil, err
	}

	logger.WithTrace(ctx, l.logger).Info("Proposal accepted",
		zap.Int64("job_id", jobID),
		zap.String("freelancer", freelancer),
	)
	return job, nil
}

// CompleteJob is called by the accepted freelancer once the work is delivered.
func (l *Ledger) CompleteJob(ctx context.Context, freelancer string, jobID int64) (*model.Job, error) {
	var job *model.Job
	err := l.mutate(ctx, "complete_job", func() error {
		if _, err := l.authorize(ctx, freelancer, rbac.PermissionCompleteJob); err != nil {
			return err
		}

		var err error
		job, err = l.jobs.Get(ctx, jobID)
		if err != nil {
			return err
		}
		if err := job.Complete(freelancer); err != nil {
			return err
		}
		return l.jobs.Save(ctx, job)
	})
	if err != nil {
		return nil, err
	}

	logger.WithTrace(ctx, l.logger).Info("Job completed", zap.Int64("job_id", jobID), zap.String("freelancer", freelancer))
	return job, nil
}

// ApproveJob releases the escrowed budget to the accepted freelancer. The job stays completed
// when the payout transfer fails.
func (l *Ledger) ApproveJob(ctx context.Context, employer string, jobID int64) (*model.Job, error) {
	var job *model.Job
	err := l.mutate(ctx, "approve_job", func() error {
		if _, err := l.authorize(ctx, employer, rbac.PermissionApproveJob); err != nil {
			return err
		}

		var err error
		job, err = l.jobs.Get(ctx, jobID)
		if err != nil {
			return err
		}
		payee, err := job.CheckApprovable(employer)
		if err != nil {
			return err
		}
		if err := l.transfer(ctx, jobPaymentKey(job.ID), job.Token, l.custody, payee, job.Budget); err != nil {
			return err
		}
		if _, err := l.journal.Record(ctx, l.custody, payee, job.Budget, model.MessageJobPayment, model.RefJob(jobID)); err != nil {
			return err
		}

		job.MarkApproved()
		return l.jobs.Save(ctx, job)
	})
	if err != nil {
		return nil, err
	}

	logger.WithTrace(ctx, l.logger).Info("Job approved",
		zap.Int64("job_id", jobID),
		zap.String("freelancer", *job.AcceptedFreelancer),
		zap.String("budget", job.Budget.String()),
	)
	return job, nil
}

func (l *Ledger) GetJob(ctx context.Context, jobID int64) (*model.Job, error) {
	return l.jobs.Get(ctx, jobID)
}

// GetJobsByStatus returns matching jobs in id order.
func (l *Ledger) GetJobsByStatus(ctx context.Context, status model.JobStatus) ([]model.Job, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown job status %q", model.ErrInvalidArgument, status)
	}
	return l.jobs.ListByStatus(ctx, status)
}
