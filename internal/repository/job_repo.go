package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"escrowhub/internal/model"
	"escrowhub/internal/store"
)

type JobRepository struct {
	seq    sequence[model.Job]
	logger *zap.Logger
}

func NewJobRepository(s store.Store, logger *zap.Logger) *JobRepository {
	return &JobRepository{seq: newSequence[model.Job](s, store.KindJob, store.CounterJobs), logger: logger}
}

func (r *JobRepository) NextID(ctx context.Context) (int64, error) {
	return r.seq.nextID(ctx)
}

func (r *JobRepository) Insert(ctx context.Context, j *model.Job) error {
	r.logger.Debug("Inserting job",
		zap.Int64("job_id", j.ID),
		zap.String("employer", j.Employer),
		zap.String("budget", j.Budget.String()),
	)
	if err := r.seq.insert(ctx, j.ID, j); err != nil {
		r.logger.Error("Failed to insert job", zap.Int64("job_id", j.ID), zap.Error(err))
		return err
	}
	return nil
}

func (r *JobRepository) Save(ctx context.Context, j *model.Job) error {
	if err := r.seq.save(ctx, j.ID, j); err != nil {
		r.logger.Error("Failed to save job", zap.Int64("job_id", j.ID), zap.Error(err))
		return err
	}
	return nil
}

func (r *JobRepository) Get(ctx context.Context, id int64) (*model.Job, error) {
	j, ok, err := r.seq.get(ctx, id)
	if err != nil {
		r.logger.Error("Failed to load job", zap.Int64("job_id", id), zap.Error(err))
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: job %d", model.ErrNotFound, id)
	}
	return j, nil
}

// ListByStatus returns jobs in status, in id order.
func (r *JobRepository) ListByStatus(ctx context.Context, status model.JobStatus) ([]model.Job, error) {
	r.logger.Debug("Listing jobs by status", zap.String("status", string(status)))
	jobs := []model.Job{}
	err := r.seq.scan(ctx, 1, func(j *model.Job) error {
		if j.Status == status {
			jobs = append(jobs, *j)
		}
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to list jobs", zap.String("status", string(status)), zap.Error(err))
		return nil, err
	}
	return jobs, nil
}
