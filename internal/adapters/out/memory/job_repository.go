package memory

import (
	"context"
	"slices"
	"time"

	"fulfillment/internal/core/domain/model/job"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"
)

var _ ports.JobRepository = (*JobRepository)(nil)

type JobRepository struct {
	jobs *store[*job.Job]
}

func NewJobRepository() *JobRepository {
	return &JobRepository{jobs: newStore[*job.Job]("jobID")}
}

func (r *JobRepository) Add(ctx context.Context, j *job.Job) error {
	if err := j.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.jobs.add(j.ID(), j)
}

func (r *JobRepository) Get(ctx context.Context, id kernel.UUID) (*job.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.jobs.get(id)
}

func (r *JobRepository) Update(ctx context.Context, id kernel.UUID, fn ports.JobMutation) (*job.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.jobs.update(id, fn)
}

func (r *JobRepository) ListOpen(ctx context.Context, kind job.Kind, near *ports.Area, page ports.Page) ([]*job.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	open := r.jobs.snapshots(func(j *job.Job) bool {
		if !j.IsOpen() || j.Kind() != kind {
			return false
		}
		return near == nil || near.Contains(j.Pickup().Location)
	})
	sortByCreated(open, false)
	return paginate(open, page), nil
}

func (r *JobRepository) ListByCustomer(ctx context.Context, customerID kernel.UUID, page ports.Page) ([]*job.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	owned := r.jobs.snapshots(func(j *job.Job) bool {
		return j.CustomerID().IsEqual(customerID)
	})
	sortByCreated(owned, true)
	return paginate(owned, page), nil
}

func (r *JobRepository) ListActiveByDriver(ctx context.Context, driverID kernel.UUID) ([]*job.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	active := r.jobs.snapshots(func(j *job.Job) bool {
		return j.IsAssignedTo(driverID) && !j.Status().IsTerminal()
	})
	sortByCreated(active, false)
	return active, nil
}

func (r *JobRepository) ListPendingBefore(ctx context.Context, t time.Time, limit int) ([]*job.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stale := r.jobs.snapshots(func(j *job.Job) bool {
		return j.Status() == job.Pending && j.CreatedAt().Before(t)
	})
	sortByCreated(stale, false)
	if limit > 0 && len(stale) > limit {
		stale = stale[:limit]
	}
	return stale, nil
}

func sortByCreated(jobs []*job.Job, newestFirst bool) {
	slices.SortStableFunc(jobs, func(a, b *job.Job) int {
		c := a.CreatedAt().Compare(b.CreatedAt())
		if newestFirst {
			return -c
		}
		return c
	})
}
