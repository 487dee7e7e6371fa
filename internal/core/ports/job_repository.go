package ports

import (
	"context"
	"time"

	"fulfillment/internal/core/domain/model/job"
	"fulfillment/internal/core/domain/model/kernel"
)

// Area is a circle on the map, used to keep listings local to a driver.
type Area struct {
	Center   kernel.Location
	RadiusKm float64
}

// Contains reports whether loc lies inside the area, boundary included.
func (a Area) Contains(loc kernel.Location) bool {
	return a.Center.WithinKm(loc, a.RadiusKm)
}

// JobMutation changes a job in place. Returning an error discards the change.
type JobMutation func(j *job.Job) error

// JobRepository stores Job aggregates. Jobs are never deleted.
type JobRepository interface {
	// Add persists a new job. Returns ErrAlreadyExists for a taken id.
	Add(ctx context.Context, j *job.Job) error

	// Get returns a snapshot of the job or an errs.ObjectNotFoundError.
	Get(ctx context.Context, id kernel.UUID) (*job.Job, error)

	// Update runs fn under the job's exclusive lock and stores the result when
	// fn succeeds. The returned job is a snapshot of the stored state.
	//
	// Example:
	//
	//	updated, err := repo.Update(ctx, jobID, func(j *job.Job) error {
	//	    changed, err = j.Claim(driverID, now)
	//	    return err
	//	})
	Update(ctx context.Context, id kernel.UUID, fn JobMutation) (*job.Job, error)

	// ListOpen returns Pending unassigned jobs of kind, oldest first. A
	// non-nil near keeps only jobs picked up inside the area; the filter is
	// applied before paging.
	ListOpen(ctx context.Context, kind job.Kind, near *Area, page Page) ([]*job.Job, error)

	// ListByCustomer returns the customer's jobs, newest first.
	ListByCustomer(ctx context.Context, customerID kernel.UUID, page Page) ([]*job.Job, error)

	// ListActiveByDriver returns the driver's non-terminal jobs.
	ListActiveByDriver(ctx context.Context, driverID kernel.UUID) ([]*job.Job, error)

	// ListPendingBefore returns up to limit Pending jobs created before t,
	// oldest first.
	ListPendingBefore(ctx context.Context, t time.Time, limit int) ([]*job.Job, error)
}
