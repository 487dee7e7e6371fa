package ports

import (
	"context"
	"iter"

	"fulfillment/internal/core/domain/model/driver"
	"fulfillment/internal/core/domain/model/job"
	"fulfillment/internal/core/domain/model/kernel"
)

// DriverMutation changes a driver in place. Returning an error discards the
// change.
type DriverMutation func(d *driver.Driver) error

// DriverRepository stores Driver aggregates.
type DriverRepository interface {
	// Add persists a new driver. Returns ErrAlreadyExists for a taken id.
	Add(ctx context.Context, d *driver.Driver) error

	// Get returns a snapshot of the driver or an errs.ObjectNotFoundError.
	Get(ctx context.Context, id kernel.UUID) (*driver.Driver, error)

	// Update runs fn under the driver's exclusive lock; see JobRepository.Update.
	Update(ctx context.Context, id kernel.UUID, fn DriverMutation) (*driver.Driver, error)

	// Available yields snapshots of online drivers without an active job who
	// accept kind. The sequence is lazy: nothing is read until it is ranged
	// over, and every range starts a fresh scan.
	Available(ctx context.Context, kind job.Kind) iter.Seq2[*driver.Driver, error]

	// ListHoldingJobs returns drivers with an active job.
	ListHoldingJobs(ctx context.Context) ([]*driver.Driver, error)
}
