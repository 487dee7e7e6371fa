package memory

import (
	"context"
	"iter"

	"fulfillment/internal/core/domain/model/driver"
	"fulfillment/internal/core/domain/model/job"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"
)

var _ ports.DriverRepository = (*DriverRepository)(nil)

type DriverRepository struct {
	drivers *store[*driver.Driver]
}

func NewDriverRepository() *DriverRepository {
	return &DriverRepository{drivers: newStore[*driver.Driver]("driverID")}
}

func (r *DriverRepository) Add(ctx context.Context, d *driver.Driver) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.drivers.add(d.ID(), d)
}

func (r *DriverRepository) Get(ctx context.Context, id kernel.UUID) (*driver.Driver, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.drivers.get(id)
}

func (r *DriverRepository) Update(ctx context.Context, id kernel.UUID, fn ports.DriverMutation) (*driver.Driver, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.drivers.update(id, fn)
}

// Available reads each driver under its own lock at the moment the sequence
// reaches it, so a long iteration never blocks claims.
func (r *DriverRepository) Available(ctx context.Context, kind job.Kind) iter.Seq2[*driver.Driver, error] {
	return func(yield func(*driver.Driver, error) bool) {
		for _, rec := range r.drivers.records() {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			d := rec.snapshot()
			if !d.AvailableFor(kind) {
				continue
			}
			if !yield(d, nil) {
				return
			}
		}
	}
}

func (r *DriverRepository) ListHoldingJobs(ctx context.Context) ([]*driver.Driver, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.drivers.snapshots((*driver.Driver).HasActiveJob), nil
}
