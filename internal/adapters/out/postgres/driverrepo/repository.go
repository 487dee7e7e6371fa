package driverrepo

import (
	"context"
	"errors"
	"iter"

	"fulfillment/internal/core/domain/model/driver"
	"fulfillment/internal/core/domain/model/job"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ ports.DriverRepository = (*GormDriverRepository)(nil)

// GormDriverRepository implements ports.DriverRepository on PostgreSQL.
type GormDriverRepository struct {
	db *gorm.DB
}

func NewGormDriverRepository(db *gorm.DB) *GormDriverRepository {
	return &GormDriverRepository{db: db}
}

func (r *GormDriverRepository) Add(ctx context.Context, d *driver.Driver) error {
	if err := d.Validate(); err != nil {
		return err
	}

	dto := fromDomain(d)
	err := r.db.WithContext(ctx).Create(&dto).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ports.ErrAlreadyExists
	}
	return err
}

func (r *GormDriverRepository) Get(ctx context.Context, id kernel.UUID) (*driver.Driver, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return r.load(r.db.WithContext(ctx), id)
}

// Update applies fn to the driver under a row lock. A reservation that
// collides with another driver's on the same job is reported as the job
// being taken.
func (r *GormDriverRepository) Update(ctx context.Context, id kernel.UUID, fn ports.DriverMutation) (*driver.Driver, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var updated *driver.Driver
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		d, err := r.load(tx.Clauses(clause.Locking{Strength: "UPDATE"}), id)
		if err != nil {
			return err
		}
		if err := fn(d); err != nil {
			return err
		}
		if err := d.Validate(); err != nil {
			return err
		}

		dto := fromDomain(d)
		if err := tx.Save(&dto).Error; err != nil {
			if jobID := d.ActiveJobID(); jobID != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
				return &job.AlreadyClaimedError{JobID: *jobID, Status: job.Accepted}
			}
			return err
		}
		updated = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Available streams matching drivers row by row. Each range runs the query
// again.
func (r *GormDriverRepository) Available(ctx context.Context, kind job.Kind) iter.Seq2[*driver.Driver, error] {
	return func(yield func(*driver.Driver, error) bool) {
		rows, err := r.db.WithContext(ctx).
			Model(&DriverDTO{}).
			Where("online AND active_job_id IS NULL AND ? = ANY(kinds)", kind.String()).
			Order("id").
			Rows()
		if err != nil {
			yield(nil, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			var dto DriverDTO
			if err := r.db.ScanRows(rows, &dto); err != nil {
				yield(nil, err)
				return
			}
			d, err := toDomain(dto)
			if !yield(d, err) || err != nil {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, err)
		}
	}
}

func (r *GormDriverRepository) ListHoldingJobs(ctx context.Context) ([]*driver.Driver, error) {
	var dtos []DriverDTO
	if err := r.db.WithContext(ctx).Where("active_job_id IS NOT NULL").Find(&dtos).Error; err != nil {
		return nil, err
	}

	drivers := make([]*driver.Driver, 0, len(dtos))
	for _, dto := range dtos {
		d, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, d)
	}
	return drivers, nil
}

func (r *GormDriverRepository) load(db *gorm.DB, id kernel.UUID) (*driver.Driver, error) {
	var dto DriverDTO
	err := db.First(&dto, "id = ?", id.Google()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NewObjectNotFoundError("driverID", id)
	}
	if err != nil {
		return nil, err
	}
	return toDomain(dto)
}
