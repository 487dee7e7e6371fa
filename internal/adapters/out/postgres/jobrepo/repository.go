package jobrepo

import (
	"context"
	"errors"
	"math"
	"time"

	"fulfillment/internal/core/domain/model/job"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errRestaurantMissing = errors.New("food job row has no restaurant")

var _ ports.JobRepository = (*GormJobRepository)(nil)

// GormJobRepository implements ports.JobRepository on PostgreSQL.
//
// Update serializes writers with SELECT ... FOR UPDATE on the job row inside
// a transaction, so two claims for the same job queue up on the row lock
// and the second one sees the first one's result.
type GormJobRepository struct {
	db *gorm.DB
}

func NewGormJobRepository(db *gorm.DB) *GormJobRepository {
	return &GormJobRepository{db: db}
}

func (r *GormJobRepository) Add(ctx context.Context, j *job.Job) error {
	if err := j.Validate(); err != nil {
		return err
	}

	dto := fromDomain(j)
	err := r.db.WithContext(ctx).Create(&dto).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ports.ErrAlreadyExists
	}
	return err
}

func (r *GormJobRepository) Get(ctx context.Context, id kernel.UUID) (*job.Job, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return r.load(r.db.WithContext(ctx), id)
}

// Update loads the job under a row lock, applies fn and writes the result in
// the same transaction. Nothing is written when fn fails.
func (r *GormJobRepository) Update(ctx context.Context, id kernel.UUID, fn ports.JobMutation) (*job.Job, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var updated *job.Job
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		j, err := r.load(tx.Clauses(clause.Locking{Strength: "UPDATE"}), id)
		if err != nil {
			return err
		}
		if err := fn(j); err != nil {
			return err
		}
		if err := j.Validate(); err != nil {
			return err
		}

		// Line items never change after creation.
		dto := fromDomain(j)
		if err := tx.Omit(clause.Associations).Save(&dto).Error; err != nil {
			return err
		}
		updated = j
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *GormJobRepository) ListOpen(ctx context.Context, kind job.Kind, near *ports.Area, page ports.Page) ([]*job.Job, error) {
	page = page.Normalize()
	q := r.db.WithContext(ctx).
		Where("kind = ? AND status = ? AND driver_id IS NULL", kind.String(), job.Pending.String())
	if near != nil {
		q = withinArea(q, *near)
	}
	return r.find(q.
		Order("created_at ASC").
		Offset(page.Offset).
		Limit(page.Limit))
}

func (r *GormJobRepository) ListByCustomer(ctx context.Context, customerID kernel.UUID, page ports.Page) ([]*job.Job, error) {
	page = page.Normalize()
	return r.find(r.db.WithContext(ctx).
		Where("customer_id = ?", customerID.Google()).
		Order("created_at DESC").
		Offset(page.Offset).
		Limit(page.Limit))
}

func (r *GormJobRepository) ListActiveByDriver(ctx context.Context, driverID kernel.UUID) ([]*job.Job, error) {
	return r.find(r.db.WithContext(ctx).
		Where("driver_id = ? AND status IN ?", driverID.Google(), activeStatuses()).
		Order("created_at ASC"))
}

func (r *GormJobRepository) ListPendingBefore(ctx context.Context, t time.Time, limit int) ([]*job.Job, error) {
	q := r.db.WithContext(ctx).
		Where("status = ? AND driver_id IS NULL AND created_at < ?", job.Pending.String(), t).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return r.find(q)
}

func (r *GormJobRepository) load(db *gorm.DB, id kernel.UUID) (*job.Job, error) {
	var dto JobDTO
	err := db.Preload("LineItems", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	}).First(&dto, "id = ?", id.Google()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NewObjectNotFoundError("jobID", id)
	}
	if err != nil {
		return nil, err
	}
	return toDomain(dto)
}

func (r *GormJobRepository) find(q *gorm.DB) ([]*job.Job, error) {
	var dtos []JobDTO
	err := q.Preload("LineItems", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	}).Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	jobs := make([]*job.Job, 0, len(dtos))
	for _, dto := range dtos {
		j, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

// kmPerDegreeLat is the length of one degree of latitude on the sphere used
// by kernel.Location.
const kmPerDegreeLat = kernel.EarthRadiusKm * math.Pi / 180

// withinArea narrows q to pickups inside area. The latitude band lets the
// planner skip most rows; the haversine term matches kernel.Location.
func withinArea(q *gorm.DB, area ports.Area) *gorm.DB {
	lat, lng := area.Center.Lat(), area.Center.Lng()
	band := area.RadiusKm / kmPerDegreeLat
	return q.
		Where("pickup_latitude BETWEEN ? AND ?", lat-band, lat+band).
		Where(`? * 2 * ASIN(LEAST(1.0, SQRT(
			POWER(SIN(RADIANS(pickup_latitude - ?) / 2), 2) +
			COS(RADIANS(?)) * COS(RADIANS(pickup_latitude)) *
			POWER(SIN(RADIANS(pickup_longitude - ?) / 2), 2)))) <= ?`,
			kernel.EarthRadiusKm, lat, lat, lng, area.RadiusKm)
}

func activeStatuses() []string {
	return []string{job.Accepted.String(), job.PickedUp.String(), job.EnRoute.String()}
}
