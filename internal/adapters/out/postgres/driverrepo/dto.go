// Package driverrepo persists driver aggregates with GORM.
package driverrepo

import (
	"time"

	"fulfillment/internal/core/domain/model/driver"
	"fulfillment/internal/core/domain/model/job"
	"fulfillment/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// DriverDTO is one row of the drivers table. The partial unique index on
// active_job_id makes a job reservable by one driver only.
type DriverDTO struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Online          bool           `gorm:"not null;default:false;index"`
	Latitude        *float64       `gorm:"type:double precision"`
	Longitude       *float64       `gorm:"type:double precision"`
	LocationAt      *time.Time
	ActiveJobID     *uuid.UUID     `gorm:"type:uuid;uniqueIndex:idx_drivers_active_job,where:active_job_id IS NOT NULL"`
	Kinds           pq.StringArray `gorm:"type:text[];not null"`
	TotalDeliveries int            `gorm:"type:int;not null;default:0"`
}

func (DriverDTO) TableName() string {
	return "drivers"
}

func fromDomain(d *driver.Driver) DriverDTO {
	dto := DriverDTO{
		ID:              d.ID().Google(),
		Online:          d.Online(),
		TotalDeliveries: d.TotalDeliveries(),
	}
	for _, k := range d.Kinds() {
		dto.Kinds = append(dto.Kinds, k.String())
	}
	if loc, ok := d.Location(); ok {
		lat, lng, at := loc.Lat(), loc.Lng(), d.LocationAt()
		dto.Latitude, dto.Longitude, dto.LocationAt = &lat, &lng, &at
	}
	if jobID := d.ActiveJobID(); jobID != nil {
		raw := jobID.Google()
		dto.ActiveJobID = &raw
	}
	return dto
}

func toDomain(dto DriverDTO) (*driver.Driver, error) {
	id, err := kernel.UUIDFromGoogle(dto.ID)
	if err != nil {
		return nil, err
	}

	p := driver.RestoreParams{
		ID:              id,
		Online:          dto.Online,
		TotalDeliveries: dto.TotalDeliveries,
	}
	for _, name := range dto.Kinds {
		kind, err := job.ParseKind(name)
		if err != nil {
			return nil, err
		}
		p.Kinds = append(p.Kinds, kind)
	}
	if dto.Latitude != nil && dto.Longitude != nil {
		loc, err := kernel.NewLocation(*dto.Latitude, *dto.Longitude)
		if err != nil {
			return nil, err
		}
		p.Location = &loc
		if dto.LocationAt != nil {
			p.LocationAt = *dto.LocationAt
		}
	}
	if dto.ActiveJobID != nil {
		jobID, err := kernel.UUIDFromGoogle(*dto.ActiveJobID)
		if err != nil {
			return nil, err
		}
		p.ActiveJobID = &jobID
	}

	return driver.RestoreDriver(p)
}
