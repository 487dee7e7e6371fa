// Package jobrepo persists job aggregates with GORM. Food line items live in
// a child table; everything else is one row in jobs.
package jobrepo

import (
	"time"

	"fulfillment/internal/core/domain/model/job"
	"fulfillment/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

// JobDTO is one row of the jobs table. Kind-specific columns are NULL for
// the other kind.
type JobDTO struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Kind           string     `gorm:"type:varchar(16);not null;index:idx_jobs_open,priority:1"`
	CustomerID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	DriverID       *uuid.UUID `gorm:"type:uuid;index"`
	Status         string     `gorm:"type:varchar(16);not null;index:idx_jobs_open,priority:2"`
	Pickup         StopDTO    `gorm:"embedded;embeddedPrefix:pickup_"`
	Dropoff        StopDTO    `gorm:"embedded;embeddedPrefix:dropoff_"`
	Fee            FeeDTO     `gorm:"embedded;embeddedPrefix:fee_"`
	FailedAttempts int        `gorm:"type:int;not null;default:0"`
	CreatedAt      time.Time  `gorm:"not null;autoCreateTime:false;index:idx_jobs_open,priority:3"`
	UpdatedAt      time.Time  `gorm:"not null;autoUpdateTime:false"`
	PickedUpAt     *time.Time
	DeliveredAt    *time.Time

	ParcelSize     *string  `gorm:"type:varchar(16)"`
	ParcelWeightKg *float64 `gorm:"type:double precision"`
	RecipientName  *string  `gorm:"type:varchar(255)"`
	RecipientPhone *string  `gorm:"type:varchar(64)"`
	Description    *string  `gorm:"type:text"`

	RestaurantID *uuid.UUID   `gorm:"type:uuid;index"`
	Subtotal     *float64     `gorm:"type:numeric(12,2)"`
	Tax          *float64     `gorm:"type:numeric(12,2)"`
	Instructions *string      `gorm:"type:text"`
	LineItems    []LineItemDTO `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE"`
}

func (JobDTO) TableName() string {
	return "jobs"
}

// StopDTO is an embedded pickup or drop-off point.
type StopDTO struct {
	Latitude  float64 `gorm:"type:double precision;not null"`
	Longitude float64 `gorm:"type:double precision;not null"`
	Address   string  `gorm:"type:varchar(512)"`
}

// FeeDTO is the frozen fee breakdown.
type FeeDTO struct {
	DistanceKm     float64 `gorm:"type:double precision;not null"`
	Base           float64 `gorm:"type:numeric(12,2);not null"`
	DistanceCharge float64 `gorm:"type:numeric(12,2);not null"`
	Surcharge      float64 `gorm:"type:numeric(12,2);not null"`
	Total          float64 `gorm:"type:numeric(12,2);not null"`
}

// LineItemDTO is one ordered menu item with its price at order time.
type LineItemDTO struct {
	JobID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	Position   int       `gorm:"type:int;primaryKey"`
	MenuItemID uuid.UUID `gorm:"type:uuid;not null"`
	Quantity   int       `gorm:"type:int;not null"`
	UnitPrice  float64   `gorm:"type:numeric(12,2);not null"`
}

func (LineItemDTO) TableName() string {
	return "job_line_items"
}

func fromDomain(j *job.Job) JobDTO {
	fee := j.Fee()
	dto := JobDTO{
		ID:             j.ID().Google(),
		Kind:           j.Kind().String(),
		CustomerID:     j.CustomerID().Google(),
		Status:         j.Status().String(),
		Pickup:         stopFromDomain(j.Pickup()),
		Dropoff:        stopFromDomain(j.Dropoff()),
		FailedAttempts: j.FailedAttempts(),
		CreatedAt:      j.CreatedAt(),
		UpdatedAt:      j.UpdatedAt(),
		PickedUpAt:     j.PickedUpAt(),
		DeliveredAt:    j.DeliveredAt(),
		Fee: FeeDTO{
			DistanceKm:     fee.DistanceKm(),
			Base:           fee.Base(),
			DistanceCharge: fee.DistanceCharge(),
			Surcharge:      fee.Surcharge(),
			Total:          fee.Total(),
		},
	}
	if driverID := j.DriverID(); driverID != nil {
		raw := driverID.Google()
		dto.DriverID = &raw
	}

	if parcel, ok := j.Parcel(); ok {
		dto.ParcelSize = ptr(parcel.Size().String())
		dto.ParcelWeightKg = parcel.WeightKg()
		dto.RecipientName = ptr(parcel.RecipientName())
		dto.RecipientPhone = ptr(parcel.RecipientPhone())
		dto.Description = ptr(parcel.Description())
	}
	if food, ok := j.Food(); ok {
		restaurantID := food.RestaurantID().Google()
		dto.RestaurantID = &restaurantID
		dto.Subtotal = ptr(food.Subtotal())
		dto.Tax = ptr(food.Tax())
		dto.Instructions = ptr(food.Instructions())
		for i, it := range food.Items() {
			dto.LineItems = append(dto.LineItems, LineItemDTO{
				JobID:      dto.ID,
				Position:   i,
				MenuItemID: it.MenuItemID().Google(),
				Quantity:   it.Quantity(),
				UnitPrice:  it.UnitPrice(),
			})
		}
	}
	return dto
}

func toDomain(dto JobDTO) (*job.Job, error) {
	id, err := kernel.UUIDFromGoogle(dto.ID)
	if err != nil {
		return nil, err
	}
	customerID, err := kernel.UUIDFromGoogle(dto.CustomerID)
	if err != nil {
		return nil, err
	}
	kind, err := job.ParseKind(dto.Kind)
	if err != nil {
		return nil, err
	}
	status, err := job.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}
	pickup, err := stopToDomain(dto.Pickup)
	if err != nil {
		return nil, err
	}
	dropoff, err := stopToDomain(dto.Dropoff)
	if err != nil {
		return nil, err
	}
	fee, err := job.RestoreFee(dto.Fee.DistanceKm, dto.Fee.Base, dto.Fee.DistanceCharge, dto.Fee.Surcharge, dto.Fee.Total)
	if err != nil {
		return nil, err
	}

	p := job.RestoreParams{
		ID:             id,
		Kind:           kind,
		CustomerID:     customerID,
		Status:         status,
		Pickup:         pickup,
		Dropoff:        dropoff,
		Fee:            fee,
		FailedAttempts: dto.FailedAttempts,
		CreatedAt:      dto.CreatedAt,
		UpdatedAt:      dto.UpdatedAt,
		PickedUpAt:     dto.PickedUpAt,
		DeliveredAt:    dto.DeliveredAt,
	}
	if dto.DriverID != nil {
		driverID, err := kernel.UUIDFromGoogle(*dto.DriverID)
		if err != nil {
			return nil, err
		}
		p.DriverID = &driverID
	}

	switch kind {
	case job.KindParcel:
		parcel, err := parcelToDomain(dto)
		if err != nil {
			return nil, err
		}
		p.Parcel = &parcel
	case job.KindFood:
		food, err := foodToDomain(dto)
		if err != nil {
			return nil, err
		}
		p.Food = &food
	}

	return job.RestoreJob(p)
}

func parcelToDomain(dto JobDTO) (job.ParcelDetails, error) {
	size, err := job.ParseParcelSize(deref(dto.ParcelSize))
	if err != nil {
		return job.ParcelDetails{}, err
	}
	return job.NewParcelDetails(size, dto.ParcelWeightKg,
		deref(dto.RecipientName), deref(dto.RecipientPhone), deref(dto.Description))
}

func foodToDomain(dto JobDTO) (job.FoodDetails, error) {
	if dto.RestaurantID == nil {
		return job.FoodDetails{}, errRestaurantMissing
	}
	restaurantID, err := kernel.UUIDFromGoogle(*dto.RestaurantID)
	if err != nil {
		return job.FoodDetails{}, err
	}

	items := make([]job.LineItem, 0, len(dto.LineItems))
	for _, li := range dto.LineItems {
		menuItemID, err := kernel.UUIDFromGoogle(li.MenuItemID)
		if err != nil {
			return job.FoodDetails{}, err
		}
		item, err := job.NewLineItem(menuItemID, li.Quantity, li.UnitPrice)
		if err != nil {
			return job.FoodDetails{}, err
		}
		items = append(items, item)
	}

	return job.RestoreFoodDetails(restaurantID, items, deref(dto.Subtotal), deref(dto.Tax), deref(dto.Instructions))
}

func stopFromDomain(s job.Stop) StopDTO {
	return StopDTO{
		Latitude:  s.Location.Lat(),
		Longitude: s.Location.Lng(),
		Address:   s.Address,
	}
}

func stopToDomain(dto StopDTO) (job.Stop, error) {
	loc, err := kernel.NewLocation(dto.Latitude, dto.Longitude)
	if err != nil {
		return job.Stop{}, err
	}
	return job.Stop{Location: loc, Address: dto.Address}, nil
}

func ptr[T any](v T) *T {
	return &v
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
