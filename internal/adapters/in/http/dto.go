package http

import (
	"time"

	"fulfillment/internal/core/domain/model/driver"
	"fulfillment/internal/core/domain/model/job"
	"fulfillment/internal/core/domain/model/review"
)

// Error is the body of every non-2xx response.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Stop struct {
	Location Location `json:"location"`
	Address  string   `json:"address,omitempty"`
}

type NewParcelJob struct {
	Pickup         Stop     `json:"pickup"`
	Dropoff        Stop     `json:"dropoff"`
	Size           string   `json:"size"`
	WeightKg       *float64 `json:"weight_kg,omitempty"`
	RecipientName  string   `json:"recipient_name"`
	RecipientPhone string   `json:"recipient_phone"`
	Description    string   `json:"description,omitempty"`
}

type OrderLine struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
}

type NewFoodJob struct {
	RestaurantID string      `json:"restaurant_id"`
	Dropoff      Stop        `json:"dropoff"`
	Items        []OrderLine `json:"items"`
	Instructions string      `json:"instructions,omitempty"`
}

type NewReview struct {
	TargetType string `json:"target_type"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment,omitempty"`
}

type DriverRegistration struct {
	Kinds []string `json:"kinds"`
}

type Availability struct {
	Online bool `json:"online"`
}

type LocationReport struct {
	Lat        float64    `json:"lat"`
	Lng        float64    `json:"lng"`
	ReportedAt *time.Time `json:"reported_at,omitempty"`
}

// StatusUpdate carries a driver event: pick_up, depart, deliver, release
// or failed_attempt.
type StatusUpdate struct {
	Event string `json:"event"`
}

type Fee struct {
	DistanceKm     float64 `json:"distance_km"`
	Base           float64 `json:"base"`
	DistanceCharge float64 `json:"distance_charge"`
	Surcharge      float64 `json:"surcharge"`
	Total          float64 `json:"total"`
}

type Parcel struct {
	Size           string   `json:"size"`
	WeightKg       *float64 `json:"weight_kg,omitempty"`
	RecipientName  string   `json:"recipient_name"`
	RecipientPhone string   `json:"recipient_phone"`
	Description    string   `json:"description,omitempty"`
}

type LineItem struct {
	MenuItemID string  `json:"menu_item_id"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
}

type Food struct {
	RestaurantID string     `json:"restaurant_id"`
	Items        []LineItem `json:"items"`
	Subtotal     float64    `json:"subtotal"`
	Tax          float64    `json:"tax"`
	Instructions string     `json:"instructions,omitempty"`
}

type Job struct {
	ID             string     `json:"id"`
	Kind           string     `json:"kind"`
	Status         string     `json:"status"`
	CustomerID     string     `json:"customer_id"`
	DriverID       *string    `json:"driver_id,omitempty"`
	Pickup         Stop       `json:"pickup"`
	Dropoff        Stop       `json:"dropoff"`
	Fee            Fee        `json:"fee"`
	Total          float64    `json:"total"`
	FailedAttempts int        `json:"failed_attempts"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	PickedUpAt     *time.Time `json:"picked_up_at,omitempty"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
	Parcel         *Parcel    `json:"parcel,omitempty"`
	Food           *Food      `json:"food,omitempty"`
}

type Driver struct {
	ID              string    `json:"id"`
	Online          bool      `json:"online"`
	Kinds           []string  `json:"kinds"`
	Location        *Location `json:"location,omitempty"`
	ActiveJobID     *string   `json:"active_job_id,omitempty"`
	TotalDeliveries int       `json:"total_deliveries"`
}

type LocationAccepted struct {
	Applied bool `json:"applied"`
}

type Review struct {
	ID         string    `json:"id"`
	JobID      string    `json:"job_id"`
	TargetType string    `json:"target_type"`
	TargetID   string    `json:"target_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type RatingSummary struct {
	TargetType string  `json:"target_type"`
	TargetID   string  `json:"target_id"`
	Count      int     `json:"count"`
	Average    float64 `json:"average"`
}

func toStop(s job.Stop) Stop {
	return Stop{
		Location: Location{Lat: s.Location.Lat(), Lng: s.Location.Lng()},
		Address:  s.Address,
	}
}

func toJob(j *job.Job) Job {
	fee := j.Fee()
	out := Job{
		ID:         j.ID().String(),
		Kind:       j.Kind().String(),
		Status:     j.Status().String(),
		CustomerID: j.CustomerID().String(),
		Pickup:     toStop(j.Pickup()),
		Dropoff:    toStop(j.Dropoff()),
		Fee: Fee{
			DistanceKm:     fee.DistanceKm(),
			Base:           fee.Base(),
			DistanceCharge: fee.DistanceCharge(),
			Surcharge:      fee.Surcharge(),
			Total:          fee.Total(),
		},
		Total:          j.Total(),
		FailedAttempts: j.FailedAttempts(),
		CreatedAt:      j.CreatedAt(),
		UpdatedAt:      j.UpdatedAt(),
		PickedUpAt:     j.PickedUpAt(),
		DeliveredAt:    j.DeliveredAt(),
	}
	if driverID := j.DriverID(); driverID != nil {
		id := driverID.String()
		out.DriverID = &id
	}
	if p, ok := j.Parcel(); ok {
		out.Parcel = &Parcel{
			Size:           p.Size().String(),
			WeightKg:       p.WeightKg(),
			RecipientName:  p.RecipientName(),
			RecipientPhone: p.RecipientPhone(),
			Description:    p.Description(),
		}
	}
	if f, ok := j.Food(); ok {
		food := &Food{
			RestaurantID: f.RestaurantID().String(),
			Subtotal:     f.Subtotal(),
			Tax:          f.Tax(),
			Instructions: f.Instructions(),
		}
		for _, it := range f.Items() {
			food.Items = append(food.Items, LineItem{
				MenuItemID: it.MenuItemID().String(),
				Quantity:   it.Quantity(),
				UnitPrice:  it.UnitPrice(),
			})
		}
		out.Food = food
	}
	return out
}

func toJobs(jobs []*job.Job) []Job {
	out := make([]Job, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toJob(j))
	}
	return out
}

func toDriver(d *driver.Driver) Driver {
	out := Driver{
		ID:              d.ID().String(),
		Online:          d.Online(),
		TotalDeliveries: d.TotalDeliveries(),
	}
	for _, k := range d.Kinds() {
		out.Kinds = append(out.Kinds, k.String())
	}
	if loc, ok := d.Location(); ok {
		out.Location = &Location{Lat: loc.Lat(), Lng: loc.Lng()}
	}
	if jobID := d.ActiveJobID(); jobID != nil {
		id := jobID.String()
		out.ActiveJobID = &id
	}
	return out
}

func toReview(r *review.Review) Review {
	return Review{
		ID:         r.ID().String(),
		JobID:      r.JobID().String(),
		TargetType: r.TargetType().String(),
		TargetID:   r.TargetID().String(),
		Rating:     r.Rating(),
		Comment:    r.Comment(),
		CreatedAt:  r.CreatedAt(),
	}
}

func toSummary(s review.Summary) RatingSummary {
	return RatingSummary{
		TargetType: s.TargetType.String(),
		TargetID:   s.TargetID.String(),
		Count:      s.Count,
		Average:    s.Average,
	}
}
