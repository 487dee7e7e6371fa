package ports

import (
	"context"
	"time"

	"fulfillment/internal/core/domain/model/job"
	"fulfillment/internal/core/domain/model/kernel"
)

// Offer announces a new job to the nearest available drivers.
type Offer struct {
	JobID     kernel.UUID
	Kind      job.Kind
	Pickup    kernel.Location
	Fee       float64
	DriverIDs []kernel.UUID
	At        time.Time
}

// Notifier receives lifecycle events after the state change is committed.
// Delivery is best effort: callers log failures and carry on.
type Notifier interface {
	JobStatusChanged(ctx context.Context, changed job.StatusChanged) error
	JobOffered(ctx context.Context, offer Offer) error
}
