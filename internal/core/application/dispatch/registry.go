package dispatch

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"time"

	"fulfillment/internal/core/domain/model/driver"
	"fulfillment/internal/core/domain/model/job"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

// DefaultProximityRadiusKm limits offers and open-job listings to drivers
// this close to the pickup point.
const DefaultProximityRadiusKm = 10.0

// AvailabilityRegistry tracks which drivers may receive new jobs. It owns no
// state of its own: availability is derived from the driver aggregate, so an
// assigned driver can never be listed as available.
type AvailabilityRegistry struct {
	drivers  ports.DriverRepository
	radiusKm float64
	logger   *slog.Logger
}

// NewAvailabilityRegistry creates a registry. radiusKm must be positive.
func NewAvailabilityRegistry(drivers ports.DriverRepository, radiusKm float64, logger *slog.Logger) (*AvailabilityRegistry, error) {
	if drivers == nil {
		return nil, errs.NewValueIsRequiredError("drivers")
	}
	if radiusKm <= 0 {
		return nil, errs.NewValueIsInvalidError("radiusKm")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AvailabilityRegistry{
		drivers:  drivers,
		radiusKm: radiusKm,
		logger:   logger.With("component", "availability_registry"),
	}, nil
}

// RadiusKm returns the configured proximity radius.
func (r *AvailabilityRegistry) RadiusKm() float64 {
	return r.radiusKm
}

// Register is called at driver login. It creates the driver offline when
// unknown and otherwise replaces the accepted job kinds.
func (r *AvailabilityRegistry) Register(ctx context.Context, driverID kernel.UUID, kinds []job.Kind) (*driver.Driver, error) {
	d, err := r.drivers.Update(ctx, driverID, func(d *driver.Driver) error {
		return d.SetKinds(kinds)
	})
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, errs.ErrObjectNotFound) {
		return nil, err
	}

	d, err = driver.NewDriver(driverID, kinds)
	if err != nil {
		return nil, err
	}
	if err := r.drivers.Add(ctx, d); err != nil {
		if errors.Is(err, ports.ErrAlreadyExists) {
			// Lost a race with a concurrent login for the same driver.
			return r.Register(ctx, driverID, kinds)
		}
		return nil, err
	}
	r.logger.InfoContext(ctx, "driver registered", "driver_id", driverID.String())
	return d, nil
}

// SetAvailable toggles the online flag. Going offline never revokes an
// active job: it only hides the driver from new offers and claims listings.
func (r *AvailabilityRegistry) SetAvailable(ctx context.Context, driverID kernel.UUID, online bool) (*driver.Driver, error) {
	return r.drivers.Update(ctx, driverID, func(d *driver.Driver) error {
		d.SetOnline(online)
		return nil
	})
}

// UpdateLocation records a position report, last write wins by timestamp.
// It reports whether the report was newer than the stored one.
func (r *AvailabilityRegistry) UpdateLocation(ctx context.Context, driverID kernel.UUID, loc kernel.Location, at time.Time) (bool, error) {
	var applied bool
	_, err := r.drivers.Update(ctx, driverID, func(d *driver.Driver) error {
		var err error
		applied, err = d.UpdateLocation(loc, at)
		return err
	})
	if err != nil {
		return false, err
	}
	if !applied {
		r.logger.DebugContext(ctx, "stale location ignored", "driver_id", driverID.String(), "reported_at", at)
	}
	return applied, nil
}

// ListAvailable returns the drivers that could claim a job of the given kind
// right now. When near is set, drivers farther than the radius from it, or
// without a known location, are skipped.
//
// The sequence is lazy and restartable: every range re-reads the store, so
// a driver that goes offline between two iterations disappears from the
// second one.
func (r *AvailabilityRegistry) ListAvailable(ctx context.Context, kind job.Kind, near *kernel.Location) iter.Seq2[*driver.Driver, error] {
	return func(yield func(*driver.Driver, error) bool) {
		for d, err := range r.drivers.Available(ctx, kind) {
			if err != nil {
				yield(nil, err)
				return
			}
			if near != nil && !r.near(d, *near) {
				continue
			}
			if !yield(d, nil) {
				return
			}
		}
	}
}

// Eligible reports whether d may see and claim jobs of the given kind.
func (r *AvailabilityRegistry) Eligible(d *driver.Driver, kind job.Kind) bool {
	return d != nil && d.AvailableFor(kind)
}

func (r *AvailabilityRegistry) near(d *driver.Driver, point kernel.Location) bool {
	loc, ok := d.Location()
	return ok && loc.WithinKm(point, r.radiusKm)
}
