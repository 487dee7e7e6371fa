package driver

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"fulfillment/internal/core/domain/model/job"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var (
	// ErrDriverBusy is the sentinel for claims by a driver who already holds a
	// job.
	ErrDriverBusy = errors.New("driver busy")

	ErrDriverIsNotConstructed = errors.New("Driver must be created via NewDriver or RestoreDriver")
)

// DriverBusyError names the job the driver is still holding.
type DriverBusyError struct {
	DriverID    kernel.UUID
	ActiveJobID kernel.UUID
}

func (e *DriverBusyError) Error() string {
	return fmt.Sprintf("%s: driver %s holds job %s", ErrDriverBusy, e.DriverID, e.ActiveJobID)
}

func (e *DriverBusyError) Unwrap() error {
	return ErrDriverBusy
}

// Driver is the aggregate root for a driver in the dispatch pool.
//
// Driver follows these invariants:
//   - Must have a valid identifier and at least one accepted kind
//   - activeJobID is set only by Reserve and cleared only by ReleaseJob or
//     CompleteJob for the same job
//   - Location only moves forward in time
type Driver struct {
	id              kernel.UUID
	online          bool
	location        *kernel.Location
	locationAt      time.Time
	activeJobID     *kernel.UUID
	kinds           []job.Kind
	totalDeliveries int
	guard           guard.ConstructorGuard
}

// NewDriver registers an offline driver without a known position.
//
// Parameters:
//   - id: the identity issued by the auth service
//   - kinds: the job kinds the driver's vehicle can carry
//
// Example:
//
//	d, err := driver.NewDriver(driverID, []job.Kind{job.KindFood, job.KindParcel})
func NewDriver(id kernel.UUID, kinds []job.Kind) (*Driver, error) {
	d := &Driver{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(d.setID(id), d.SetKinds(kinds)); err != nil {
		return nil, err
	}

	return d, nil
}

// RestoreParams carries a persisted driver back into the domain.
type RestoreParams struct {
	ID              kernel.UUID
	Online          bool
	Location        *kernel.Location
	LocationAt      time.Time
	ActiveJobID     *kernel.UUID
	Kinds           []job.Kind
	TotalDeliveries int
}

func RestoreDriver(p RestoreParams) (*Driver, error) {
	d := &Driver{
		online:          p.Online,
		locationAt:      p.LocationAt,
		totalDeliveries: p.TotalDeliveries,
		guard:           guard.NewConstructorGuard(),
	}
	if p.Location != nil {
		loc := *p.Location
		d.location = &loc
	}
	if p.ActiveJobID != nil {
		id := *p.ActiveJobID
		d.activeJobID = &id
	}

	var errList []error
	errList = append(errList, d.setID(p.ID), d.SetKinds(p.Kinds))
	if d.location != nil {
		errList = append(errList, d.location.Validate())
	}
	if p.TotalDeliveries < 0 {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("totalDeliveries", fmt.Errorf("%d is negative", p.TotalDeliveries)))
	}
	if err := errors.Join(errList...); err != nil {
		return nil, err
	}

	return d, nil
}

func (d *Driver) Validate() error {
	if d == nil {
		return ErrDriverIsNotConstructed
	}
	return d.guard.Validate(ErrDriverIsNotConstructed)
}

// Clone returns a deep copy.
func (d *Driver) Clone() *Driver {
	c := *d
	c.kinds = slices.Clone(d.kinds)
	if d.location != nil {
		loc := *d.location
		c.location = &loc
	}
	if d.activeJobID != nil {
		id := *d.activeJobID
		c.activeJobID = &id
	}
	return &c
}

func (d *Driver) ID() kernel.UUID       { return d.id }
func (d *Driver) Online() bool          { return d.online }
func (d *Driver) LocationAt() time.Time { return d.locationAt }
func (d *Driver) Kinds() []job.Kind     { return slices.Clone(d.kinds) }
func (d *Driver) TotalDeliveries() int  { return d.totalDeliveries }
func (d *Driver) HasActiveJob() bool    { return d.activeJobID != nil }

// Accepts reports whether the driver's vehicle can carry kind.
func (d *Driver) Accepts(kind job.Kind) bool {
	return slices.Contains(d.kinds, kind)
}

// Location returns the last reported position; ok is false until the first
// update arrives.
func (d *Driver) Location() (kernel.Location, bool) {
	if d.location == nil {
		return kernel.Location{}, false
	}
	return *d.location, true
}

// ActiveJobID returns the held job, nil when the driver is free.
func (d *Driver) ActiveJobID() *kernel.UUID {
	if d.activeJobID == nil {
		return nil
	}
	id := *d.activeJobID
	return &id
}

// Available reports whether the driver may claim jobs: online and free.
func (d *Driver) Available() bool {
	return d.online && d.activeJobID == nil
}

// AvailableFor adds the capability check to Available.
func (d *Driver) AvailableFor(kind job.Kind) bool {
	return d.Available() && d.Accepts(kind)
}

// SetOnline toggles presence. Going offline keeps any active job.
func (d *Driver) SetOnline(online bool) {
	d.online = online
}

// SetKinds replaces the accepted kinds.
func (d *Driver) SetKinds(kinds []job.Kind) error {
	if len(kinds) == 0 {
		return errs.NewValueIsRequiredError("kinds")
	}
	var errList []error
	for _, k := range kinds {
		errList = append(errList, k.Validate())
	}
	if err := errors.Join(errList...); err != nil {
		return err
	}
	unique := slices.Clone(kinds)
	slices.Sort(unique)
	d.kinds = slices.Compact(unique)
	return nil
}

// UpdateLocation records a position report. Reports older than the current
// one are ignored so a delayed update never moves the driver backwards.
//
// Returns:
//   - bool: whether the report was applied
//   - error: the location's validation error
func (d *Driver) UpdateLocation(loc kernel.Location, at time.Time) (bool, error) {
	if err := loc.Validate(); err != nil {
		return false, err
	}
	if d.location != nil && at.Before(d.locationAt) {
		return false, nil
	}
	d.location = &loc
	d.locationAt = at
	return true, nil
}

// Reserve marks jobID as the driver's active job. It is the first half of a
// claim and fails without side effects when the driver already holds a job.
func (d *Driver) Reserve(jobID kernel.UUID) error {
	if err := jobID.Validate(); err != nil {
		return err
	}
	if d.activeJobID != nil {
		return &DriverBusyError{DriverID: d.id, ActiveJobID: *d.activeJobID}
	}
	d.activeJobID = &jobID
	return nil
}

// ReleaseJob clears the assignment if jobID is the active job. It reports
// whether anything changed, so repeated clean-ups are harmless.
func (d *Driver) ReleaseJob(jobID kernel.UUID) bool {
	if d.activeJobID == nil || !d.activeJobID.IsEqual(jobID) {
		return false
	}
	d.activeJobID = nil
	return true
}

// CompleteJob clears the assignment of a delivered job and counts the
// delivery.
func (d *Driver) CompleteJob(jobID kernel.UUID) bool {
	if !d.ReleaseJob(jobID) {
		return false
	}
	d.totalDeliveries++
	return true
}

func (d *Driver) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	d.id = id
	return nil
}
