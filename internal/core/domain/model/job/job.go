package job

import (
	"errors"
	"fmt"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

// Stop is one end of a delivery: a validated location plus the free-form
// address shown to the driver.
type Stop struct {
	Location kernel.Location
	Address  string
}

// StatusChanged records one applied transition. It is what the lifecycle
// hands to notifiers and metrics after the job's lock is released.
type StatusChanged struct {
	JobID      kernel.UUID
	Kind       Kind
	CustomerID kernel.UUID
	// DriverID is the driver involved in the transition, nil while unassigned.
	DriverID *kernel.UUID
	From     Status
	To       Status
	Event    Event
	At       time.Time
}

// Job is the aggregate root for one delivery request. Food orders and parcels
// share the lifecycle; Kind selects which payload is present.
//
// Job follows these invariants:
//   - Must have valid identifiers, stops and fee
//   - Exactly one of ParcelDetails/FoodDetails is present, matching Kind
//   - Pending jobs have no driver; Accepted, PickedUp, EnRoute and Delivered
//     jobs have one
//   - Status changes only through the methods below, each checked against the
//     transition table
//   - The fee is never replaced after construction
//
// Job is not safe for concurrent use. Stores serialize access per job and
// hand mutation callbacks a Clone so a failed mutation leaves no trace.
type Job struct {
	id             kernel.UUID
	kind           Kind
	customerID     kernel.UUID
	driverID       *kernel.UUID
	status         Status
	pickup         Stop
	dropoff        Stop
	fee            Fee
	parcel         *ParcelDetails
	food           *FoodDetails
	failedAttempts int
	createdAt      time.Time
	updatedAt      time.Time
	pickedUpAt     *time.Time
	deliveredAt    *time.Time
	guard          guard.ConstructorGuard
}

// NewParcelJob creates a Pending parcel job.
//
// Parameters:
//   - id: identifier of the new job
//   - customerID: the sender, the only party allowed to cancel or review
//   - pickup, dropoff: validated stops
//   - details: parcel payload
//   - fee: the breakdown computed from the same stops
//   - now: creation time
//
// Returns:
//   - *Job: the Pending job
//   - error: joined validation errors for every invalid argument
//
// Example:
//
//	fee, _ := calculator.ComputeFee(pickup.Location, dropoff.Location, services.FeeAttributes{Kind: job.KindParcel, Size: job.SizeSmall})
//	j, err := job.NewParcelJob(kernel.NewUUID(), customerID, pickup, dropoff, details, fee, time.Now())
func NewParcelJob(
	id kernel.UUID,
	customerID kernel.UUID,
	pickup Stop,
	dropoff Stop,
	details ParcelDetails,
	fee Fee,
	now time.Time,
) (*Job, error) {
	if err := details.size.Validate(); err != nil {
		return nil, err
	}
	return newJob(id, KindParcel, customerID, pickup, dropoff, fee, now, &details, nil)
}

// NewFoodJob creates a Pending food job. pickup is the restaurant.
func NewFoodJob(
	id kernel.UUID,
	customerID kernel.UUID,
	pickup Stop,
	dropoff Stop,
	details FoodDetails,
	fee Fee,
	now time.Time,
) (*Job, error) {
	if err := details.restaurantID.Validate(); err != nil {
		return nil, err
	}
	return newJob(id, KindFood, customerID, pickup, dropoff, fee, now, nil, &details)
}

func newJob(
	id kernel.UUID,
	kind Kind,
	customerID kernel.UUID,
	pickup Stop,
	dropoff Stop,
	fee Fee,
	now time.Time,
	parcel *ParcelDetails,
	food *FoodDetails,
) (*Job, error) {
	j := &Job{
		kind:      kind,
		status:    Pending,
		parcel:    parcel,
		food:      food,
		createdAt: now,
		updatedAt: now,
		guard:     guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		j.setID(id),
		j.setCustomer(customerID),
		j.setStops(pickup, dropoff),
		j.setFee(fee),
	); err != nil {
		return nil, err
	}

	return j, nil
}

// RestoreParams carries a persisted job back into the domain.
type RestoreParams struct {
	ID             kernel.UUID
	Kind           Kind
	CustomerID     kernel.UUID
	DriverID       *kernel.UUID
	Status         Status
	Pickup         Stop
	Dropoff        Stop
	Fee            Fee
	Parcel         *ParcelDetails
	Food           *FoodDetails
	FailedAttempts int
	CreatedAt      time.Time
	UpdatedAt      time.Time
	PickedUpAt     *time.Time
	DeliveredAt    *time.Time
}

// RestoreJob rebuilds a job read by a persistence adapter. It validates the
// same invariants as the constructors plus the status/driver consistency, and
// never recomputes the fee.
func RestoreJob(p RestoreParams) (*Job, error) {
	j := &Job{
		kind:           p.Kind,
		status:         p.Status,
		driverID:       copyUUID(p.DriverID),
		failedAttempts: p.FailedAttempts,
		createdAt:      p.CreatedAt,
		updatedAt:      p.UpdatedAt,
		pickedUpAt:     copyTime(p.PickedUpAt),
		deliveredAt:    copyTime(p.DeliveredAt),
		guard:          guard.NewConstructorGuard(),
	}
	if p.Parcel != nil {
		parcel := *p.Parcel
		j.parcel = &parcel
	}
	if p.Food != nil {
		food := *p.Food
		food.items = append([]LineItem(nil), food.items...)
		j.food = &food
	}

	if err := errors.Join(
		j.setID(p.ID),
		j.setCustomer(p.CustomerID),
		j.setStops(p.Pickup, p.Dropoff),
		j.setFee(p.Fee),
		j.validateShape(),
	); err != nil {
		return nil, err
	}

	return j, nil
}

// Validate ensures the Job was built by a constructor.
func (j *Job) Validate() error {
	if j == nil {
		return ErrJobIsNotConstructed
	}
	return j.guard.Validate(ErrJobIsNotConstructed)
}

// Clone returns a deep copy.
func (j *Job) Clone() *Job {
	c := *j
	c.driverID = copyUUID(j.driverID)
	c.pickedUpAt = copyTime(j.pickedUpAt)
	c.deliveredAt = copyTime(j.deliveredAt)
	if j.parcel != nil {
		parcel := *j.parcel
		parcel.weightKg = parcel.WeightKg()
		c.parcel = &parcel
	}
	if j.food != nil {
		food := *j.food
		food.items = food.Items()
		c.food = &food
	}
	return &c
}

func (j *Job) ID() kernel.UUID         { return j.id }
func (j *Job) Kind() Kind              { return j.kind }
func (j *Job) CustomerID() kernel.UUID { return j.customerID }
func (j *Job) Status() Status          { return j.status }
func (j *Job) Pickup() Stop            { return j.pickup }
func (j *Job) Dropoff() Stop           { return j.dropoff }
func (j *Job) Fee() Fee                { return j.fee }
func (j *Job) FailedAttempts() int     { return j.failedAttempts }
func (j *Job) CreatedAt() time.Time    { return j.createdAt }
func (j *Job) UpdatedAt() time.Time    { return j.updatedAt }

// DriverID returns the assigned driver, nil while the job is unassigned.
func (j *Job) DriverID() *kernel.UUID { return copyUUID(j.driverID) }

func (j *Job) PickedUpAt() *time.Time  { return copyTime(j.pickedUpAt) }
func (j *Job) DeliveredAt() *time.Time { return copyTime(j.deliveredAt) }

// Parcel returns the parcel payload; ok is false for food jobs.
func (j *Job) Parcel() (ParcelDetails, bool) {
	if j.parcel == nil {
		return ParcelDetails{}, false
	}
	return *j.parcel, true
}

// Food returns the food payload; ok is false for parcel jobs.
func (j *Job) Food() (FoodDetails, bool) {
	if j.food == nil {
		return FoodDetails{}, false
	}
	return *j.food, true
}

// Total is what the customer pays: the fee, plus subtotal and tax for food.
func (j *Job) Total() float64 {
	if j.food != nil {
		return RoundCents(j.food.subtotal + j.food.tax + j.fee.total)
	}
	return j.fee.total
}

// IsOpen reports whether the job is in the claimable pool.
func (j *Job) IsOpen() bool {
	return j.status == Pending && j.driverID == nil
}

// IsAssignedTo reports whether driverID holds this job.
func (j *Job) IsAssignedTo(driverID kernel.UUID) bool {
	return j.driverID != nil && j.driverID.IsEqual(driverID)
}

// IsReviewable reports whether reviews may be recorded for the job.
func (j *Job) IsReviewable() bool {
	return j.status == Delivered
}

// Claim assigns the job to driverID. It is the compare-and-swap at the heart
// of claim arbitration: it succeeds only for a Pending job without a driver.
//
// Returns:
//   - StatusChanged: Pending to Accepted
//   - error: AlreadyClaimedError when the job is not open
func (j *Job) Claim(driverID kernel.UUID, at time.Time) (StatusChanged, error) {
	if err := driverID.Validate(); err != nil {
		return StatusChanged{}, err
	}
	if !j.IsOpen() {
		return StatusChanged{}, &AlreadyClaimedError{JobID: j.id, Status: j.status}
	}

	changed, err := j.transition(EventClaim, at)
	if err != nil {
		return StatusChanged{}, err
	}
	j.driverID = &driverID
	changed.DriverID = copyUUID(j.driverID)
	return changed, nil
}

// Release gives an Accepted job back to the pool. The assignment is cleared
// and the job becomes claimable again.
func (j *Job) Release(driverID kernel.UUID, at time.Time) (StatusChanged, error) {
	if err := j.checkDriver(driverID, "release job"); err != nil {
		return StatusChanged{}, err
	}
	changed, err := j.transition(EventRelease, at)
	if err != nil {
		return StatusChanged{}, err
	}
	j.driverID = nil
	return changed, nil
}

// PickUp records that the assigned driver collected the goods.
func (j *Job) PickUp(driverID kernel.UUID, at time.Time) (StatusChanged, error) {
	if err := j.checkDriver(driverID, "pick up job"); err != nil {
		return StatusChanged{}, err
	}
	changed, err := j.transition(EventPickUp, at)
	if err != nil {
		return StatusChanged{}, err
	}
	j.pickedUpAt = &at
	return changed, nil
}

// Depart moves a picked-up job en route. The step is optional: Deliver is
// legal straight from PickedUp.
func (j *Job) Depart(driverID kernel.UUID, at time.Time) (StatusChanged, error) {
	if err := j.checkDriver(driverID, "depart with job"); err != nil {
		return StatusChanged{}, err
	}
	return j.transition(EventDepart, at)
}

// Deliver completes the job and makes it reviewable.
func (j *Job) Deliver(driverID kernel.UUID, at time.Time) (StatusChanged, error) {
	if err := j.checkDriver(driverID, "deliver job"); err != nil {
		return StatusChanged{}, err
	}
	changed, err := j.transition(EventDeliver, at)
	if err != nil {
		return StatusChanged{}, err
	}
	j.deliveredAt = &at
	return changed, nil
}

// Cancel withdraws the job on behalf of its customer. Only Pending and
// Accepted jobs can be cancelled; the driver reference is kept for the record.
func (j *Job) Cancel(requesterID kernel.UUID, at time.Time) (StatusChanged, error) {
	if !j.customerID.IsEqual(requesterID) {
		return StatusChanged{}, errs.NewForbiddenError(requesterID, "cancel job")
	}
	return j.transition(EventCancel, at)
}

// Fail marks the job as an irrecoverable delivery failure. It is legal from
// every non-terminal state.
func (j *Job) Fail(at time.Time) (StatusChanged, error) {
	return j.transition(EventFail, at)
}

// RecordFailedAttempt counts one unsuccessful delivery attempt by the
// assigned driver. When the policy is exhausted the job fails.
//
// Returns:
//   - StatusChanged: the Failed transition, zero when the job stays open
//   - bool: true when the job failed
//   - error: ForbiddenError for other drivers, IllegalTransitionError unless
//     the goods are with the driver (PickedUp or EnRoute)
func (j *Job) RecordFailedAttempt(driverID kernel.UUID, policy FailurePolicy, at time.Time) (StatusChanged, bool, error) {
	if err := j.checkDriver(driverID, "report delivery attempt"); err != nil {
		return StatusChanged{}, false, err
	}
	if j.status != PickedUp && j.status != EnRoute {
		return StatusChanged{}, false, &IllegalTransitionError{JobID: j.id, From: j.status, Event: EventFail}
	}

	j.failedAttempts++
	j.updatedAt = at
	if !policy.Exhausted(j.failedAttempts) {
		return StatusChanged{}, false, nil
	}

	changed, err := j.transition(EventFail, at)
	if err != nil {
		return StatusChanged{}, false, err
	}
	return changed, true, nil
}

// ApplyDriverEvent routes a driver-reported event to its method. Claims are
// rejected here: they go through claim arbitration only.
func (j *Job) ApplyDriverEvent(driverID kernel.UUID, ev Event, at time.Time) (StatusChanged, error) {
	switch ev {
	case EventRelease:
		return j.Release(driverID, at)
	case EventPickUp:
		return j.PickUp(driverID, at)
	case EventDepart:
		return j.Depart(driverID, at)
	case EventDeliver:
		return j.Deliver(driverID, at)
	default:
		return StatusChanged{}, &IllegalTransitionError{JobID: j.id, From: j.status, Event: ev}
	}
}

func (j *Job) transition(ev Event, at time.Time) (StatusChanged, error) {
	to, err := j.status.Next(ev)
	if err != nil {
		return StatusChanged{}, &IllegalTransitionError{JobID: j.id, From: j.status, Event: ev}
	}

	changed := StatusChanged{
		JobID:      j.id,
		Kind:       j.kind,
		CustomerID: j.customerID,
		DriverID:   copyUUID(j.driverID),
		From:       j.status,
		To:         to,
		Event:      ev,
		At:         at,
	}
	j.status = to
	j.updatedAt = at
	return changed, nil
}

func (j *Job) checkDriver(driverID kernel.UUID, action string) error {
	if !j.IsAssignedTo(driverID) {
		return errs.NewForbiddenErrorWithCause(driverID, action, fmt.Errorf("job %s is not assigned to this driver", j.id))
	}
	return nil
}

func (j *Job) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	j.id = id
	return nil
}

func (j *Job) setCustomer(customerID kernel.UUID) error {
	if err := customerID.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("customerID", err)
	}
	j.customerID = customerID
	return nil
}

func (j *Job) setStops(pickup, dropoff Stop) error {
	if err := errors.Join(pickup.Location.Validate(), dropoff.Location.Validate()); err != nil {
		return err
	}
	j.pickup = pickup
	j.dropoff = dropoff
	return nil
}

func (j *Job) setFee(fee Fee) error {
	if err := fee.Validate(); err != nil {
		return err
	}
	j.fee = fee
	return nil
}

func (j *Job) validateShape() error {
	var errList []error
	if err := j.kind.Validate(); err != nil {
		errList = append(errList, err)
	}
	if err := j.status.Validate(); err != nil {
		errList = append(errList, err)
	}
	if (j.kind == KindParcel) != (j.parcel != nil) || (j.kind == KindFood) != (j.food != nil) {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("payload", fmt.Errorf("payload does not match kind %s", j.kind)))
	}
	if j.status.HoldsDriver() && j.driverID == nil {
		errList = append(errList, errs.NewValueIsRequiredErrorWithCause("driverID", fmt.Errorf("%s jobs must have a driver", j.status)))
	}
	if j.status == Pending && j.driverID != nil {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("driverID", errors.New("pending jobs must not have a driver")))
	}
	if j.failedAttempts < 0 {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("failedAttempts", fmt.Errorf("%d is negative", j.failedAttempts)))
	}
	return errors.Join(errList...)
}

func copyUUID(id *kernel.UUID) *kernel.UUID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
