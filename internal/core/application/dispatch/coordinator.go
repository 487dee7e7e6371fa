package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/driver"
	"fulfillment/internal/core/domain/model/job"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/review"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

// Deps are the collaborators of the coordinator. Metrics, Notifier, Logger
// and Clock are optional.
type Deps struct {
	Jobs     ports.JobRepository
	Drivers  ports.DriverRepository
	Reviews  ports.ReviewRepository
	Catalog  ports.Catalog
	Fees     *services.FeeCalculator
	Notifier ports.Notifier
	Metrics  Metrics
	Logger   *slog.Logger
	Clock    func() time.Time
}

func (d Deps) validate() error {
	var errList []error
	if d.Jobs == nil {
		errList = append(errList, errs.NewValueIsRequiredError("jobs"))
	}
	if d.Drivers == nil {
		errList = append(errList, errs.NewValueIsRequiredError("drivers"))
	}
	if d.Reviews == nil {
		errList = append(errList, errs.NewValueIsRequiredError("reviews"))
	}
	if d.Catalog == nil {
		errList = append(errList, errs.NewValueIsRequiredError("catalog"))
	}
	if d.Fees == nil {
		errList = append(errList, errs.NewValueIsRequiredError("fees"))
	}
	return errors.Join(errList...)
}

// Coordinator is the entry point for every customer and driver action. It
// composes fee calculation, the availability registry, claim arbitration,
// the lifecycle and the review gate, and owns nothing but their order:
// fees are computed before a job is stored, claims always go through the
// arbiter, and reviews are only admitted for delivered jobs.
//
// Coordinator is safe for concurrent use.
type Coordinator struct {
	jobs     ports.JobRepository
	drivers  ports.DriverRepository
	catalog  ports.Catalog
	fees     *services.FeeCalculator
	ranker   services.DriverRanker
	notifier ports.Notifier
	metrics  Metrics
	now      func() time.Time
	logger   *slog.Logger
	cfg      Config

	registry  *AvailabilityRegistry
	arbiter   *ClaimArbiter
	lifecycle *Lifecycle
	reviews   *ReviewGate

	// suspects holds reservations that looked orphaned on the previous
	// reconciliation run, keyed by driver.
	suspectsMu sync.Mutex
	suspects   map[kernel.UUID]kernel.UUID
}

func NewCoordinator(deps Deps, cfg Config) (*Coordinator, error) {
	if err := errors.Join(deps.validate(), cfg.Validate()); err != nil {
		return nil, err
	}
	if deps.Metrics == nil {
		deps.Metrics = NoopMetrics{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}

	registry, err := NewAvailabilityRegistry(deps.Drivers, cfg.ProximityRadiusKm, deps.Logger)
	if err != nil {
		return nil, err
	}

	return &Coordinator{
		jobs:      deps.Jobs,
		drivers:   deps.Drivers,
		catalog:   deps.Catalog,
		fees:      deps.Fees,
		ranker:    services.NewDriverRanker(),
		notifier:  deps.Notifier,
		metrics:   deps.Metrics,
		now:       deps.Clock,
		logger:    deps.Logger.With("component", "coordinator"),
		cfg:       cfg,
		registry:  registry,
		arbiter:   NewClaimArbiter(deps.Jobs, deps.Drivers, deps.Metrics, deps.Clock, deps.Logger),
		lifecycle: NewLifecycle(deps.Jobs, deps.Drivers, deps.Notifier, deps.Metrics, cfg.FailurePolicy, deps.Clock, deps.Logger),
		reviews:   NewReviewGate(deps.Jobs, deps.Reviews, cfg.RatingBounds, deps.Clock, deps.Logger),
		suspects:  make(map[kernel.UUID]kernel.UUID),
	}, nil
}

// Registry exposes the availability registry, e.g. for offer previews.
func (c *Coordinator) Registry() *AvailabilityRegistry {
	return c.registry
}

// CreateParcelJob prices and stores a parcel job, then offers it to the
// nearest available drivers.
func (c *Coordinator) CreateParcelJob(ctx context.Context, cmd commands.CreateParcelJobCommand) (*job.Job, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	details := cmd.Details()
	fee, err := c.fees.ComputeFee(cmd.Pickup().Location, cmd.Dropoff().Location, services.FeeAttributes{
		Kind:     job.KindParcel,
		Size:     details.Size(),
		WeightKg: details.WeightKg(),
	})
	if err != nil {
		return nil, err
	}

	j, err := job.NewParcelJob(kernel.NewUUID(), cmd.CustomerID(), cmd.Pickup(), cmd.Dropoff(), details, fee, c.now())
	if err != nil {
		return nil, err
	}
	return c.create(ctx, j)
}

// CreateFoodJob prices an order from the catalog, computes the delivery fee
// from the restaurant to the customer and stores the job.
func (c *Coordinator) CreateFoodJob(ctx context.Context, cmd commands.CreateFoodJobCommand) (*job.Job, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	restaurant, err := c.catalog.GetRestaurant(ctx, cmd.RestaurantID())
	if err != nil {
		return nil, err
	}
	if !restaurant.Active {
		return nil, errs.NewValueIsInvalidErrorWithCause("restaurantID", errors.New("restaurant is not accepting orders"))
	}

	items := make([]job.LineItem, 0, len(cmd.Lines()))
	for _, line := range cmd.Lines() {
		menuItem, err := c.catalog.GetMenuItem(ctx, restaurant.ID, line.MenuItemID)
		if err != nil {
			return nil, err
		}
		if !menuItem.Available {
			return nil, errs.NewValueIsInvalidErrorWithCause("menuItemID",
				fmt.Errorf("%s is not available", menuItem.Name))
		}
		item, err := job.NewLineItem(menuItem.ID, line.Quantity, menuItem.Price)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	details, err := job.NewFoodDetails(restaurant.ID, items, c.cfg.FoodTaxRate, cmd.Instructions())
	if err != nil {
		return nil, err
	}
	pickup := job.Stop{Location: restaurant.Location, Address: restaurant.Address}
	fee, err := c.fees.ComputeFee(pickup.Location, cmd.Dropoff().Location, services.FeeAttributes{Kind: job.KindFood})
	if err != nil {
		return nil, err
	}

	j, err := job.NewFoodJob(kernel.NewUUID(), cmd.CustomerID(), pickup, cmd.Dropoff(), details, fee, c.now())
	if err != nil {
		return nil, err
	}
	return c.create(ctx, j)
}

func (c *Coordinator) create(ctx context.Context, j *job.Job) (*job.Job, error) {
	if err := c.jobs.Add(ctx, j); err != nil {
		return nil, err
	}
	c.metrics.FeeComputed(j.Kind(), j.Fee())
	c.logger.InfoContext(ctx, "job created",
		"job_id", j.ID().String(),
		"kind", j.Kind().String(),
		"distance_km", j.Fee().DistanceKm(),
		"fee", j.Fee().Total(),
	)
	c.offer(ctx, j)
	return j, nil
}

// offer notifies the nearest available drivers of a new job. The job is in
// the open pool either way, so failures are only logged.
func (c *Coordinator) offer(ctx context.Context, j *job.Job) {
	if c.notifier == nil || c.cfg.OfferFanout == 0 {
		return
	}

	pickup := j.Pickup().Location
	var nearby []*driver.Driver
	for d, err := range c.registry.ListAvailable(ctx, j.Kind(), &pickup) {
		if err != nil {
			c.logger.WarnContext(ctx, "listing drivers for offer failed", "job_id", j.ID().String(), "error", err)
			return
		}
		nearby = append(nearby, d)
	}

	ranked, err := c.ranker.Rank(pickup, nearby, c.cfg.OfferFanout)
	if errors.Is(err, services.ErrDriverNotFound) {
		c.logger.DebugContext(ctx, "no drivers nearby", "job_id", j.ID().String())
		return
	}
	if err != nil {
		c.logger.WarnContext(ctx, "ranking drivers failed", "job_id", j.ID().String(), "error", err)
		return
	}

	offer := ports.Offer{
		JobID:     j.ID(),
		Kind:      j.Kind(),
		Pickup:    pickup,
		Fee:       j.Fee().Total(),
		DriverIDs: make([]kernel.UUID, 0, len(ranked)),
		At:        c.now(),
	}
	for _, cand := range ranked {
		offer.DriverIDs = append(offer.DriverIDs, cand.Driver.ID())
	}
	if err := c.notifier.JobOffered(ctx, offer); err != nil {
		c.logger.WarnContext(ctx, "offer notification failed", "job_id", j.ID().String(), "error", err)
	}
}

// ListOpenJobs returns the claimable jobs of kind a driver may see. Drivers
// that are offline, busy or do not take the kind see nothing. When the
// driver's position is known only jobs picked up within the proximity
// radius are listed, and the page is cut from those.
func (c *Coordinator) ListOpenJobs(ctx context.Context, driverID kernel.UUID, kind job.Kind, page ports.Page) ([]*job.Job, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	d, err := c.drivers.Get(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if !c.registry.Eligible(d, kind) {
		return []*job.Job{}, nil
	}

	var near *ports.Area
	if loc, ok := d.Location(); ok {
		near = &ports.Area{Center: loc, RadiusKm: c.registry.RadiusKm()}
	}
	return c.jobs.ListOpen(ctx, kind, near, page)
}

// Accept claims a job for a driver through the arbiter.
func (c *Coordinator) Accept(ctx context.Context, driverID, jobID kernel.UUID) (*job.Job, error) {
	res, err := c.arbiter.Claim(ctx, jobID, driverID)
	if err != nil {
		return nil, err
	}
	c.lifecycle.publish(ctx, res.Change)
	return res.Job, nil
}

// UpdateStatus applies a driver event to a job the driver holds. Claims are
// not status updates and are rejected as illegal transitions.
func (c *Coordinator) UpdateStatus(ctx context.Context, driverID, jobID kernel.UUID, ev job.Event) (*job.Job, error) {
	return c.lifecycle.DriverEvent(ctx, driverID, jobID, ev)
}

// ReportFailedAttempt counts an unsuccessful delivery attempt.
func (c *Coordinator) ReportFailedAttempt(ctx context.Context, driverID, jobID kernel.UUID) (*job.Job, error) {
	return c.lifecycle.FailedAttempt(ctx, driverID, jobID)
}

// Cancel cancels a job for its customer or hands it back to the pool for its
// assigned driver.
func (c *Coordinator) Cancel(ctx context.Context, requesterID, jobID kernel.UUID) (*job.Job, error) {
	return c.lifecycle.Cancel(ctx, requesterID, jobID)
}

func (c *Coordinator) RegisterDriver(ctx context.Context, driverID kernel.UUID, kinds []job.Kind) (*driver.Driver, error) {
	return c.registry.Register(ctx, driverID, kinds)
}

func (c *Coordinator) SetAvailability(ctx context.Context, driverID kernel.UUID, online bool) (*driver.Driver, error) {
	return c.registry.SetAvailable(ctx, driverID, online)
}

// UpdateLocation records a position report. It reports false for reports
// older than the stored position.
func (c *Coordinator) UpdateLocation(ctx context.Context, cmd commands.UpdateLocationCommand) (bool, error) {
	if err := cmd.Validate(); err != nil {
		return false, err
	}
	// A report dated in the future would make every later report stale.
	if latest := c.now().Add(c.cfg.maxClockSkew()); cmd.ReportedAt().After(latest) {
		return false, errs.NewValueIsOutOfRangeError("reportedAt", cmd.ReportedAt(), "unbounded", latest)
	}
	return c.registry.UpdateLocation(ctx, cmd.DriverID(), cmd.Location(), cmd.ReportedAt())
}

// SubmitReview records a customer's review of a delivered job.
func (c *Coordinator) SubmitReview(ctx context.Context, cmd commands.SubmitReviewCommand) (*review.Review, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return c.reviews.RecordReview(ctx, cmd.AuthorID(), cmd.JobID(), cmd.TargetType(), cmd.Rating(), cmd.Comment())
}

// CanReview reports whether the job still accepts a review of targetType.
func (c *Coordinator) CanReview(ctx context.Context, jobID kernel.UUID, targetType review.TargetType) (bool, error) {
	return c.reviews.CanReview(ctx, jobID, targetType)
}

func (c *Coordinator) RatingSummary(ctx context.Context, targetType review.TargetType, targetID kernel.UUID) (review.Summary, error) {
	return c.reviews.RatingSummary(ctx, targetType, targetID)
}

func (c *Coordinator) GetJob(ctx context.Context, jobID kernel.UUID) (*job.Job, error) {
	return c.jobs.Get(ctx, jobID)
}

func (c *Coordinator) GetDriver(ctx context.Context, driverID kernel.UUID) (*driver.Driver, error) {
	return c.drivers.Get(ctx, driverID)
}

// CustomerJobs lists a customer's jobs, newest first.
func (c *Coordinator) CustomerJobs(ctx context.Context, customerID kernel.UUID, page ports.Page) ([]*job.Job, error) {
	return c.jobs.ListByCustomer(ctx, customerID, page)
}

// DriverCurrentJobs lists the jobs a driver is working on.
func (c *Coordinator) DriverCurrentJobs(ctx context.Context, driverID kernel.UUID) ([]*job.Job, error) {
	return c.jobs.ListActiveByDriver(ctx, driverID)
}

// ExpireStalePending fails up to limit jobs that have waited for a driver
// longer than olderThan. A job claimed while the sweep runs is left alone.
func (c *Coordinator) ExpireStalePending(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	cutoff := c.now().Add(-olderThan)
	stale, err := c.jobs.ListPendingBefore(ctx, cutoff, limit)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, j := range stale {
		updated, err := c.lifecycle.ExpirePending(ctx, j.ID(), cutoff)
		if err != nil {
			return expired, err
		}
		if updated.Status() == job.Failed {
			expired++
		}
	}
	return expired, nil
}

// ReconcileDrivers drops reservations that no longer match a job assignment,
// which is what a crash between the two halves of a claim leaves behind.
// Reservations for terminal or unknown jobs are dropped at once; a delivered
// job still held by its own driver is settled as a completed delivery, since
// the lifecycle may not have counted it yet. A reservation for a job that is
// merely not assigned to the driver may belong to a claim in flight, so it is
// dropped only if it is seen again on the next run.
func (c *Coordinator) ReconcileDrivers(ctx context.Context) (int, error) {
	holding, err := c.drivers.ListHoldingJobs(ctx)
	if err != nil {
		return 0, err
	}

	c.suspectsMu.Lock()
	previous := c.suspects
	c.suspects = make(map[kernel.UUID]kernel.UUID)
	c.suspectsMu.Unlock()

	released := 0
	for _, d := range holding {
		jobID := d.ActiveJobID()
		if jobID == nil {
			continue
		}

		verdict, err := c.orphaned(ctx, d.ID(), *jobID, previous)
		if err != nil {
			return released, err
		}
		if verdict == keepReservation {
			continue
		}

		var changed bool
		if _, err := c.drivers.Update(ctx, d.ID(), func(d *driver.Driver) error {
			if verdict == settleDelivery {
				changed = d.CompleteJob(*jobID)
			} else {
				changed = d.ReleaseJob(*jobID)
			}
			return nil
		}); err != nil {
			return released, err
		}
		if !changed {
			continue
		}
		released++
		if verdict == settleDelivery {
			c.logger.InfoContext(ctx, "settled delivered reservation",
				"driver_id", d.ID().String(), "job_id", jobID.String())
		} else {
			c.logger.WarnContext(ctx, "dropped orphaned reservation",
				"driver_id", d.ID().String(), "job_id", jobID.String())
		}
	}
	return released, nil
}

type reservationVerdict int

const (
	keepReservation reservationVerdict = iota
	dropReservation
	settleDelivery
)

func (c *Coordinator) orphaned(ctx context.Context, driverID, jobID kernel.UUID, previous map[kernel.UUID]kernel.UUID) (reservationVerdict, error) {
	j, err := c.jobs.Get(ctx, jobID)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return dropReservation, nil
	}
	if err != nil {
		return keepReservation, err
	}
	if j.Status() == job.Delivered && j.IsAssignedTo(driverID) {
		return settleDelivery, nil
	}
	if j.Status().IsTerminal() {
		return dropReservation, nil
	}
	if j.IsAssignedTo(driverID) && j.Status().HoldsDriver() {
		return keepReservation, nil
	}

	if seen, ok := previous[driverID]; ok && seen.IsEqual(jobID) {
		return dropReservation, nil
	}
	c.suspectsMu.Lock()
	c.suspects[driverID] = jobID
	c.suspectsMu.Unlock()
	return keepReservation, nil
}
