package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fulfillment/internal/core/domain/model/driver"
	"fulfillment/internal/core/domain/model/job"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

// ClaimResult is the accepted outcome of a claim.
type ClaimResult struct {
	Job    *job.Job
	Driver *driver.Driver
	Change job.StatusChanged
}

// ClaimArbiter turns concurrent accept requests for the same job into exactly
// one winner.
//
// A claim touches two aggregates but never locks both at once:
//  1. the driver is reserved under its own lock (DriverBusyError if it
//     already holds a job);
//  2. the job is compare-and-swapped from Pending to Accepted under the job's
//     lock (AlreadyClaimedError if someone else got there first);
//  3. if step 2 fails the reservation is dropped again.
//
// A crash between 1 and 3 leaves a reservation for a job the driver does not
// hold; Coordinator.ReconcileDrivers repairs it.
type ClaimArbiter struct {
	jobs    ports.JobRepository
	drivers ports.DriverRepository
	metrics Metrics
	now     func() time.Time
	logger  *slog.Logger
}

func NewClaimArbiter(
	jobs ports.JobRepository,
	drivers ports.DriverRepository,
	metrics Metrics,
	now func() time.Time,
	logger *slog.Logger,
) *ClaimArbiter {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ClaimArbiter{
		jobs:    jobs,
		drivers: drivers,
		metrics: metrics,
		now:     now,
		logger:  logger.With("component", "claim_arbiter"),
	}
}

// Claim assigns jobID to driverID if the job is still open and the driver is
// free. Losing a race is an ordinary outcome: it is counted and logged at
// debug level only.
//
// Returns:
//   - ClaimResult: the accepted job, the reserved driver and the transition
//   - error: errs.ObjectNotFoundError, driver.DriverBusyError,
//     job.AlreadyClaimedError or errs.ForbiddenError when the driver does not
//     take jobs of this kind
func (a *ClaimArbiter) Claim(ctx context.Context, jobID, driverID kernel.UUID) (ClaimResult, error) {
	current, err := a.jobs.Get(ctx, jobID)
	if err != nil {
		a.record(ctx, job.KindUnknown, jobID, driverID, err)
		return ClaimResult{}, err
	}
	kind := current.Kind()

	reserved, err := a.drivers.Update(ctx, driverID, func(d *driver.Driver) error {
		if !d.Accepts(kind) {
			return errs.NewForbiddenErrorWithCause(driverID, "claim job", fmt.Errorf("driver does not take %s jobs", kind))
		}
		return d.Reserve(jobID)
	})
	if err != nil {
		a.record(ctx, kind, jobID, driverID, err)
		return ClaimResult{}, err
	}

	var change job.StatusChanged
	claimed, err := a.jobs.Update(ctx, jobID, func(j *job.Job) error {
		var err error
		change, err = j.Claim(driverID, a.now())
		return err
	})
	if err != nil {
		a.compensate(ctx, jobID, driverID)
		a.record(ctx, kind, jobID, driverID, err)
		return ClaimResult{}, err
	}

	a.record(ctx, kind, jobID, driverID, nil)
	return ClaimResult{Job: claimed, Driver: reserved, Change: change}, nil
}

// compensate drops a reservation made for a claim that lost. It runs on a
// context detached from cancellation so an aborted request cannot leave the
// driver stuck.
func (a *ClaimArbiter) compensate(ctx context.Context, jobID, driverID kernel.UUID) {
	_, err := a.drivers.Update(context.WithoutCancel(ctx), driverID, func(d *driver.Driver) error {
		d.ReleaseJob(jobID)
		return nil
	})
	if err != nil {
		a.logger.ErrorContext(ctx, "failed to drop driver reservation",
			"job_id", jobID.String(), "driver_id", driverID.String(), "error", err)
	}
}

func (a *ClaimArbiter) record(ctx context.Context, kind job.Kind, jobID, driverID kernel.UUID, err error) {
	outcome := claimOutcome(err)
	a.metrics.ClaimResolved(kind, outcome)

	attrs := []any{"job_id", jobID.String(), "driver_id", driverID.String(), "outcome", string(outcome)}
	switch outcome {
	case ClaimAccepted:
		a.logger.InfoContext(ctx, "job claimed", attrs...)
	case ClaimError:
		a.logger.ErrorContext(ctx, "claim failed", append(attrs, "error", err)...)
	default:
		a.logger.DebugContext(ctx, "claim rejected", append(attrs, "reason", err)...)
	}
}

func claimOutcome(err error) ClaimOutcome {
	switch {
	case err == nil:
		return ClaimAccepted
	case errors.Is(err, job.ErrAlreadyClaimed):
		return ClaimAlreadyClaimed
	case errors.Is(err, driver.ErrDriverBusy):
		return ClaimDriverBusy
	case errors.Is(err, errs.ErrObjectNotFound):
		return ClaimNotFound
	case errors.Is(err, errs.ErrForbidden):
		return ClaimRejected
	default:
		return ClaimError
	}
}
