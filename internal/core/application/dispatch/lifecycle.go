package dispatch

import (
	"context"
	"log/slog"
	"time"

	"fulfillment/internal/core/domain/model/driver"
	"fulfillment/internal/core/domain/model/job"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"
)

// transitionFunc applies at most one transition to j. A zero StatusChanged
// means the job was updated without changing status.
type transitionFunc func(j *job.Job, at time.Time) (job.StatusChanged, error)

// Lifecycle applies status transitions. The job's lock is held only while
// the transition is validated and applied; the driver is settled and the
// event published afterwards.
type Lifecycle struct {
	jobs     ports.JobRepository
	drivers  ports.DriverRepository
	notifier ports.Notifier
	metrics  Metrics
	policy   job.FailurePolicy
	now      func() time.Time
	logger   *slog.Logger
}

func NewLifecycle(
	jobs ports.JobRepository,
	drivers ports.DriverRepository,
	notifier ports.Notifier,
	metrics Metrics,
	policy job.FailurePolicy,
	now func() time.Time,
	logger *slog.Logger,
) *Lifecycle {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Lifecycle{
		jobs:     jobs,
		drivers:  drivers,
		notifier: notifier,
		metrics:  metrics,
		policy:   policy,
		now:      now,
		logger:   logger.With("component", "lifecycle"),
	}
}

// DriverEvent applies a driver-reported event (release, pick up, depart,
// deliver) to a job assigned to driverID.
func (l *Lifecycle) DriverEvent(ctx context.Context, driverID, jobID kernel.UUID, ev job.Event) (*job.Job, error) {
	return l.apply(ctx, jobID, func(j *job.Job, at time.Time) (job.StatusChanged, error) {
		return j.ApplyDriverEvent(driverID, ev, at)
	})
}

// Cancel withdraws a job. The customer cancels it for good; the assigned
// driver only gives it back to the pool.
func (l *Lifecycle) Cancel(ctx context.Context, requesterID, jobID kernel.UUID) (*job.Job, error) {
	return l.apply(ctx, jobID, func(j *job.Job, at time.Time) (job.StatusChanged, error) {
		if j.IsAssignedTo(requesterID) && !j.CustomerID().IsEqual(requesterID) {
			return j.Release(requesterID, at)
		}
		return j.Cancel(requesterID, at)
	})
}

// FailedAttempt counts a failed delivery attempt and fails the job once the
// failure policy is exhausted.
func (l *Lifecycle) FailedAttempt(ctx context.Context, driverID, jobID kernel.UUID) (*job.Job, error) {
	return l.apply(ctx, jobID, func(j *job.Job, at time.Time) (job.StatusChanged, error) {
		changed, _, err := j.RecordFailedAttempt(driverID, l.policy, at)
		return changed, err
	})
}

// Fail marks a job as failed regardless of who holds it.
func (l *Lifecycle) Fail(ctx context.Context, jobID kernel.UUID) (*job.Job, error) {
	return l.apply(ctx, jobID, func(j *job.Job, at time.Time) (job.StatusChanged, error) {
		return j.Fail(at)
	})
}

func (l *Lifecycle) apply(ctx context.Context, jobID kernel.UUID, fn transitionFunc) (*job.Job, error) {
	var changed job.StatusChanged
	updated, err := l.jobs.Update(ctx, jobID, func(j *job.Job) error {
		var err error
		changed, err = fn(j, l.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	if changed.To == job.Unknown {
		return updated, nil
	}

	l.settleDriver(ctx, changed)
	l.publish(ctx, changed)
	return updated, nil
}

// settleDriver frees the driver after a transition that ends the
// assignment. A failure here leaves a stale reservation that the reconciler
// removes later, so it is logged rather than returned.
func (l *Lifecycle) settleDriver(ctx context.Context, changed job.StatusChanged) {
	if changed.DriverID == nil {
		return
	}

	var settle func(d *driver.Driver) bool
	switch {
	case changed.To == job.Delivered:
		settle = func(d *driver.Driver) bool { return d.CompleteJob(changed.JobID) }
	case changed.To == job.Cancelled, changed.To == job.Failed, changed.Event == job.EventRelease:
		settle = func(d *driver.Driver) bool { return d.ReleaseJob(changed.JobID) }
	default:
		return
	}

	var released bool
	_, err := l.drivers.Update(context.WithoutCancel(ctx), *changed.DriverID, func(d *driver.Driver) error {
		released = settle(d)
		return nil
	})
	if err != nil {
		l.logger.ErrorContext(ctx, "failed to release driver",
			"job_id", changed.JobID.String(), "driver_id", changed.DriverID.String(), "error", err)
		return
	}
	if !released {
		l.logger.WarnContext(ctx, "driver did not hold the job",
			"job_id", changed.JobID.String(), "driver_id", changed.DriverID.String())
	}
}

// publish reports a committed transition. Notifier errors never fail the
// operation that caused them.
func (l *Lifecycle) publish(ctx context.Context, changed job.StatusChanged) {
	l.metrics.StatusChanged(changed)
	l.logger.InfoContext(ctx, "job status changed",
		"job_id", changed.JobID.String(),
		"from", changed.From.String(),
		"to", changed.To.String(),
		"event", changed.Event.String(),
	)
	if l.notifier == nil {
		return
	}
	if err := l.notifier.JobStatusChanged(ctx, changed); err != nil {
		l.logger.WarnContext(ctx, "status notification failed", "job_id", changed.JobID.String(), "error", err)
	}
}

// ExpirePending fails the job if it is still open and was created before
// cutoff. Otherwise the job is returned unchanged.
func (l *Lifecycle) ExpirePending(ctx context.Context, jobID kernel.UUID, cutoff time.Time) (*job.Job, error) {
	return l.apply(ctx, jobID, func(j *job.Job, at time.Time) (job.StatusChanged, error) {
		if !j.IsOpen() || !j.CreatedAt().Before(cutoff) {
			return job.StatusChanged{}, nil
		}
		return j.Fail(at)
	})
}
