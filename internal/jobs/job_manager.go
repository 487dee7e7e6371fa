package jobs

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fulfillment/internal/pkg/errs"

	"github.com/robfig/cron/v3"
)

// Config schedules the background jobs. Schedules use the six-field cron
// syntax with seconds.
type Config struct {
	PendingTTL        time.Duration
	ExpireBatch       int
	ExpireSchedule    string
	ReconcileSchedule string
}

func DefaultConfig() Config {
	return Config{
		PendingTTL:        30 * time.Minute,
		ExpireBatch:       100,
		ExpireSchedule:    "*/30 * * * * *",
		ReconcileSchedule: "0 * * * * *",
	}
}

func (c Config) Validate() error {
	var errList []error
	if c.PendingTTL <= 0 {
		errList = append(errList, errs.NewValueIsOutOfRangeError("pendingTTL", c.PendingTTL, "0s", "unbounded"))
	}
	if c.ExpireBatch < 1 {
		errList = append(errList, errs.NewValueIsOutOfRangeError("expireBatch", c.ExpireBatch, 1, "unbounded"))
	}
	for name, spec := range map[string]string{
		"expireSchedule":    c.ExpireSchedule,
		"reconcileSchedule": c.ReconcileSchedule,
	} {
		if _, err := cronParser.Parse(spec); err != nil {
			errList = append(errList, errs.NewValueIsInvalidErrorWithCause(name, err))
		}
	}
	return errors.Join(errList...)
}

var cronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// newCron builds a scheduler that skips a tick while the previous run of
// the same job is still going.
func newCron(logger *slog.Logger) *cron.Cron {
	cl := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelWarn))
	return cron.New(
		cron.WithParser(cronParser),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
}

// Maintainer is what the background jobs need from the dispatch core.
type Maintainer interface {
	PendingExpirer
	DriverReconciler
}

// JobManager starts and stops every scheduled job together.
type JobManager struct {
	expirePending    *ExpirePendingJobsJob
	reconcileDrivers *ReconcileDriversJob
}

func NewJobManager(core Maintainer, cfg Config, logger *slog.Logger) (*JobManager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &JobManager{
		expirePending:    NewExpirePendingJobsJob(core, cfg, logger),
		reconcileDrivers: NewReconcileDriversJob(core, cfg, logger),
	}, nil
}

// StartAll starts every job. When one fails to start the ones already
// running are stopped.
func (jm *JobManager) StartAll() error {
	if err := jm.expirePending.Start(); err != nil {
		return fmt.Errorf("failed to start expire pending jobs job: %w", err)
	}

	if err := jm.reconcileDrivers.Start(); err != nil {
		jm.expirePending.Stop()
		return fmt.Errorf("failed to start reconcile drivers job: %w", err)
	}

	return nil
}

func (jm *JobManager) StopAll() {
	jm.reconcileDrivers.Stop()
	jm.expirePending.Stop()
}
