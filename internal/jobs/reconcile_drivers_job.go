package jobs

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// DriverReconciler clears driver reservations whose job no longer needs
// them, such as those left behind by a crash between the two halves of a
// claim.
type DriverReconciler interface {
	ReconcileDrivers(ctx context.Context) (int, error)
}

type ReconcileDriversJob struct {
	reconciler DriverReconciler
	schedule   string
	cron       *cron.Cron
	logger     *slog.Logger
}

func NewReconcileDriversJob(reconciler DriverReconciler, cfg Config, logger *slog.Logger) *ReconcileDriversJob {
	logger = logger.With("component", "reconcile_drivers_job")
	return &ReconcileDriversJob{
		reconciler: reconciler,
		schedule:   cfg.ReconcileSchedule,
		cron:       newCron(logger),
		logger:     logger,
	}
}

func (j *ReconcileDriversJob) Run(ctx context.Context) {
	n, err := j.reconciler.ReconcileDrivers(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Driver reconciliation failed", "error", err, "released", n)
		return
	}
	if n > 0 {
		j.logger.WarnContext(ctx, "Released orphaned driver reservations", "released", n)
	}
}

func (j *ReconcileDriversJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, func() { j.Run(context.Background()) }); err != nil {
		return err
	}
	j.cron.Start()
	j.logger.Info("Reconcile drivers job started", "schedule", j.schedule)
	return nil
}

func (j *ReconcileDriversJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("Reconcile drivers job stopped")
}
