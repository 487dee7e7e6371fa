package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// PendingExpirer fails Pending jobs nobody claimed in time.
type PendingExpirer interface {
	ExpireStalePending(ctx context.Context, olderThan time.Duration, limit int) (int, error)
}

// ExpirePendingJobsJob periodically fails jobs that stayed Pending longer
// than the configured TTL.
type ExpirePendingJobsJob struct {
	expirer  PendingExpirer
	ttl      time.Duration
	batch    int
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger
}

func NewExpirePendingJobsJob(expirer PendingExpirer, cfg Config, logger *slog.Logger) *ExpirePendingJobsJob {
	logger = logger.With("component", "expire_pending_jobs_job")
	return &ExpirePendingJobsJob{
		expirer:  expirer,
		ttl:      cfg.PendingTTL,
		batch:    cfg.ExpireBatch,
		schedule: cfg.ExpireSchedule,
		cron:     newCron(logger),
		logger:   logger,
	}
}

// Run expires one batch.
func (j *ExpirePendingJobsJob) Run(ctx context.Context) {
	n, err := j.expirer.ExpireStalePending(ctx, j.ttl, j.batch)
	if err != nil {
		j.logger.ErrorContext(ctx, "Expiring stale pending jobs failed", "error", err, "expired", n)
		return
	}
	if n > 0 {
		j.logger.InfoContext(ctx, "Expired stale pending jobs", "expired", n, "ttl", j.ttl)
	}
}

func (j *ExpirePendingJobsJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, func() { j.Run(context.Background()) }); err != nil {
		return err
	}
	j.cron.Start()
	j.logger.Info("Expire pending jobs job started", "schedule", j.schedule, "ttl", j.ttl)
	return nil
}

// Stop waits for a running batch to finish.
func (j *ExpirePendingJobsJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("Expire pending jobs job stopped")
}
