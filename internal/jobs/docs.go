// Package jobs runs the fulfillment maintenance tasks on cron schedules
// (github.com/robfig/cron/v3).
//
// # Available Jobs
//
//  1. ExpirePendingJobsJob fails jobs that stayed Pending past the TTL
//  2. ReconcileDriversJob releases driver reservations left without a job
//
// # Usage
//
//	jobManager, err := jobs.NewJobManager(coordinator, jobs.DefaultConfig(), logger)
//	if err != nil {
//		return err
//	}
//	if err := jobManager.StartAll(); err != nil {
//		return err
//	}
//	defer jobManager.StopAll()
//
// A tick is skipped while the previous run of the same job is still in
// progress. Errors are logged and retried on the next tick.
package jobs
