// Package driver provides the Driver aggregate: a driver's presence in the
// dispatch pool, last known position and the single job they hold.
//
// Key business rules:
//   - A driver holds at most one active job
//   - Availability is derived (online and no active job) and cannot be set
//     directly
//   - Going offline never revokes an active job
//   - Location updates are last-write-wins by timestamp
package driver
