// Package dispatch orchestrates the fulfillment core: the availability
// registry, claim arbitration, the job lifecycle, review gating and the
// coordinator that composes them into the customer and driver operations.
//
// Nothing in this package holds a lock across calls. Every mutation goes
// through a repository Update, which serializes access to exactly one job or
// one driver. Notifications and metrics are emitted after Update returns.
package dispatch
