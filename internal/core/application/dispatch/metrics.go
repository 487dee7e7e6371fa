package dispatch

import (
	"fulfillment/internal/core/domain/model/job"
)

// ClaimOutcome labels how a claim attempt ended.
type ClaimOutcome string

const (
	ClaimAccepted       ClaimOutcome = "accepted"
	ClaimAlreadyClaimed ClaimOutcome = "already_claimed"
	ClaimDriverBusy     ClaimOutcome = "driver_busy"
	ClaimRejected       ClaimOutcome = "rejected"
	ClaimNotFound       ClaimOutcome = "not_found"
	ClaimError          ClaimOutcome = "error"
)

// Metrics receives counters from the dispatch core. Implementations must be
// safe for concurrent use and must not block.
type Metrics interface {
	ClaimResolved(kind job.Kind, outcome ClaimOutcome)
	StatusChanged(ev job.StatusChanged)
	FeeComputed(kind job.Kind, fee job.Fee)
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) ClaimResolved(job.Kind, ClaimOutcome) {}
func (NoopMetrics) StatusChanged(job.StatusChanged)      {}
func (NoopMetrics) FeeComputed(job.Kind, job.Fee)        {}
