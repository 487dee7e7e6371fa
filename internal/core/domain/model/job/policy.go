package job

import "fulfillment/internal/pkg/errs"

// DefaultMaxAttempts is the number of failed delivery attempts tolerated
// before a job fails when no policy is configured.
const DefaultMaxAttempts = 3

// FailurePolicy decides when repeated failed delivery attempts become a
// confirmed failure.
type FailurePolicy struct {
	maxAttempts int
}

func NewFailurePolicy(maxAttempts int) (FailurePolicy, error) {
	if maxAttempts < 1 {
		return FailurePolicy{}, errs.NewValueIsOutOfRangeError("maxAttempts", maxAttempts, 1, "unbounded")
	}
	return FailurePolicy{maxAttempts: maxAttempts}, nil
}

// MaxAttempts falls back to DefaultMaxAttempts for the zero policy.
func (p FailurePolicy) MaxAttempts() int {
	if p.maxAttempts < 1 {
		return DefaultMaxAttempts
	}
	return p.maxAttempts
}

// Exhausted reports whether attempts failed deliveries end the job.
func (p FailurePolicy) Exhausted(attempts int) bool {
	return attempts >= p.MaxAttempts()
}
