package job

import (
	"errors"
	"fmt"

	"fulfillment/internal/core/domain/model/kernel"
)

var (
	// ErrIllegalTransition is the sentinel for events the state machine has no
	// entry for in the job's current state.
	ErrIllegalTransition = errors.New("illegal transition")

	// ErrAlreadyClaimed is the sentinel for losing a claim race or claiming a job
	// that left Pending.
	ErrAlreadyClaimed = errors.New("job already claimed")

	// ErrJobIsNotConstructed is returned when a Job was not created through
	// NewParcelJob, NewFoodJob or RestoreJob.
	ErrJobIsNotConstructed = errors.New("Job must be created via NewParcelJob, NewFoodJob or RestoreJob")
)

// IllegalTransitionError names the state and the event that was rejected.
// JobID is the zero UUID when the error comes from Status.Next directly.
type IllegalTransitionError struct {
	JobID kernel.UUID
	From  Status
	Event Event
}

func (e *IllegalTransitionError) Error() string {
	if e.JobID.Validate() == nil {
		return fmt.Sprintf("%s: job %s cannot %s from %s", ErrIllegalTransition, e.JobID, e.Event, e.From)
	}
	return fmt.Sprintf("%s: cannot %s from %s", ErrIllegalTransition, e.Event, e.From)
}

func (e *IllegalTransitionError) Unwrap() error {
	return ErrIllegalTransition
}

// AlreadyClaimedError reports the state the job was found in by the losing
// claimant.
type AlreadyClaimedError struct {
	JobID  kernel.UUID
	Status Status
}

func (e *AlreadyClaimedError) Error() string {
	return fmt.Sprintf("%s: job %s is %s", ErrAlreadyClaimed, e.JobID, e.Status)
}

func (e *AlreadyClaimedError) Unwrap() error {
	return ErrAlreadyClaimed
}
