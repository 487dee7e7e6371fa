package errs

import (
	"errors"
	"fmt"
)

// ErrForbidden is the sentinel for callers acting on entities they do not own,
// such as a customer cancelling someone else's job.
var ErrForbidden = errors.New("action is forbidden")

// ForbiddenError records who attempted which action.
type ForbiddenError struct {
	Actor  any
	Action string
	Cause  error
}

// NewForbiddenError creates an ownership error.
//
// Example:
//
//	return errs.NewForbiddenError(requesterID, "cancel job")
func NewForbiddenError(actor any, action string) *ForbiddenError {
	return &ForbiddenError{
		Actor:  actor,
		Action: action,
	}
}

func NewForbiddenErrorWithCause(actor any, action string, cause error) *ForbiddenError {
	return &ForbiddenError{
		Actor:  actor,
		Action: action,
		Cause:  cause,
	}
}

func (e *ForbiddenError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s by %s (cause: %v)", ErrForbidden, e.Action, e.Actor, e.Cause)
	}
	return fmt.Sprintf("%s: %s by %s", ErrForbidden, e.Action, e.Actor)
}

func (e *ForbiddenError) Unwrap() error {
	return ErrForbidden
}
