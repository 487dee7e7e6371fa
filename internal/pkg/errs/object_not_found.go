package errs

import (
	"errors"
	"fmt"
)

// ErrObjectNotFound is the sentinel for lookups of entities that do not exist.
var ErrObjectNotFound = errors.New("object not found")

// ObjectNotFoundError describes which entity could not be found.
type ObjectNotFoundError struct {
	ParamName string
	ID        any
	Cause     error
}

// NewObjectNotFoundError creates an error for a missing entity.
//
// Parameters:
//   - paramName: name of the identifier that was looked up (e.g., "jobID")
//   - id: the identifier value, formatted with %s
//
// Example:
//
//	return nil, errs.NewObjectNotFoundError("jobID", id)
func NewObjectNotFoundError(paramName string, id any) *ObjectNotFoundError {
	return &ObjectNotFoundError{
		ParamName: paramName,
		ID:        id,
	}
}

// NewObjectNotFoundErrorWithCause creates an error for a missing entity and
// keeps the underlying storage error as the cause.
func NewObjectNotFoundErrorWithCause(paramName string, id any, cause error) *ObjectNotFoundError {
	return &ObjectNotFoundError{
		ParamName: paramName,
		ID:        id,
		Cause:     cause,
	}
}

func (e *ObjectNotFoundError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: param is: %s, ID is: %s (cause: %v)",
			ErrObjectNotFound, e.ParamName, e.ID, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrObjectNotFound, e.ID)
}

func (e *ObjectNotFoundError) Unwrap() error {
	return ErrObjectNotFound
}
