package errs

import (
	"errors"
	"fmt"
)

// ErrValueIsInvalid is the sentinel for values that failed validation.
var ErrValueIsInvalid = errors.New("value is invalid")

// ValueIsInvalidError names the parameter that failed validation.
type ValueIsInvalidError struct {
	ParamName string
	Cause     error
}

func NewValueIsInvalidError(paramName string) *ValueIsInvalidError {
	return &ValueIsInvalidError{ParamName: paramName}
}

// NewValueIsInvalidErrorWithCause creates a validation error carrying the
// rule that was violated.
//
// Example:
//
//	return errs.NewValueIsInvalidErrorWithCause("weightKg", fmt.Errorf("%v is negative", w))
func NewValueIsInvalidErrorWithCause(paramName string, cause error) *ValueIsInvalidError {
	return &ValueIsInvalidError{
		ParamName: paramName,
		Cause:     cause,
	}
}

func (e *ValueIsInvalidError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", ErrValueIsInvalid, e.ParamName, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrValueIsInvalid, e.ParamName)
}

func (e *ValueIsInvalidError) Unwrap() error {
	return ErrValueIsInvalid
}
