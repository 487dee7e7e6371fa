package kernel

import (
	"errors"
	"fmt"
)

// ErrInvalidGeometry is the sentinel for coordinates that cannot describe a
// point on the earth: NaN, infinities or values outside the degree ranges.
var ErrInvalidGeometry = errors.New("invalid geometry")

// InvalidGeometryError names the rejected coordinate.
type InvalidGeometryError struct {
	ParamName string
	Value     float64
	Reason    string
}

func NewInvalidGeometryError(paramName string, value float64, reason string) *InvalidGeometryError {
	return &InvalidGeometryError{
		ParamName: paramName,
		Value:     value,
		Reason:    reason,
	}
}

func (e *InvalidGeometryError) Error() string {
	return fmt.Sprintf("%s: %s is %v (%s)", ErrInvalidGeometry, e.ParamName, e.Value, e.Reason)
}

func (e *InvalidGeometryError) Unwrap() error {
	return ErrInvalidGeometry
}
