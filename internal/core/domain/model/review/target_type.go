package review

import (
	"fmt"

	"fulfillment/internal/pkg/errs"
)

// TargetType is what a review rates.
type TargetType int

const (
	TargetUnknown TargetType = iota
	TargetRestaurant
	TargetDriver
)

var targetNames = map[TargetType]string{
	TargetRestaurant: "restaurant",
	TargetDriver:     "driver",
}

func ParseTargetType(s string) (TargetType, error) {
	for tt, name := range targetNames {
		if name == s {
			return tt, nil
		}
	}
	return TargetUnknown, errs.NewValueIsInvalidErrorWithCause("targetType", fmt.Errorf("%q is not a review target", s))
}

func (t TargetType) Validate() error {
	if _, ok := targetNames[t]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("targetType", fmt.Errorf("%d is not a review target", t))
	}
	return nil
}

func (t TargetType) String() string {
	if name, ok := targetNames[t]; ok {
		return name
	}
	return "unknown"
}
