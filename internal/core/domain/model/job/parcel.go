package job

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"fulfillment/internal/pkg/errs"
)

// ParcelSize is the declared size tier of a parcel. The order of the
// constants is the order of the tiers.
type ParcelSize int

const (
	SizeUnknown ParcelSize = iota
	SizeSmall
	SizeMedium
	SizeLarge
)

var sizeNames = map[ParcelSize]string{
	SizeSmall:  "small",
	SizeMedium: "medium",
	SizeLarge:  "large",
}

func ParseParcelSize(s string) (ParcelSize, error) {
	for size, name := range sizeNames {
		if name == s {
			return size, nil
		}
	}
	return SizeUnknown, errs.NewValueIsInvalidErrorWithCause("parcelSize", fmt.Errorf("%q is not a parcel size", s))
}

func (s ParcelSize) Validate() error {
	if _, ok := sizeNames[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("parcelSize", fmt.Errorf("%d is not a parcel size", s))
	}
	return nil
}

func (s ParcelSize) String() string {
	if name, ok := sizeNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParcelDetails is the payload of a KindParcel job.
type ParcelDetails struct {
	size           ParcelSize
	weightKg       *float64
	recipientName  string
	recipientPhone string
	description    string
}

// NewParcelDetails validates the parcel payload.
//
// Parameters:
//   - size: declared size tier
//   - weightKg: optional weight, must be non-negative when given
//   - recipientName, recipientPhone: who receives the parcel at drop-off
//   - description: free text, may be empty
func NewParcelDetails(
	size ParcelSize,
	weightKg *float64,
	recipientName string,
	recipientPhone string,
	description string,
) (ParcelDetails, error) {
	var errList []error
	if err := size.Validate(); err != nil {
		errList = append(errList, err)
	}
	if weightKg != nil && (math.IsNaN(*weightKg) || math.IsInf(*weightKg, 0) || *weightKg < 0) {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("weightKg", fmt.Errorf("%v is negative or not finite", *weightKg)))
	}
	if strings.TrimSpace(recipientName) == "" {
		errList = append(errList, errs.NewValueIsRequiredError("recipientName"))
	}
	if strings.TrimSpace(recipientPhone) == "" {
		errList = append(errList, errs.NewValueIsRequiredError("recipientPhone"))
	}
	if err := errors.Join(errList...); err != nil {
		return ParcelDetails{}, err
	}

	p := ParcelDetails{
		size:           size,
		recipientName:  recipientName,
		recipientPhone: recipientPhone,
		description:    description,
	}
	if weightKg != nil {
		w := *weightKg
		p.weightKg = &w
	}
	return p, nil
}

func (p ParcelDetails) Size() ParcelSize { return p.size }

// WeightKg returns the declared weight, nil when the customer gave none.
func (p ParcelDetails) WeightKg() *float64 {
	if p.weightKg == nil {
		return nil
	}
	w := *p.weightKg
	return &w
}

func (p ParcelDetails) RecipientName() string  { return p.recipientName }
func (p ParcelDetails) RecipientPhone() string { return p.recipientPhone }
func (p ParcelDetails) Description() string    { return p.description }
