package job

import (
	"errors"
	"fmt"
	"math"

	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

// ErrFeeIsNotConstructed is returned when a zero-value Fee is attached to a job.
var ErrFeeIsNotConstructed = errs.NewValueIsRequiredError("fee must be created via NewFee or RestoreFee")

// Fee is the auditable breakdown of a delivery fee in currency units. Every
// component is rounded to cents and Total is their sum.
//
// A Fee is attached to a job once at creation. The Job exposes no way to
// replace it, so later changes to the fee schedule never touch existing jobs.
type Fee struct {
	distanceKm     float64
	base           float64
	distanceCharge float64
	surcharge      float64
	total          float64
	guard          guard.ConstructorGuard
}

// NewFee builds a breakdown from its components.
//
// Parameters:
//   - distanceKm: great-circle distance between pickup and drop-off
//   - base: flat base fee
//   - distanceCharge: per-kilometre part, before rounding
//   - surcharge: parcel size surcharge, zero for food
//
// Returns:
//   - Fee: the rounded breakdown
//   - error: ValueIsInvalidError when any component is negative or not finite
//
// Example:
//
//	fee, _ := job.NewFee(5.42, 2.00, 1.50*5.42, 0) // Total() == 10.13
func NewFee(distanceKm, base, distanceCharge, surcharge float64) (Fee, error) {
	if err := errors.Join(
		checkAmount("distanceKm", distanceKm),
		checkAmount("base", base),
		checkAmount("distanceCharge", distanceCharge),
		checkAmount("surcharge", surcharge),
	); err != nil {
		return Fee{}, err
	}

	f := Fee{
		distanceKm:     RoundCents(distanceKm),
		base:           RoundCents(base),
		distanceCharge: RoundCents(distanceCharge),
		surcharge:      RoundCents(surcharge),
		guard:          guard.NewConstructorGuard(),
	}
	f.total = RoundCents(f.base + f.distanceCharge + f.surcharge)
	return f, nil
}

// RestoreFee rebuilds a stored breakdown verbatim. The total is taken as
// stored and is not recomputed.
func RestoreFee(distanceKm, base, distanceCharge, surcharge, total float64) (Fee, error) {
	if err := errors.Join(
		checkAmount("distanceKm", distanceKm),
		checkAmount("base", base),
		checkAmount("distanceCharge", distanceCharge),
		checkAmount("surcharge", surcharge),
		checkAmount("total", total),
	); err != nil {
		return Fee{}, err
	}

	return Fee{
		distanceKm:     distanceKm,
		base:           base,
		distanceCharge: distanceCharge,
		surcharge:      surcharge,
		total:          total,
		guard:          guard.NewConstructorGuard(),
	}, nil
}

func (f Fee) Validate() error {
	return f.guard.Validate(ErrFeeIsNotConstructed)
}

func (f Fee) DistanceKm() float64     { return f.distanceKm }
func (f Fee) Base() float64           { return f.base }
func (f Fee) DistanceCharge() float64 { return f.distanceCharge }
func (f Fee) Surcharge() float64      { return f.surcharge }
func (f Fee) Total() float64          { return f.total }

// RoundCents rounds half away from zero to two decimal places.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func checkAmount(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return errs.NewValueIsInvalidErrorWithCause(name, fmt.Errorf("%v is not a non-negative amount", v))
	}
	return nil
}
