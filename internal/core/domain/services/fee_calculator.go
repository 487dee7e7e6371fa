package services

import (
	"errors"
	"fmt"

	"fulfillment/internal/core/domain/model/job"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

// SizeTier is one step of the parcel surcharge function. MaxWeightKg is the
// heaviest parcel the tier takes by weight; zero means unbounded.
type SizeTier struct {
	Size        job.ParcelSize
	MaxWeightKg float64
	Surcharge   float64
}

// FeeSchedule is the configuration of the fee formula
//
//	fee = BaseFee + PerKmRate * distanceKm + sizeSurcharge
type FeeSchedule struct {
	BaseFee   float64
	PerKmRate float64
	// Tiers are ordered from the smallest size up, one per ParcelSize.
	Tiers []SizeTier
}

// DefaultFeeSchedule returns the schedule used when nothing is configured.
func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{
		BaseFee:   2.00,
		PerKmRate: 1.50,
		Tiers: []SizeTier{
			{Size: job.SizeSmall, MaxWeightKg: 5, Surcharge: 0},
			{Size: job.SizeMedium, MaxWeightKg: 15, Surcharge: 2.00},
			{Size: job.SizeLarge, MaxWeightKg: 0, Surcharge: 5.00},
		},
	}
}

// Validate rejects negative amounts and tier lists that would make the
// surcharge non-monotonic.
func (s FeeSchedule) Validate() error {
	var errList []error
	if s.BaseFee < 0 {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("baseFee", fmt.Errorf("%v is negative", s.BaseFee)))
	}
	if s.PerKmRate < 0 {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("perKmRate", fmt.Errorf("%v is negative", s.PerKmRate)))
	}

	want := []job.ParcelSize{job.SizeSmall, job.SizeMedium, job.SizeLarge}
	if len(s.Tiers) != len(want) {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("tiers", fmt.Errorf("want %d tiers, got %d", len(want), len(s.Tiers))))
		return errors.Join(errList...)
	}
	for i, tier := range s.Tiers {
		if tier.Size != want[i] {
			errList = append(errList, errs.NewValueIsInvalidErrorWithCause("tiers", fmt.Errorf("tier %d is %s, want %s", i, tier.Size, want[i])))
		}
		if tier.Surcharge < 0 || tier.MaxWeightKg < 0 {
			errList = append(errList, errs.NewValueIsInvalidErrorWithCause("tiers", fmt.Errorf("tier %s has negative values", tier.Size)))
		}
		if i == 0 {
			continue
		}
		prev := s.Tiers[i-1]
		if tier.Surcharge < prev.Surcharge {
			errList = append(errList, errs.NewValueIsInvalidErrorWithCause("tiers", fmt.Errorf("surcharge of %s is below %s", tier.Size, prev.Size)))
		}
		if prev.MaxWeightKg == 0 || (tier.MaxWeightKg != 0 && tier.MaxWeightKg < prev.MaxWeightKg) {
			errList = append(errList, errs.NewValueIsInvalidErrorWithCause("tiers", fmt.Errorf("weight limit of %s is below %s", tier.Size, prev.Size)))
		}
	}
	return errors.Join(errList...)
}

// FeeAttributes are the job properties the fee depends on besides distance.
type FeeAttributes struct {
	Kind     job.Kind
	Size     job.ParcelSize
	WeightKg *float64
}

// FeeCalculator computes delivery fees. It is pure: the same inputs and
// schedule always give the same Fee, and it is safe for concurrent use.
//
// Example:
//
//	calc, _ := services.NewFeeCalculator(services.DefaultFeeSchedule())
//	fee, err := calc.ComputeFee(pickup, dropoff, services.FeeAttributes{Kind: job.KindFood})
//	if errors.Is(err, kernel.ErrInvalidGeometry) {
//	    // reject the request
//	}
type FeeCalculator struct {
	schedule FeeSchedule
}

func NewFeeCalculator(schedule FeeSchedule) (*FeeCalculator, error) {
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	return &FeeCalculator{schedule: schedule}, nil
}

func (c *FeeCalculator) Schedule() FeeSchedule {
	return c.schedule
}

// ComputeFee prices a delivery from pickup to dropoff.
//
// Parameters:
//   - pickup, dropoff: constructed locations
//   - attrs: kind and, for parcels, size and weight
//
// Returns:
//   - job.Fee: the rounded breakdown; a zero distance still costs BaseFee
//   - error: ErrInvalidGeometry for unconstructed locations, validation errors
//     for unknown kinds or sizes
func (c *FeeCalculator) ComputeFee(pickup, dropoff kernel.Location, attrs FeeAttributes) (job.Fee, error) {
	if err := errors.Join(pickup.Validate(), dropoff.Validate()); err != nil {
		return job.Fee{}, err
	}

	surcharge, err := c.Surcharge(attrs)
	if err != nil {
		return job.Fee{}, err
	}

	distance := pickup.DistanceKm(dropoff)
	return job.NewFee(distance, c.schedule.BaseFee, c.schedule.PerKmRate*distance, surcharge)
}

// Surcharge is the size step function. Food carries no surcharge. For parcels
// the effective tier is the larger of the declared tier and the tier the
// weight falls into.
func (c *FeeCalculator) Surcharge(attrs FeeAttributes) (float64, error) {
	if err := attrs.Kind.Validate(); err != nil {
		return 0, err
	}
	if attrs.Kind == job.KindFood {
		return 0, nil
	}
	if err := attrs.Size.Validate(); err != nil {
		return 0, err
	}

	tier := c.tierOf(attrs.Size)
	if attrs.WeightKg != nil {
		if w := c.tierForWeight(*attrs.WeightKg); w > tier {
			tier = w
		}
	}
	return c.schedule.Tiers[tier].Surcharge, nil
}

func (c *FeeCalculator) tierOf(size job.ParcelSize) int {
	for i, tier := range c.schedule.Tiers {
		if tier.Size == size {
			return i
		}
	}
	return 0
}

func (c *FeeCalculator) tierForWeight(weightKg float64) int {
	for i, tier := range c.schedule.Tiers {
		if tier.MaxWeightKg == 0 || weightKg <= tier.MaxWeightKg {
			return i
		}
	}
	return len(c.schedule.Tiers) - 1
}
