package dispatch

import (
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/job"
	"fulfillment/internal/core/domain/model/review"
	"fulfillment/internal/pkg/errs"
)

// DefaultOfferFanout is how many of the nearest drivers hear about a new job.
const DefaultOfferFanout = 5

// DefaultMaxClockSkew is how far ahead of the server clock a device may date
// a location report.
const DefaultMaxClockSkew = 2 * time.Minute

// Config holds the business tunables of the coordinator.
type Config struct {
	// ProximityRadiusKm bounds offers and open-job listings around the pickup.
	ProximityRadiusKm float64
	// OfferFanout caps the drivers notified of a new job; 0 disables offers.
	OfferFanout int
	// FoodTaxRate is applied to the food subtotal, in [0, 1).
	FoodTaxRate float64
	// FailurePolicy decides when failed delivery attempts fail the job. The
	// zero policy allows job.DefaultMaxAttempts.
	FailurePolicy job.FailurePolicy
	// RatingBounds must span at least two values.
	RatingBounds review.RatingBounds
	// MaxClockSkew bounds reportedAt of location reports; zero means
	// DefaultMaxClockSkew.
	MaxClockSkew time.Duration
}

func (c Config) maxClockSkew() time.Duration {
	if c.MaxClockSkew == 0 {
		return DefaultMaxClockSkew
	}
	return c.MaxClockSkew
}

func DefaultConfig() Config {
	policy, _ := job.NewFailurePolicy(job.DefaultMaxAttempts)
	return Config{
		ProximityRadiusKm: DefaultProximityRadiusKm,
		OfferFanout:       DefaultOfferFanout,
		FoodTaxRate:       0,
		FailurePolicy:     policy,
		RatingBounds:      review.DefaultRatingBounds(),
		MaxClockSkew:      DefaultMaxClockSkew,
	}
}

func (c Config) Validate() error {
	var errList []error
	if c.ProximityRadiusKm <= 0 {
		errList = append(errList, errs.NewValueIsInvalidError("proximityRadiusKm"))
	}
	if c.OfferFanout < 0 {
		errList = append(errList, errs.NewValueIsInvalidError("offerFanout"))
	}
	if c.FoodTaxRate < 0 || c.FoodTaxRate >= 1 {
		errList = append(errList, errs.NewValueIsOutOfRangeError("foodTaxRate", c.FoodTaxRate, 0, 1))
	}
	if c.MaxClockSkew < 0 {
		errList = append(errList, errs.NewValueIsOutOfRangeError("maxClockSkew", c.MaxClockSkew, 0, "unbounded"))
	}
	if c.RatingBounds.Min() >= c.RatingBounds.Max() {
		errList = append(errList, errs.NewValueIsInvalidError("ratingBounds"))
	}
	return errors.Join(errList...)
}
