package review

import (
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

const (
	DefaultRatingMin = 1
	DefaultRatingMax = 5
)

// RatingBounds is the inclusive range of accepted ratings.
type RatingBounds struct {
	min int
	max int
}

func NewRatingBounds(minRating, maxRating int) (RatingBounds, error) {
	if minRating > maxRating {
		return RatingBounds{}, errs.NewValueIsOutOfRangeError("ratingMin", minRating, "unbounded", maxRating)
	}
	return RatingBounds{min: minRating, max: maxRating}, nil
}

// DefaultRatingBounds is the one-to-five star scale.
func DefaultRatingBounds() RatingBounds {
	return RatingBounds{min: DefaultRatingMin, max: DefaultRatingMax}
}

func (b RatingBounds) Min() int { return b.min }
func (b RatingBounds) Max() int { return b.max }

// Check returns an InvalidRatingError when rating is outside the bounds.
func (b RatingBounds) Check(rating int) error {
	if rating < b.min || rating > b.max {
		return &InvalidRatingError{Rating: rating, Min: b.min, Max: b.max}
	}
	return nil
}

// Summary aggregates the reviews of one target.
type Summary struct {
	TargetType TargetType
	TargetID   kernel.UUID
	Count      int
	Average    float64
}
