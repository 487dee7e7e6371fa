package review

import (
	"errors"
	"fmt"

	"fulfillment/internal/core/domain/model/kernel"
)

var (
	ErrInvalidRating          = errors.New("invalid rating")
	ErrNotEligible            = errors.New("not eligible for review")
	ErrDuplicateReview        = errors.New("duplicate review")
	ErrReviewIsNotConstructed = errors.New("Review must be created via NewReview or RestoreReview")
)

// InvalidRatingError carries the configured bounds the rating missed.
type InvalidRatingError struct {
	Rating int
	Min    int
	Max    int
}

func (e *InvalidRatingError) Error() string {
	return fmt.Sprintf("%s: %d is outside [%d, %d]", ErrInvalidRating, e.Rating, e.Min, e.Max)
}

func (e *InvalidRatingError) Unwrap() error {
	return ErrInvalidRating
}

// NotEligibleError explains why a job cannot be reviewed for a target.
type NotEligibleError struct {
	JobID      kernel.UUID
	TargetType TargetType
	Reason     string
}

func (e *NotEligibleError) Error() string {
	return fmt.Sprintf("%s: job %s, %s: %s", ErrNotEligible, e.JobID, e.TargetType, e.Reason)
}

func (e *NotEligibleError) Unwrap() error {
	return ErrNotEligible
}

// DuplicateReviewError reports the (job, target type) pair that already has
// a review.
type DuplicateReviewError struct {
	JobID      kernel.UUID
	TargetType TargetType
}

func (e *DuplicateReviewError) Error() string {
	return fmt.Sprintf("%s: job %s already has a %s review", ErrDuplicateReview, e.JobID, e.TargetType)
}

func (e *DuplicateReviewError) Unwrap() error {
	return ErrDuplicateReview
}
