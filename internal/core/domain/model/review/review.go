package review

import (
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/guard"
)

// Review is a customer's rating of the restaurant or the driver of one
// delivered job. At most one review exists per (job, target type).
type Review struct {
	id         kernel.UUID
	jobID      kernel.UUID
	authorID   kernel.UUID
	targetType TargetType
	targetID   kernel.UUID
	rating     int
	comment    string
	createdAt  time.Time
	guard      guard.ConstructorGuard
}

// NewReview validates a review against bounds. Eligibility (delivered job,
// matching author, no earlier review) is the review gate's concern.
//
// Example:
//
//	r, err := review.NewReview(kernel.NewUUID(), jobID, customerID,
//	    review.TargetDriver, driverID, 5, review.DefaultRatingBounds(), "fast", time.Now())
func NewReview(
	id kernel.UUID,
	jobID kernel.UUID,
	authorID kernel.UUID,
	targetType TargetType,
	targetID kernel.UUID,
	rating int,
	bounds RatingBounds,
	comment string,
	now time.Time,
) (*Review, error) {
	if err := bounds.Check(rating); err != nil {
		return nil, err
	}
	return RestoreReview(id, jobID, authorID, targetType, targetID, rating, comment, now)
}

// RestoreReview rebuilds a stored review. Ratings are not re-checked since
// the bounds may have changed after the review was recorded.
func RestoreReview(
	id kernel.UUID,
	jobID kernel.UUID,
	authorID kernel.UUID,
	targetType TargetType,
	targetID kernel.UUID,
	rating int,
	comment string,
	createdAt time.Time,
) (*Review, error) {
	if err := errors.Join(
		id.Validate(),
		jobID.Validate(),
		authorID.Validate(),
		targetType.Validate(),
		targetID.Validate(),
	); err != nil {
		return nil, err
	}

	return &Review{
		id:         id,
		jobID:      jobID,
		authorID:   authorID,
		targetType: targetType,
		targetID:   targetID,
		rating:     rating,
		comment:    comment,
		createdAt:  createdAt,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

func (r *Review) Validate() error {
	if r == nil {
		return ErrReviewIsNotConstructed
	}
	return r.guard.Validate(ErrReviewIsNotConstructed)
}

func (r *Review) ID() kernel.UUID        { return r.id }
func (r *Review) JobID() kernel.UUID     { return r.jobID }
func (r *Review) AuthorID() kernel.UUID  { return r.authorID }
func (r *Review) TargetType() TargetType { return r.targetType }
func (r *Review) TargetID() kernel.UUID  { return r.targetID }
func (r *Review) Rating() int            { return r.rating }
func (r *Review) Comment() string        { return r.comment }
func (r *Review) CreatedAt() time.Time   { return r.createdAt }
