package dispatch

import (
	"context"
	"log/slog"
	"time"

	"fulfillment/internal/core/domain/model/job"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/review"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

// ReviewGate admits at most one review per job and target, and only for
// delivered jobs reviewed by their customer.
type ReviewGate struct {
	jobs    ports.JobRepository
	reviews ports.ReviewRepository
	bounds  review.RatingBounds
	now     func() time.Time
	logger  *slog.Logger
}

func NewReviewGate(
	jobs ports.JobRepository,
	reviews ports.ReviewRepository,
	bounds review.RatingBounds,
	now func() time.Time,
	logger *slog.Logger,
) *ReviewGate {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewGate{
		jobs:    jobs,
		reviews: reviews,
		bounds:  bounds,
		now:     now,
		logger:  logger.With("component", "review_gate"),
	}
}

// CanReview reports whether a review of targetType may still be recorded for
// the job. Unknown jobs are an error, ineligible ones are not.
func (g *ReviewGate) CanReview(ctx context.Context, jobID kernel.UUID, targetType review.TargetType) (bool, error) {
	if err := targetType.Validate(); err != nil {
		return false, err
	}
	j, err := g.jobs.Get(ctx, jobID)
	if err != nil {
		return false, err
	}
	if _, err := reviewTarget(j, targetType); err != nil {
		return false, nil
	}
	exists, err := g.reviews.Exists(ctx, jobID, targetType)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// RecordReview stores a review of the job's restaurant or driver.
//
// Returns:
//   - *review.Review: the stored review
//   - error: review.InvalidRatingError, errs.ObjectNotFoundError,
//     errs.ForbiddenError when authorID is not the job's customer,
//     review.NotEligibleError or review.DuplicateReviewError
func (g *ReviewGate) RecordReview(
	ctx context.Context,
	authorID kernel.UUID,
	jobID kernel.UUID,
	targetType review.TargetType,
	rating int,
	comment string,
) (*review.Review, error) {
	if err := g.bounds.Check(rating); err != nil {
		return nil, err
	}
	j, err := g.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !j.CustomerID().IsEqual(authorID) {
		return nil, errs.NewForbiddenError(authorID, "review job")
	}
	targetID, err := reviewTarget(j, targetType)
	if err != nil {
		return nil, err
	}

	r, err := review.NewReview(kernel.NewUUID(), jobID, authorID, targetType, targetID, rating, g.bounds, comment, g.now())
	if err != nil {
		return nil, err
	}
	if err := g.reviews.Add(ctx, r); err != nil {
		return nil, err
	}

	g.logger.InfoContext(ctx, "review recorded",
		"job_id", jobID.String(), "target_type", targetType.String(), "rating", rating)
	return r, nil
}

// RatingSummary returns the average rating of a restaurant or driver.
func (g *ReviewGate) RatingSummary(ctx context.Context, targetType review.TargetType, targetID kernel.UUID) (review.Summary, error) {
	if err := targetType.Validate(); err != nil {
		return review.Summary{}, err
	}
	return g.reviews.Summary(ctx, targetType, targetID)
}

// reviewTarget resolves who a review of targetType on j is about, or why
// there is nobody to review.
func reviewTarget(j *job.Job, targetType review.TargetType) (kernel.UUID, error) {
	notEligible := func(reason string) error {
		return &review.NotEligibleError{JobID: j.ID(), TargetType: targetType, Reason: reason}
	}
	if !j.IsReviewable() {
		return kernel.UUID{}, notEligible("job is " + j.Status().String())
	}

	switch targetType {
	case review.TargetRestaurant:
		food, ok := j.Food()
		if !ok {
			return kernel.UUID{}, notEligible("parcel jobs have no restaurant")
		}
		return food.RestaurantID(), nil
	case review.TargetDriver:
		driverID := j.DriverID()
		if driverID == nil {
			return kernel.UUID{}, notEligible("job has no driver")
		}
		return *driverID, nil
	default:
		return kernel.UUID{}, targetType.Validate()
	}
}
