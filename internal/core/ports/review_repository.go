package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/review"
)

// ReviewRepository stores reviews and enforces one review per
// (job, target type).
type ReviewRepository interface {
	// Add persists r. When a review for the same job and target type exists,
	// Add stores nothing and returns a review.DuplicateReviewError. The check
	// and the insert are atomic.
	Add(ctx context.Context, r *review.Review) error

	// Exists reports whether the job already has a review of targetType.
	Exists(ctx context.Context, jobID kernel.UUID, targetType review.TargetType) (bool, error)

	// Summary aggregates every review of one target.
	Summary(ctx context.Context, targetType review.TargetType, targetID kernel.UUID) (review.Summary, error)
}
