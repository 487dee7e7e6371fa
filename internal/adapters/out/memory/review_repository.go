package memory

import (
	"context"
	"sync"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/review"
	"fulfillment/internal/core/ports"

	"github.com/google/uuid"
)

var _ ports.ReviewRepository = (*ReviewRepository)(nil)

type reviewKey struct {
	jobID      uuid.UUID
	targetType review.TargetType
}

// ReviewRepository serializes all writes behind one mutex; reviews are rare
// compared with status updates.
type ReviewRepository struct {
	mu      sync.Mutex
	reviews map[reviewKey]*review.Review
}

func NewReviewRepository() *ReviewRepository {
	return &ReviewRepository{reviews: make(map[reviewKey]*review.Review)}
}

func (r *ReviewRepository) Add(ctx context.Context, rv *review.Review) error {
	if err := rv.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	key := reviewKey{jobID: rv.JobID().Google(), targetType: rv.TargetType()}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reviews[key]; ok {
		return &review.DuplicateReviewError{JobID: rv.JobID(), TargetType: rv.TargetType()}
	}
	r.reviews[key] = rv
	return nil
}

func (r *ReviewRepository) Exists(ctx context.Context, jobID kernel.UUID, targetType review.TargetType) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.reviews[reviewKey{jobID: jobID.Google(), targetType: targetType}]
	return ok, nil
}

func (r *ReviewRepository) Summary(ctx context.Context, targetType review.TargetType, targetID kernel.UUID) (review.Summary, error) {
	if err := ctx.Err(); err != nil {
		return review.Summary{}, err
	}

	summary := review.Summary{TargetType: targetType, TargetID: targetID}
	total := 0

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rv := range r.reviews {
		if rv.TargetType() != targetType || !rv.TargetID().IsEqual(targetID) {
			continue
		}
		summary.Count++
		total += rv.Rating()
	}
	if summary.Count > 0 {
		summary.Average = float64(total) / float64(summary.Count)
	}
	return summary, nil
}
