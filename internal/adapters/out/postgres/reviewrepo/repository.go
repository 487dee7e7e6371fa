package reviewrepo

import (
	"context"
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/review"
	"fulfillment/internal/core/ports"

	"gorm.io/gorm"
)

var _ ports.ReviewRepository = (*GormReviewRepository)(nil)

type GormReviewRepository struct {
	db *gorm.DB
}

func NewGormReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: db}
}

func (r *GormReviewRepository) Add(ctx context.Context, rv *review.Review) error {
	if err := rv.Validate(); err != nil {
		return err
	}

	dto := fromDomain(rv)
	err := r.db.WithContext(ctx).Create(&dto).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &review.DuplicateReviewError{JobID: rv.JobID(), TargetType: rv.TargetType()}
	}
	return err
}

func (r *GormReviewRepository) Exists(ctx context.Context, jobID kernel.UUID, targetType review.TargetType) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&ReviewDTO{}).
		Where("job_id = ? AND target_type = ?", jobID.Google(), targetType.String()).
		Count(&count).Error
	return count > 0, err
}

func (r *GormReviewRepository) Summary(ctx context.Context, targetType review.TargetType, targetID kernel.UUID) (review.Summary, error) {
	var row struct {
		Count   int
		Average float64
	}
	err := r.db.WithContext(ctx).
		Model(&ReviewDTO{}).
		Select("COUNT(*) AS count, COALESCE(AVG(rating), 0) AS average").
		Where("target_type = ? AND target_id = ?", targetType.String(), targetID.Google()).
		Scan(&row).Error
	if err != nil {
		return review.Summary{}, err
	}

	return review.Summary{
		TargetType: targetType,
		TargetID:   targetID,
		Count:      row.Count,
		Average:    row.Average,
	}, nil
}
