// Package reviewrepo persists reviews with GORM. The unique index on
// (job_id, target_type) is what makes a second review of the same target
// fail, even when two requests race.
package reviewrepo

import (
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/review"

	"github.com/google/uuid"
)

type ReviewDTO struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	JobID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reviews_job_target,priority:1"`
	TargetType string    `gorm:"type:varchar(16);not null;uniqueIndex:idx_reviews_job_target,priority:2;index:idx_reviews_target,priority:1"`
	TargetID   uuid.UUID `gorm:"type:uuid;not null;index:idx_reviews_target,priority:2"`
	AuthorID   uuid.UUID `gorm:"type:uuid;not null"`
	Rating     int       `gorm:"type:int;not null"`
	Comment    string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime:false"`
}

func (ReviewDTO) TableName() string {
	return "reviews"
}

func fromDomain(r *review.Review) ReviewDTO {
	return ReviewDTO{
		ID:         r.ID().Google(),
		JobID:      r.JobID().Google(),
		TargetType: r.TargetType().String(),
		TargetID:   r.TargetID().Google(),
		AuthorID:   r.AuthorID().Google(),
		Rating:     r.Rating(),
		Comment:    r.Comment(),
		CreatedAt:  r.CreatedAt(),
	}
}

func toDomain(dto ReviewDTO) (*review.Review, error) {
	ids := make([]kernel.UUID, 0, 4)
	for _, raw := range []uuid.UUID{dto.ID, dto.JobID, dto.AuthorID, dto.TargetID} {
		id, err := kernel.UUIDFromGoogle(raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	targetType, err := review.ParseTargetType(dto.TargetType)
	if err != nil {
		return nil, err
	}
	return review.RestoreReview(ids[0], ids[1], ids[2], targetType, ids[3], dto.Rating, dto.Comment, dto.CreatedAt)
}
