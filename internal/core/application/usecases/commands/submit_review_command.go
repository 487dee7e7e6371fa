package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/review"
	"fulfillment/internal/pkg/guard"
)

var ErrSubmitReviewCommandIsNotConstructed = errors.New(
	"SubmitReviewCommand must be created via NewSubmitReviewCommand constructor",
)

// SubmitReviewCommand represents a customer's rating of the restaurant or
// the driver of a delivered job. The rating range is configuration, so it is
// checked by the review gate rather than here.
type SubmitReviewCommand struct { //nolint:recvcheck //using for validation
	authorID   kernel.UUID
	jobID      kernel.UUID
	targetType review.TargetType
	rating     int
	comment    string

	guard guard.ConstructorGuard
}

func NewSubmitReviewCommand(
	authorID kernel.UUID,
	jobID kernel.UUID,
	targetType review.TargetType,
	rating int,
	comment string,
) (SubmitReviewCommand, error) {
	command := SubmitReviewCommand{
		rating:  rating,
		comment: comment,
		guard:   guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		command.setAuthorID(authorID),
		command.setJobID(jobID),
		command.setTargetType(targetType),
	); err != nil {
		return SubmitReviewCommand{}, err
	}

	return command, nil
}

// Validate ensures the command was created through the constructor.
func (c SubmitReviewCommand) Validate() error {
	return c.guard.Validate(ErrSubmitReviewCommandIsNotConstructed)
}

func (c SubmitReviewCommand) AuthorID() kernel.UUID         { return c.authorID }
func (c SubmitReviewCommand) JobID() kernel.UUID            { return c.jobID }
func (c SubmitReviewCommand) TargetType() review.TargetType { return c.targetType }
func (c SubmitReviewCommand) Rating() int                   { return c.rating }
func (c SubmitReviewCommand) Comment() string               { return c.comment }

func (c *SubmitReviewCommand) setAuthorID(authorID kernel.UUID) error {
	if err := authorID.Validate(); err != nil {
		return err
	}

	c.authorID = authorID
	return nil
}

func (c *SubmitReviewCommand) setJobID(jobID kernel.UUID) error {
	if err := jobID.Validate(); err != nil {
		return err
	}

	c.jobID = jobID
	return nil
}

func (c *SubmitReviewCommand) setTargetType(targetType review.TargetType) error {
	if err := targetType.Validate(); err != nil {
		return err
	}

	c.targetType = targetType
	return nil
}
