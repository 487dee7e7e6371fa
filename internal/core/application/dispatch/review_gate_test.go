package dispatch_test

import (
	"testing"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/review"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submit(t *testing.T, f *fixture, authorID, jobID kernel.UUID, target review.TargetType, rating int) (*review.Review, error) {
	t.Helper()
	cmd, err := commands.NewSubmitReviewCommand(authorID, jobID, target, rating, "")
	require.NoError(t, err)
	return f.coordinator.SubmitReview(t.Context(), cmd)
}

func TestCoordinator_SubmitReview(t *testing.T) {
	f := newFixture(t)
	customerID := kernel.NewUUID()
	driverID := f.onlineDriver(t, cityHall)
	j := f.foodJob(t, customerID)
	_, err := f.coordinator.Accept(t.Context(), driverID, j.ID())
	require.NoError(t, err)

	t.Run("before delivery", func(t *testing.T) {
		_, err := submit(t, f, customerID, j.ID(), review.TargetDriver, 5)

		require.ErrorIs(t, err, review.ErrNotEligible)
		ok, err := f.coordinator.CanReview(t.Context(), j.ID(), review.TargetDriver)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	f.deliver(t, driverID, j.ID())

	t.Run("rating out of bounds", func(t *testing.T) {
		_, err := submit(t, f, customerID, j.ID(), review.TargetDriver, 6)

		var invalid *review.InvalidRatingError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, 1, invalid.Min)
		assert.Equal(t, 5, invalid.Max)
	})

	t.Run("not the customer", func(t *testing.T) {
		_, err := submit(t, f, kernel.NewUUID(), j.ID(), review.TargetDriver, 5)

		require.ErrorIs(t, err, errs.ErrForbidden)
	})

	t.Run("driver and restaurant once each", func(t *testing.T) {
		ok, err := f.coordinator.CanReview(t.Context(), j.ID(), review.TargetDriver)
		require.NoError(t, err)
		assert.True(t, ok)

		r, err := submit(t, f, customerID, j.ID(), review.TargetDriver, 4)
		require.NoError(t, err)
		assert.True(t, r.TargetID().IsEqual(driverID))

		r, err = submit(t, f, customerID, j.ID(), review.TargetRestaurant, 5)
		require.NoError(t, err)
		assert.True(t, r.TargetID().IsEqual(f.restaurantID))

		_, err = submit(t, f, customerID, j.ID(), review.TargetDriver, 1)
		require.ErrorIs(t, err, review.ErrDuplicateReview)

		ok, err = f.coordinator.CanReview(t.Context(), j.ID(), review.TargetDriver)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("summary", func(t *testing.T) {
		summary, err := f.coordinator.RatingSummary(t.Context(), review.TargetDriver, driverID)

		require.NoError(t, err)
		assert.Equal(t, 1, summary.Count)
		assert.InDelta(t, 4.0, summary.Average, 1e-9)
	})
}

func TestCoordinator_SubmitReview_ParcelHasNoRestaurant(t *testing.T) {
	f := newFixture(t)
	customerID := kernel.NewUUID()
	driverID := f.onlineDriver(t, cityHall)
	j := f.parcelJob(t, customerID)
	_, err := f.coordinator.Accept(t.Context(), driverID, j.ID())
	require.NoError(t, err)
	f.deliver(t, driverID, j.ID())

	_, err = submit(t, f, customerID, j.ID(), review.TargetRestaurant, 5)

	require.ErrorIs(t, err, review.ErrNotEligible)
}

func TestCoordinator_SubmitReview_UnknownJob(t *testing.T) {
	f := newFixture(t)

	_, err := submit(t, f, kernel.NewUUID(), kernel.NewUUID(), review.TargetDriver, 3)

	require.ErrorIs(t, err, errs.ErrObjectNotFound)
}
