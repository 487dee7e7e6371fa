package job_test

import (
	"testing"
	"time"

	"fulfillment/internal/core/domain/model/job"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func stops() (job.Stop, job.Stop) {
	return job.Stop{Location: kernel.MustNewLocation(40.7128, -74.0060), Address: "City Hall"},
		job.Stop{Location: kernel.MustNewLocation(40.7589, -73.9851), Address: "Times Square"}
}

func newParcelJob(t *testing.T, customerID kernel.UUID) *job.Job {
	t.Helper()
	pickup, dropoff := stops()
	details, err := job.NewParcelDetails(job.SizeSmall, nil, "Ann", "+15550100", "")
	require.NoError(t, err)
	fee, err := job.NewFee(5.42, 2, 8.13, 0)
	require.NoError(t, err)

	j, err := job.NewParcelJob(kernel.NewUUID(), customerID, pickup, dropoff, details, fee, t0)
	require.NoError(t, err)
	return j
}

func newFoodJob(t *testing.T, customerID kernel.UUID) *job.Job {
	t.Helper()
	pickup, dropoff := stops()
	item, err := job.NewLineItem(kernel.NewUUID(), 2, 5)
	require.NoError(t, err)
	details, err := job.NewFoodDetails(kernel.NewUUID(), []job.LineItem{item}, 0.1, "")
	require.NoError(t, err)
	fee, err := job.NewFee(5.42, 2, 8.13, 0)
	require.NoError(t, err)

	j, err := job.NewFoodJob(kernel.NewUUID(), customerID, pickup, dropoff, details, fee, t0)
	require.NoError(t, err)
	return j
}

func TestNewParcelJob(t *testing.T) {
	customerID := kernel.NewUUID()

	j := newParcelJob(t, customerID)

	require.NoError(t, j.Validate())
	assert.Equal(t, job.KindParcel, j.Kind())
	assert.Equal(t, job.Pending, j.Status())
	assert.Nil(t, j.DriverID())
	assert.True(t, j.IsOpen())
	assert.True(t, j.CustomerID().IsEqual(customerID))
	assert.InDelta(t, 10.13, j.Fee().Total(), 1e-9)
	assert.InDelta(t, 10.13, j.Total(), 1e-9)
	_, ok := j.Food()
	assert.False(t, ok)
	parcel, ok := j.Parcel()
	assert.True(t, ok)
	assert.Equal(t, job.SizeSmall, parcel.Size())
}

func TestNewFoodJob_TotalIncludesSubtotalAndTax(t *testing.T) {
	j := newFoodJob(t, kernel.NewUUID())

	food, ok := j.Food()
	require.True(t, ok)
	assert.InDelta(t, 10, food.Subtotal(), 1e-9)
	assert.InDelta(t, 1, food.Tax(), 1e-9)
	assert.InDelta(t, 21.13, j.Total(), 1e-9)
}

func TestNewParcelJob_Validation(t *testing.T) {
	details, err := job.NewParcelDetails(job.SizeSmall, nil, "Ann", "+15550100", "")
	require.NoError(t, err)

	j, err := job.NewParcelJob(kernel.UUID{}, kernel.UUID{}, job.Stop{}, job.Stop{}, details, job.Fee{}, t0)

	require.Error(t, err)
	assert.Nil(t, j)
	require.ErrorIs(t, err, kernel.ErrInvalidGeometry)
	assert.Contains(t, err.Error(), "customerID")
	assert.Contains(t, err.Error(), "fee must be created")
}

func TestJob_HappyPath(t *testing.T) {
	j := newParcelJob(t, kernel.NewUUID())
	driverID := kernel.NewUUID()
	var seen []job.Status

	record := func(c job.StatusChanged, err error) {
		t.Helper()
		require.NoError(t, err)
		if len(seen) == 0 {
			seen = append(seen, c.From)
		}
		seen = append(seen, c.To)
	}

	record(j.Claim(driverID, t0.Add(time.Minute)))
	record(j.PickUp(driverID, t0.Add(2*time.Minute)))
	record(j.Depart(driverID, t0.Add(3*time.Minute)))
	record(j.Deliver(driverID, t0.Add(4*time.Minute)))

	assert.Equal(t, []job.Status{job.Pending, job.Accepted, job.PickedUp, job.EnRoute, job.Delivered}, seen)
	assert.True(t, j.IsReviewable())
	assert.True(t, j.IsAssignedTo(driverID))
	require.NotNil(t, j.PickedUpAt())
	require.NotNil(t, j.DeliveredAt())
	assert.Equal(t, t0.Add(4*time.Minute), *j.DeliveredAt())
	assert.Equal(t, t0.Add(4*time.Minute), j.UpdatedAt())
}

func TestJob_DeliverSkippingEnRoute(t *testing.T) {
	j := newParcelJob(t, kernel.NewUUID())
	driverID := kernel.NewUUID()
	_, err := j.Claim(driverID, t0)
	require.NoError(t, err)
	_, err = j.PickUp(driverID, t0)
	require.NoError(t, err)

	changed, err := j.Deliver(driverID, t0)

	require.NoError(t, err)
	assert.Equal(t, job.PickedUp, changed.From)
	assert.Equal(t, job.Delivered, changed.To)
}

func TestJob_Claim(t *testing.T) {
	t.Run("second claim loses", func(t *testing.T) {
		j := newParcelJob(t, kernel.NewUUID())
		winner, loser := kernel.NewUUID(), kernel.NewUUID()

		changed, err := j.Claim(winner, t0)
		require.NoError(t, err)
		require.NotNil(t, changed.DriverID)
		assert.True(t, changed.DriverID.IsEqual(winner))

		_, err = j.Claim(loser, t0)

		require.ErrorIs(t, err, job.ErrAlreadyClaimed)
		assert.True(t, j.IsAssignedTo(winner))
	})

	t.Run("cancelled job cannot be claimed", func(t *testing.T) {
		customerID := kernel.NewUUID()
		j := newParcelJob(t, customerID)
		_, err := j.Cancel(customerID, t0)
		require.NoError(t, err)

		_, err = j.Claim(kernel.NewUUID(), t0)

		var claimed *job.AlreadyClaimedError
		require.ErrorAs(t, err, &claimed)
		assert.Equal(t, job.Cancelled, claimed.Status)
	})
}

func TestJob_Release(t *testing.T) {
	j := newParcelJob(t, kernel.NewUUID())
	driverID := kernel.NewUUID()
	_, err := j.Claim(driverID, t0)
	require.NoError(t, err)

	t.Run("other driver is forbidden", func(t *testing.T) {
		_, err := j.Release(kernel.NewUUID(), t0)

		require.ErrorIs(t, err, errs.ErrForbidden)
		assert.Equal(t, job.Accepted, j.Status())
	})

	t.Run("assigned driver reopens the job", func(t *testing.T) {
		changed, err := j.Release(driverID, t0)

		require.NoError(t, err)
		assert.Equal(t, job.Pending, changed.To)
		require.NotNil(t, changed.DriverID)
		assert.Nil(t, j.DriverID())
		assert.True(t, j.IsOpen())
	})
}

func TestJob_Cancel(t *testing.T) {
	t.Run("only the customer may cancel", func(t *testing.T) {
		j := newParcelJob(t, kernel.NewUUID())

		_, err := j.Cancel(kernel.NewUUID(), t0)

		require.ErrorIs(t, err, errs.ErrForbidden)
		assert.Equal(t, job.Pending, j.Status())
	})

	t.Run("accepted job can be cancelled", func(t *testing.T) {
		customerID := kernel.NewUUID()
		j := newParcelJob(t, customerID)
		_, err := j.Claim(kernel.NewUUID(), t0)
		require.NoError(t, err)

		changed, err := j.Cancel(customerID, t0)

		require.NoError(t, err)
		assert.Equal(t, job.Cancelled, changed.To)
		assert.NotNil(t, changed.DriverID)
	})

	t.Run("picked up job cannot be cancelled", func(t *testing.T) {
		customerID, driverID := kernel.NewUUID(), kernel.NewUUID()
		j := newParcelJob(t, customerID)
		_, err := j.Claim(driverID, t0)
		require.NoError(t, err)
		_, err = j.PickUp(driverID, t0)
		require.NoError(t, err)

		_, err = j.Cancel(customerID, t0)

		require.ErrorIs(t, err, job.ErrIllegalTransition)
		assert.Equal(t, job.PickedUp, j.Status())
	})
}

func TestJob_DeliveredIsTerminal(t *testing.T) {
	customerID, driverID := kernel.NewUUID(), kernel.NewUUID()
	j := newParcelJob(t, customerID)
	_, _ = j.Claim(driverID, t0)
	_, _ = j.PickUp(driverID, t0)
	_, err := j.Deliver(driverID, t0)
	require.NoError(t, err)

	_, err = j.Cancel(customerID, t0)
	require.ErrorIs(t, err, job.ErrIllegalTransition)
	_, err = j.Fail(t0)
	require.ErrorIs(t, err, job.ErrIllegalTransition)
	_, err = j.Deliver(driverID, t0)
	require.ErrorIs(t, err, job.ErrIllegalTransition)
	assert.Equal(t, job.Delivered, j.Status())
}

func TestJob_Fail(t *testing.T) {
	j := newParcelJob(t, kernel.NewUUID())

	changed, err := j.Fail(t0)

	require.NoError(t, err)
	assert.Equal(t, job.Pending, changed.From)
	assert.Equal(t, job.Failed, j.Status())
}

func TestJob_RecordFailedAttempt(t *testing.T) {
	driverID := kernel.NewUUID()
	policy, err := job.NewFailurePolicy(2)
	require.NoError(t, err)

	t.Run("not before pickup", func(t *testing.T) {
		j := newParcelJob(t, kernel.NewUUID())
		_, _ = j.Claim(driverID, t0)

		_, failed, err := j.RecordFailedAttempt(driverID, policy, t0)

		require.ErrorIs(t, err, job.ErrIllegalTransition)
		assert.False(t, failed)
		assert.Zero(t, j.FailedAttempts())
	})

	t.Run("fails once the policy is exhausted", func(t *testing.T) {
		j := newParcelJob(t, kernel.NewUUID())
		_, _ = j.Claim(driverID, t0)
		_, _ = j.PickUp(driverID, t0)

		_, failed, err := j.RecordFailedAttempt(driverID, policy, t0)
		require.NoError(t, err)
		assert.False(t, failed)
		assert.Equal(t, job.PickedUp, j.Status())

		changed, failed, err := j.RecordFailedAttempt(driverID, policy, t0)
		require.NoError(t, err)
		assert.True(t, failed)
		assert.Equal(t, job.Failed, changed.To)
		assert.Equal(t, 2, j.FailedAttempts())
	})
}

func TestJob_ApplyDriverEvent(t *testing.T) {
	driverID := kernel.NewUUID()
	j := newParcelJob(t, kernel.NewUUID())
	_, err := j.Claim(driverID, t0)
	require.NoError(t, err)

	_, err = j.ApplyDriverEvent(driverID, job.EventClaim, t0)
	require.ErrorIs(t, err, job.ErrIllegalTransition)

	_, err = j.ApplyDriverEvent(driverID, job.EventCancel, t0)
	require.ErrorIs(t, err, job.ErrIllegalTransition)

	changed, err := j.ApplyDriverEvent(driverID, job.EventPickUp, t0)
	require.NoError(t, err)
	assert.Equal(t, job.PickedUp, changed.To)
}

func TestJob_Clone(t *testing.T) {
	j := newFoodJob(t, kernel.NewUUID())
	driverID := kernel.NewUUID()

	c := j.Clone()
	_, err := c.Claim(driverID, t0)
	require.NoError(t, err)

	assert.Equal(t, job.Pending, j.Status())
	assert.Nil(t, j.DriverID())
	assert.Equal(t, job.Accepted, c.Status())
	assert.True(t, c.ID().IsEqual(j.ID()))
}

func TestRestoreJob(t *testing.T) {
	pickup, dropoff := stops()
	fee, err := job.RestoreFee(6.4, 2, 9.6, 0, 11.60)
	require.NoError(t, err)
	details, err := job.NewParcelDetails(job.SizeLarge, nil, "Ann", "+15550100", "")
	require.NoError(t, err)
	driverID := kernel.NewUUID()

	params := job.RestoreParams{
		ID:         kernel.NewUUID(),
		Kind:       job.KindParcel,
		CustomerID: kernel.NewUUID(),
		DriverID:   &driverID,
		Status:     job.EnRoute,
		Pickup:     pickup,
		Dropoff:    dropoff,
		Fee:        fee,
		Parcel:     &details,
		CreatedAt:  t0,
		UpdatedAt:  t0,
	}

	t.Run("restores stored fee verbatim", func(t *testing.T) {
		j, err := job.RestoreJob(params)

		require.NoError(t, err)
		assert.InDelta(t, 11.60, j.Fee().Total(), 1e-9)
		assert.Equal(t, job.EnRoute, j.Status())
	})

	t.Run("active status requires a driver", func(t *testing.T) {
		p := params
		p.DriverID = nil

		_, err := job.RestoreJob(p)

		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("pending must be unassigned", func(t *testing.T) {
		p := params
		p.Status = job.Pending

		_, err := job.RestoreJob(p)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("payload must match kind", func(t *testing.T) {
		p := params
		p.Kind = job.KindFood

		_, err := job.RestoreJob(p)

		require.ErrorContains(t, err, "payload does not match kind")
	})
}
