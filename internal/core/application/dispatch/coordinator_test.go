package dispatch_test

import (
	"errors"
	"testing"
	"time"

	"fulfillment/internal/core/application/dispatch"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/job"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewCoordinator_RequiresCollaborators(t *testing.T) {
	_, err := dispatch.NewCoordinator(dispatch.Deps{}, dispatch.DefaultConfig())

	require.ErrorIs(t, err, errs.ErrValueIsRequired)
}

func TestCoordinator_CreateParcelJob(t *testing.T) {
	f := newFixture(t)
	near := f.onlineDriver(t, timesSquare)
	nearest := f.onlineDriver(t, cityHall)
	f.onlineDriver(t, boston)
	f.onlineDriver(t, cityHall, job.KindFood)

	j := f.parcelJob(t, kernel.NewUUID())

	assert.Equal(t, job.Pending, j.Status())
	assert.Nil(t, j.DriverID())
	assert.InDelta(t, 5.42, j.Fee().DistanceKm(), 0.005)
	assert.InDelta(t, 10.13, j.Fee().Total(), 1e-9)
	assert.InDelta(t, j.Fee().Total(), f.job(t, j.ID()).Fee().Total(), 1e-9, "fee is stored as computed")

	f.notifier.AssertCalled(t, "JobOffered", mock.Anything, mock.MatchedBy(func(o ports.Offer) bool {
		return o.JobID.IsEqual(j.ID()) &&
			len(o.DriverIDs) == 2 &&
			o.DriverIDs[0].IsEqual(nearest) &&
			o.DriverIDs[1].IsEqual(near)
	}))
}

func TestCoordinator_CreateParcelJob_RejectsUnconstructedCommand(t *testing.T) {
	f := newFixture(t)

	_, err := f.coordinator.CreateParcelJob(t.Context(), commands.CreateParcelJobCommand{})

	require.ErrorIs(t, err, commands.ErrCreateParcelJobCommandIsNotConstructed)
}

func TestCoordinator_CreateFoodJob(t *testing.T) {
	f := newFixture(t)

	j := f.foodJob(t, kernel.NewUUID())

	food, ok := j.Food()
	require.True(t, ok)
	assert.True(t, j.Pickup().Location.IsEqual(pizzeria))
	assert.Equal(t, "7 Carmine St", j.Pickup().Address)
	assert.InDelta(t, 27.25, food.Subtotal(), 1e-9)
	assert.InDelta(t, 2.18, food.Tax(), 1e-9)
	assert.Zero(t, j.Fee().Surcharge())
	assert.InDelta(t, 27.25+2.18+j.Fee().Total(), j.Total(), 1e-9)
}

func TestCoordinator_CreateFoodJob_CatalogChecks(t *testing.T) {
	f := newFixture(t)
	dropoff := job.Stop{Location: cityHall}

	t.Run("sold out item", func(t *testing.T) {
		cmd, err := commands.NewCreateFoodJobCommand(kernel.NewUUID(), f.restaurantID, dropoff,
			[]commands.OrderLine{{MenuItemID: f.soldOutID, Quantity: 1}}, "")
		require.NoError(t, err)

		_, err = f.coordinator.CreateFoodJob(t.Context(), cmd)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("closed restaurant", func(t *testing.T) {
		cmd, err := commands.NewCreateFoodJobCommand(kernel.NewUUID(), f.closedID, dropoff,
			[]commands.OrderLine{{MenuItemID: f.pizzaID, Quantity: 1}}, "")
		require.NoError(t, err)

		_, err = f.coordinator.CreateFoodJob(t.Context(), cmd)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("unknown restaurant", func(t *testing.T) {
		cmd, err := commands.NewCreateFoodJobCommand(kernel.NewUUID(), kernel.NewUUID(), dropoff,
			[]commands.OrderLine{{MenuItemID: f.pizzaID, Quantity: 1}}, "")
		require.NoError(t, err)

		_, err = f.coordinator.CreateFoodJob(t.Context(), cmd)

		require.ErrorIs(t, err, errs.ErrObjectNotFound)
	})
}

func TestCoordinator_ListOpenJobs(t *testing.T) {
	f := newFixture(t)
	j := f.parcelJob(t, kernel.NewUUID())
	nearby := f.onlineDriver(t, timesSquare)
	faraway := f.onlineDriver(t, boston)
	foodOnly := f.onlineDriver(t, cityHall, job.KindFood)

	open, err := f.coordinator.ListOpenJobs(t.Context(), nearby, job.KindParcel, ports.Page{})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.True(t, open[0].ID().IsEqual(j.ID()))

	open, err = f.coordinator.ListOpenJobs(t.Context(), faraway, job.KindParcel, ports.Page{})
	require.NoError(t, err)
	assert.Empty(t, open)

	open, err = f.coordinator.ListOpenJobs(t.Context(), foodOnly, job.KindParcel, ports.Page{})
	require.NoError(t, err)
	assert.Empty(t, open)

	_, err = f.coordinator.ListOpenJobs(t.Context(), kernel.NewUUID(), job.KindParcel, ports.Page{})
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
}

func TestCoordinator_ListOpenJobs_NearbyJobBehindDistantOnes(t *testing.T) {
	f := newFixture(t)
	for range ports.DefaultPageLimit + 10 {
		f.parcelJobFrom(t, kernel.NewUUID(), boston)
		f.clock.Advance(time.Second)
	}
	local := f.parcelJob(t, kernel.NewUUID())
	driverID := f.onlineDriver(t, cityHall)

	open, err := f.coordinator.ListOpenJobs(t.Context(), driverID, job.KindParcel, ports.Page{})

	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.True(t, open[0].ID().IsEqual(local.ID()))
}

func TestCoordinator_FullLifecycle(t *testing.T) {
	f := newFixture(t)
	customerID := kernel.NewUUID()
	driverID := f.onlineDriver(t, cityHall)
	j := f.foodJob(t, customerID)

	accepted, err := f.coordinator.Accept(t.Context(), driverID, j.ID())
	require.NoError(t, err)
	assert.Equal(t, job.Accepted, accepted.Status())
	assert.False(t, f.driver(t, driverID).Available())

	current, err := f.coordinator.DriverCurrentJobs(t.Context(), driverID)
	require.NoError(t, err)
	require.Len(t, current, 1)

	f.deliver(t, driverID, j.ID())

	delivered := f.job(t, j.ID())
	assert.Equal(t, job.Delivered, delivered.Status())
	assert.NotNil(t, delivered.PickedUpAt())
	assert.NotNil(t, delivered.DeliveredAt())

	d := f.driver(t, driverID)
	assert.True(t, d.Available())
	assert.Equal(t, 1, d.TotalDeliveries())

	var seen []job.Status
	for _, call := range f.notifier.Calls {
		if call.Method == "JobStatusChanged" {
			seen = append(seen, call.Arguments.Get(1).(job.StatusChanged).To)
		}
	}
	assert.Equal(t, []job.Status{job.Accepted, job.PickedUp, job.EnRoute, job.Delivered}, seen)

	owned, err := f.coordinator.CustomerJobs(t.Context(), customerID, ports.Page{})
	require.NoError(t, err)
	assert.Len(t, owned, 1)
}

func TestCoordinator_UpdateStatus_Guards(t *testing.T) {
	f := newFixture(t)
	driverID := f.onlineDriver(t, cityHall)
	other := f.onlineDriver(t, cityHall)
	j := f.parcelJob(t, kernel.NewUUID())
	_, err := f.coordinator.Accept(t.Context(), driverID, j.ID())
	require.NoError(t, err)

	t.Run("claim is not a status update", func(t *testing.T) {
		_, err := f.coordinator.UpdateStatus(t.Context(), driverID, j.ID(), job.EventClaim)

		var illegal *job.IllegalTransitionError
		require.ErrorAs(t, err, &illegal)
		assert.Equal(t, job.Accepted, illegal.From)
	})

	t.Run("skipping pick up", func(t *testing.T) {
		_, err := f.coordinator.UpdateStatus(t.Context(), driverID, j.ID(), job.EventDeliver)

		require.ErrorIs(t, err, job.ErrIllegalTransition)
		assert.Equal(t, job.Accepted, f.job(t, j.ID()).Status())
	})

	t.Run("another driver", func(t *testing.T) {
		_, err := f.coordinator.UpdateStatus(t.Context(), other, j.ID(), job.EventPickUp)

		require.ErrorIs(t, err, errs.ErrForbidden)
	})

	t.Run("unknown job", func(t *testing.T) {
		_, err := f.coordinator.UpdateStatus(t.Context(), driverID, kernel.NewUUID(), job.EventPickUp)

		require.ErrorIs(t, err, errs.ErrObjectNotFound)
	})
}

func TestCoordinator_DriverReleaseReopensJob(t *testing.T) {
	f := newFixture(t)
	driverID := f.onlineDriver(t, cityHall)
	other := f.onlineDriver(t, timesSquare)
	j := f.parcelJob(t, kernel.NewUUID())
	_, err := f.coordinator.Accept(t.Context(), driverID, j.ID())
	require.NoError(t, err)

	open, err := f.coordinator.ListOpenJobs(t.Context(), other, job.KindParcel, ports.Page{})
	require.NoError(t, err)
	assert.Empty(t, open)

	released, err := f.coordinator.Cancel(t.Context(), driverID, j.ID())
	require.NoError(t, err)

	assert.Equal(t, job.Pending, released.Status())
	assert.Nil(t, released.DriverID())
	assert.True(t, f.driver(t, driverID).Available())

	open, err = f.coordinator.ListOpenJobs(t.Context(), other, job.KindParcel, ports.Page{})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.True(t, open[0].ID().IsEqual(j.ID()))

	_, err = f.coordinator.Accept(t.Context(), other, j.ID())
	require.NoError(t, err)
}

func TestCoordinator_CustomerCancel(t *testing.T) {
	f := newFixture(t)
	customerID := kernel.NewUUID()
	driverID := f.onlineDriver(t, cityHall)

	t.Run("pending", func(t *testing.T) {
		j := f.parcelJob(t, customerID)

		cancelled, err := f.coordinator.Cancel(t.Context(), customerID, j.ID())

		require.NoError(t, err)
		assert.Equal(t, job.Cancelled, cancelled.Status())
	})

	t.Run("accepted frees the driver", func(t *testing.T) {
		j := f.parcelJob(t, customerID)
		_, err := f.coordinator.Accept(t.Context(), driverID, j.ID())
		require.NoError(t, err)

		cancelled, err := f.coordinator.Cancel(t.Context(), customerID, j.ID())

		require.NoError(t, err)
		assert.Equal(t, job.Cancelled, cancelled.Status())
		assert.True(t, f.driver(t, driverID).Available())
	})

	t.Run("after pick up", func(t *testing.T) {
		j := f.parcelJob(t, customerID)
		_, err := f.coordinator.Accept(t.Context(), driverID, j.ID())
		require.NoError(t, err)
		_, err = f.coordinator.UpdateStatus(t.Context(), driverID, j.ID(), job.EventPickUp)
		require.NoError(t, err)

		_, err = f.coordinator.Cancel(t.Context(), customerID, j.ID())

		require.ErrorIs(t, err, job.ErrIllegalTransition)
		assert.Equal(t, job.PickedUp, f.job(t, j.ID()).Status())
	})

	t.Run("stranger", func(t *testing.T) {
		j := f.parcelJob(t, customerID)

		_, err := f.coordinator.Cancel(t.Context(), kernel.NewUUID(), j.ID())

		require.ErrorIs(t, err, errs.ErrForbidden)
	})
}

func TestCoordinator_ReportFailedAttempt(t *testing.T) {
	f := newFixture(t)
	driverID := f.onlineDriver(t, cityHall)
	j := f.parcelJob(t, kernel.NewUUID())
	_, err := f.coordinator.Accept(t.Context(), driverID, j.ID())
	require.NoError(t, err)

	_, err = f.coordinator.ReportFailedAttempt(t.Context(), driverID, j.ID())
	require.ErrorIs(t, err, job.ErrIllegalTransition, "goods must be picked up first")

	_, err = f.coordinator.UpdateStatus(t.Context(), driverID, j.ID(), job.EventPickUp)
	require.NoError(t, err)

	for attempt := 1; attempt < job.DefaultMaxAttempts; attempt++ {
		updated, err := f.coordinator.ReportFailedAttempt(t.Context(), driverID, j.ID())
		require.NoError(t, err)
		assert.Equal(t, job.PickedUp, updated.Status())
		assert.Equal(t, attempt, updated.FailedAttempts())
	}

	failed, err := f.coordinator.ReportFailedAttempt(t.Context(), driverID, j.ID())
	require.NoError(t, err)
	assert.Equal(t, job.Failed, failed.Status())
	assert.True(t, f.driver(t, driverID).Available())
}

func TestCoordinator_OfflineDriverKeepsJob(t *testing.T) {
	f := newFixture(t)
	driverID := f.onlineDriver(t, cityHall)
	j := f.parcelJob(t, kernel.NewUUID())
	_, err := f.coordinator.Accept(t.Context(), driverID, j.ID())
	require.NoError(t, err)

	_, err = f.coordinator.SetAvailability(t.Context(), driverID, false)
	require.NoError(t, err)

	assert.True(t, f.job(t, j.ID()).IsAssignedTo(driverID))
	_, err = f.coordinator.UpdateStatus(t.Context(), driverID, j.ID(), job.EventPickUp)
	require.NoError(t, err)

	open, err := f.coordinator.ListOpenJobs(t.Context(), driverID, job.KindParcel, ports.Page{})
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestCoordinator_NotifierFailureDoesNotFailOperation(t *testing.T) {
	f := newFixture(t)
	f.notifier.ExpectedCalls = nil
	f.notifier.On("JobStatusChanged", mock.Anything, mock.Anything).Return(errors.New("broker down"))
	f.notifier.On("JobOffered", mock.Anything, mock.Anything).Return(errors.New("broker down"))
	driverID := f.onlineDriver(t, cityHall)

	j := f.parcelJob(t, kernel.NewUUID())
	accepted, err := f.coordinator.Accept(t.Context(), driverID, j.ID())

	require.NoError(t, err)
	assert.Equal(t, job.Accepted, accepted.Status())
	f.notifier.AssertNumberOfCalls(t, "JobStatusChanged", 1)
}

func TestCoordinator_ExpireStalePending(t *testing.T) {
	f := newFixture(t)
	driverID := f.onlineDriver(t, cityHall)
	stale := f.parcelJob(t, kernel.NewUUID())
	claimed := f.parcelJob(t, kernel.NewUUID())
	_, err := f.coordinator.Accept(t.Context(), driverID, claimed.ID())
	require.NoError(t, err)

	f.clock.Advance(20 * time.Minute)
	fresh := f.parcelJob(t, kernel.NewUUID())

	expired, err := f.coordinator.ExpireStalePending(t.Context(), 15*time.Minute, 100)

	require.NoError(t, err)
	assert.Equal(t, 1, expired)
	assert.Equal(t, job.Failed, f.job(t, stale.ID()).Status())
	assert.Equal(t, job.Accepted, f.job(t, claimed.ID()).Status())
	assert.Equal(t, job.Pending, f.job(t, fresh.ID()).Status())
}

func TestCoordinator_UpdateLocation_RejectsFutureReports(t *testing.T) {
	f := newFixture(t)
	driverID := f.onlineDriver(t, cityHall)

	future, err := commands.NewUpdateLocationCommand(driverID, boston, f.clock.Now().AddDate(1, 0, 0))
	require.NoError(t, err)
	applied, err := f.coordinator.UpdateLocation(t.Context(), future)
	require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
	assert.False(t, applied)

	skewed, err := commands.NewUpdateLocationCommand(driverID, brooklyn, f.clock.Now().Add(dispatch.DefaultMaxClockSkew))
	require.NoError(t, err)
	applied, err = f.coordinator.UpdateLocation(t.Context(), skewed)
	require.NoError(t, err)
	assert.True(t, applied)

	f.clock.Advance(5 * time.Minute)
	current, err := commands.NewUpdateLocationCommand(driverID, timesSquare, f.clock.Now())
	require.NoError(t, err)
	applied, err = f.coordinator.UpdateLocation(t.Context(), current)
	require.NoError(t, err)
	assert.True(t, applied)

	loc, ok := f.driver(t, driverID).Location()
	require.True(t, ok)
	assert.True(t, loc.IsEqual(timesSquare))
}

func TestCoordinator_UpdateLocation_LastWriteWins(t *testing.T) {
	f := newFixture(t)
	driverID := f.onlineDriver(t, cityHall)

	older, err := commands.NewUpdateLocationCommand(driverID, boston, f.clock.Now().Add(-time.Minute))
	require.NoError(t, err)
	applied, err := f.coordinator.UpdateLocation(t.Context(), older)
	require.NoError(t, err)
	assert.False(t, applied)

	newer, err := commands.NewUpdateLocationCommand(driverID, brooklyn, f.clock.Now().Add(time.Minute))
	require.NoError(t, err)
	applied, err = f.coordinator.UpdateLocation(t.Context(), newer)
	require.NoError(t, err)
	assert.True(t, applied)

	loc, ok := f.driver(t, driverID).Location()
	require.True(t, ok)
	assert.True(t, loc.IsEqual(brooklyn))
}
