package dispatch_test

import (
	"errors"
	"sync"
	"testing"

	"fulfillment/internal/core/application/dispatch"
	"fulfillment/internal/core/domain/model/driver"
	"fulfillment/internal/core/domain/model/job"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMetrics struct{ mock.Mock }

func (m *MockMetrics) ClaimResolved(kind job.Kind, outcome dispatch.ClaimOutcome) {
	m.Called(kind, outcome)
}

func (m *MockMetrics) StatusChanged(ev job.StatusChanged) {
	m.Called(ev)
}

func (m *MockMetrics) FeeComputed(kind job.Kind, fee job.Fee) {
	m.Called(kind, fee)
}

func TestCoordinator_ConcurrentAcceptsHaveOneWinner(t *testing.T) {
	f := newFixture(t)
	j := f.parcelJob(t, kernel.NewUUID())

	const n = 50
	drivers := make([]kernel.UUID, n)
	for i := range drivers {
		drivers[i] = f.onlineDriver(t, cityHall)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []kernel.UUID
		losers  int
		other   []error
	)
	start := make(chan struct{})
	for _, driverID := range drivers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.coordinator.Accept(t.Context(), driverID, j.ID())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners = append(winners, driverID)
			case errors.Is(err, job.ErrAlreadyClaimed):
				losers++
			default:
				other = append(other, err)
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Empty(t, other)
	require.Len(t, winners, 1)
	assert.Equal(t, n-1, losers)

	claimed := f.job(t, j.ID())
	assert.Equal(t, job.Accepted, claimed.Status())
	assert.True(t, claimed.IsAssignedTo(winners[0]))

	for _, driverID := range drivers {
		d := f.driver(t, driverID)
		if driverID.IsEqual(winners[0]) {
			assert.False(t, d.Available())
			continue
		}
		assert.True(t, d.Available(), "losing claims leave no reservation behind")
	}
}

func TestCoordinator_BusyDriverCannotClaimAnotherJob(t *testing.T) {
	f := newFixture(t)
	driverID := f.onlineDriver(t, cityHall)
	first := f.parcelJob(t, kernel.NewUUID())
	second := f.parcelJob(t, kernel.NewUUID())
	_, err := f.coordinator.Accept(t.Context(), driverID, first.ID())
	require.NoError(t, err)

	_, err = f.coordinator.Accept(t.Context(), driverID, second.ID())

	var busy *driver.DriverBusyError
	require.ErrorAs(t, err, &busy)
	assert.True(t, busy.ActiveJobID.IsEqual(first.ID()))

	untouched := f.job(t, second.ID())
	assert.Equal(t, job.Pending, untouched.Status())
	assert.Nil(t, untouched.DriverID())
	assert.True(t, f.job(t, first.ID()).IsAssignedTo(driverID))
}

func TestClaimArbiter_Outcomes(t *testing.T) {
	f := newFixture(t)
	metrics := new(MockMetrics)
	metrics.On("ClaimResolved", mock.Anything, mock.Anything).Return()
	arbiter := dispatch.NewClaimArbiter(f.jobs, f.drivers, metrics, f.clock.Now, nil)

	parcelDriver := f.onlineDriver(t, cityHall, job.KindParcel)
	foodDriver := f.onlineDriver(t, cityHall, job.KindFood)
	j := f.parcelJob(t, kernel.NewUUID())

	t.Run("unknown job", func(t *testing.T) {
		_, err := arbiter.Claim(t.Context(), kernel.NewUUID(), parcelDriver)

		require.ErrorIs(t, err, errs.ErrObjectNotFound)
		metrics.AssertCalled(t, "ClaimResolved", job.KindUnknown, dispatch.ClaimNotFound)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := arbiter.Claim(t.Context(), j.ID(), kernel.NewUUID())

		require.ErrorIs(t, err, errs.ErrObjectNotFound)
		assert.Equal(t, job.Pending, f.job(t, j.ID()).Status())
	})

	t.Run("driver does not take the kind", func(t *testing.T) {
		_, err := arbiter.Claim(t.Context(), j.ID(), foodDriver)

		require.ErrorIs(t, err, errs.ErrForbidden)
		metrics.AssertCalled(t, "ClaimResolved", job.KindParcel, dispatch.ClaimRejected)
		assert.True(t, f.driver(t, foodDriver).Available())
	})

	t.Run("accepted", func(t *testing.T) {
		res, err := arbiter.Claim(t.Context(), j.ID(), parcelDriver)

		require.NoError(t, err)
		assert.Equal(t, job.Pending, res.Change.From)
		assert.Equal(t, job.Accepted, res.Change.To)
		assert.True(t, res.Job.IsAssignedTo(parcelDriver))
		require.NotNil(t, res.Driver.ActiveJobID())
		assert.True(t, res.Driver.ActiveJobID().IsEqual(j.ID()))
		metrics.AssertCalled(t, "ClaimResolved", job.KindParcel, dispatch.ClaimAccepted)
	})

	t.Run("already claimed", func(t *testing.T) {
		late := f.onlineDriver(t, cityHall, job.KindParcel)

		_, err := arbiter.Claim(t.Context(), j.ID(), late)

		var claimed *job.AlreadyClaimedError
		require.ErrorAs(t, err, &claimed)
		assert.Equal(t, job.Accepted, claimed.Status)
		assert.True(t, f.driver(t, late).Available())
		metrics.AssertCalled(t, "ClaimResolved", job.KindParcel, dispatch.ClaimAlreadyClaimed)
	})
}
