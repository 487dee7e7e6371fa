package dispatch_test

import (
	"testing"

	"fulfillment/internal/core/domain/model/driver"
	"fulfillment/internal/core/domain/model/job"
	"fulfillment/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reserve simulates the first half of a claim whose second half never ran.
func reserve(t *testing.T, f *fixture, driverID, jobID kernel.UUID) {
	t.Helper()
	_, err := f.drivers.Update(t.Context(), driverID, func(d *driver.Driver) error {
		return d.Reserve(jobID)
	})
	require.NoError(t, err)
}

func TestCoordinator_ReconcileDrivers(t *testing.T) {
	f := newFixture(t)
	customerID := kernel.NewUUID()

	holder := f.onlineDriver(t, cityHall)
	held := f.parcelJob(t, customerID)
	_, err := f.coordinator.Accept(t.Context(), holder, held.ID())
	require.NoError(t, err)

	crashed := f.onlineDriver(t, cityHall)
	pending := f.parcelJob(t, customerID)
	reserve(t, f, crashed, pending.ID())

	stuck := f.onlineDriver(t, cityHall)
	cancelled := f.parcelJob(t, customerID)
	_, err = f.coordinator.Cancel(t.Context(), customerID, cancelled.ID())
	require.NoError(t, err)
	reserve(t, f, stuck, cancelled.ID())

	released, err := f.coordinator.ReconcileDrivers(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, released, "terminal jobs are released at once")
	assert.True(t, f.driver(t, stuck).Available())
	assert.False(t, f.driver(t, crashed).Available(), "a pending job may be a claim in flight")

	released, err = f.coordinator.ReconcileDrivers(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, released)
	assert.True(t, f.driver(t, crashed).Available())

	assert.False(t, f.driver(t, holder).Available(), "real assignments are kept")
	assert.Equal(t, job.Accepted, f.job(t, held.ID()).Status())
}

func TestCoordinator_ReconcileDrivers_ForgetsResolvedSuspects(t *testing.T) {
	f := newFixture(t)
	driverID := f.onlineDriver(t, cityHall)
	j := f.parcelJob(t, kernel.NewUUID())
	reserve(t, f, driverID, j.ID())

	released, err := f.coordinator.ReconcileDrivers(t.Context())
	require.NoError(t, err)
	assert.Zero(t, released)

	// The claim completes between two runs.
	_, err = f.jobs.Update(t.Context(), j.ID(), func(j *job.Job) error {
		_, err := j.Claim(driverID, f.clock.Now())
		return err
	})
	require.NoError(t, err)

	released, err = f.coordinator.ReconcileDrivers(t.Context())
	require.NoError(t, err)
	assert.Zero(t, released)
	assert.False(t, f.driver(t, driverID).Available())
}

func TestCoordinator_ReconcileDrivers_CountsUnsettledDelivery(t *testing.T) {
	f := newFixture(t)
	driverID := f.onlineDriver(t, cityHall)
	j := f.parcelJob(t, kernel.NewUUID())
	_, err := f.coordinator.Accept(t.Context(), driverID, j.ID())
	require.NoError(t, err)

	// The delivery commits on the job but the driver is never settled.
	_, err = f.jobs.Update(t.Context(), j.ID(), func(j *job.Job) error {
		if _, err := j.PickUp(driverID, f.clock.Now()); err != nil {
			return err
		}
		_, err := j.Deliver(driverID, f.clock.Now())
		return err
	})
	require.NoError(t, err)
	require.Equal(t, 0, f.driver(t, driverID).TotalDeliveries())

	released, err := f.coordinator.ReconcileDrivers(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, released)

	d := f.driver(t, driverID)
	assert.True(t, d.Available())
	assert.Equal(t, 1, d.TotalDeliveries(), "the delivery is counted by whoever settles first")

	released, err = f.coordinator.ReconcileDrivers(t.Context())
	require.NoError(t, err)
	assert.Zero(t, released)
	assert.Equal(t, 1, f.driver(t, driverID).TotalDeliveries())
}

func TestCoordinator_ReconcileDrivers_SettledDeliveryIsCountedOnce(t *testing.T) {
	f := newFixture(t)
	driverID := f.onlineDriver(t, cityHall)
	j := f.parcelJob(t, kernel.NewUUID())
	_, err := f.coordinator.Accept(t.Context(), driverID, j.ID())
	require.NoError(t, err)
	f.deliver(t, driverID, j.ID())

	released, err := f.coordinator.ReconcileDrivers(t.Context())
	require.NoError(t, err)
	assert.Zero(t, released)
	assert.Equal(t, 1, f.driver(t, driverID).TotalDeliveries())
}
