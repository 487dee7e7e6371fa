package dispatch_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"fulfillment/internal/adapters/out/memory"
	"fulfillment/internal/core/application/dispatch"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/driver"
	"fulfillment/internal/core/domain/model/job"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	cityHall    = kernel.MustNewLocation(40.7128, -74.0060)
	timesSquare = kernel.MustNewLocation(40.7589, -73.9851)
	brooklyn    = kernel.MustNewLocation(40.6782, -73.9442)
	boston      = kernel.MustNewLocation(42.3601, -71.0589)
	pizzeria    = kernel.MustNewLocation(40.7306, -74.0021)
)

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) JobStatusChanged(ctx context.Context, changed job.StatusChanged) error {
	args := m.Called(ctx, changed)
	return args.Error(0)
}

func (m *MockNotifier) JobOffered(ctx context.Context, offer ports.Offer) error {
	args := m.Called(ctx, offer)
	return args.Error(0)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	coordinator  *dispatch.Coordinator
	jobs         *memory.JobRepository
	drivers      *memory.DriverRepository
	reviews      *memory.ReviewRepository
	notifier     *MockNotifier
	clock        *clock
	restaurantID kernel.UUID
	closedID     kernel.UUID
	pizzaID      kernel.UUID
	sodaID       kernel.UUID
	soldOutID    kernel.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		jobs:         memory.NewJobRepository(),
		drivers:      memory.NewDriverRepository(),
		reviews:      memory.NewReviewRepository(),
		notifier:     new(MockNotifier),
		clock:        &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		restaurantID: kernel.NewUUID(),
		closedID:     kernel.NewUUID(),
		pizzaID:      kernel.NewUUID(),
		sodaID:       kernel.NewUUID(),
		soldOutID:    kernel.NewUUID(),
	}
	catalog := memory.NewCatalog(
		[]ports.Restaurant{
			{ID: f.restaurantID, Name: "Joe's Pizza", Address: "7 Carmine St", Location: pizzeria, Active: true},
			{ID: f.closedID, Name: "Closed Diner", Location: pizzeria, Active: false},
		},
		[]ports.MenuItem{
			{ID: f.pizzaID, RestaurantID: f.restaurantID, Name: "Margherita", Price: 12.5, Available: true},
			{ID: f.sodaID, RestaurantID: f.restaurantID, Name: "Soda", Price: 2.25, Available: true},
			{ID: f.soldOutID, RestaurantID: f.restaurantID, Name: "Calzone", Price: 14, Available: false},
		},
	)
	fees, err := services.NewFeeCalculator(services.DefaultFeeSchedule())
	require.NoError(t, err)

	cfg := dispatch.DefaultConfig()
	cfg.FoodTaxRate = 0.08
	f.coordinator, err = dispatch.NewCoordinator(dispatch.Deps{
		Jobs:     f.jobs,
		Drivers:  f.drivers,
		Reviews:  f.reviews,
		Catalog:  catalog,
		Fees:     fees,
		Notifier: f.notifier,
		Clock:    f.clock.Now,
	}, cfg)
	require.NoError(t, err)

	f.notifier.On("JobStatusChanged", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.notifier.On("JobOffered", mock.Anything, mock.Anything).Return(nil).Maybe()
	return f
}

// onlineDriver registers a driver, puts them online at loc and returns their id.
func (f *fixture) onlineDriver(t *testing.T, loc kernel.Location, kinds ...job.Kind) kernel.UUID {
	t.Helper()
	if len(kinds) == 0 {
		kinds = []job.Kind{job.KindFood, job.KindParcel}
	}
	id := kernel.NewUUID()
	_, err := f.coordinator.RegisterDriver(t.Context(), id, kinds)
	require.NoError(t, err)
	_, err = f.coordinator.SetAvailability(t.Context(), id, true)
	require.NoError(t, err)
	cmd, err := commands.NewUpdateLocationCommand(id, loc, f.clock.Now())
	require.NoError(t, err)
	_, err = f.coordinator.UpdateLocation(t.Context(), cmd)
	require.NoError(t, err)
	return id
}

func (f *fixture) parcelJob(t *testing.T, customerID kernel.UUID) *job.Job {
	t.Helper()
	return f.parcelJobFrom(t, customerID, cityHall)
}

func (f *fixture) parcelJobFrom(t *testing.T, customerID kernel.UUID, pickup kernel.Location) *job.Job {
	t.Helper()
	details, err := job.NewParcelDetails(job.SizeSmall, nil, "Ann", "+15550100", "")
	require.NoError(t, err)
	cmd, err := commands.NewCreateParcelJobCommand(customerID,
		job.Stop{Location: pickup, Address: "Pickup"},
		job.Stop{Location: timesSquare, Address: "Times Square"},
		details)
	require.NoError(t, err)
	j, err := f.coordinator.CreateParcelJob(t.Context(), cmd)
	require.NoError(t, err)
	return j
}

func (f *fixture) foodJob(t *testing.T, customerID kernel.UUID) *job.Job {
	t.Helper()
	cmd, err := commands.NewCreateFoodJobCommand(customerID, f.restaurantID,
		job.Stop{Location: cityHall, Address: "City Hall"},
		[]commands.OrderLine{{MenuItemID: f.pizzaID, Quantity: 2}, {MenuItemID: f.sodaID, Quantity: 1}},
		"")
	require.NoError(t, err)
	j, err := f.coordinator.CreateFoodJob(t.Context(), cmd)
	require.NoError(t, err)
	return j
}

func (f *fixture) driver(t *testing.T, id kernel.UUID) *driver.Driver {
	t.Helper()
	d, err := f.drivers.Get(t.Context(), id)
	require.NoError(t, err)
	return d
}

func (f *fixture) job(t *testing.T, id kernel.UUID) *job.Job {
	t.Helper()
	j, err := f.jobs.Get(t.Context(), id)
	require.NoError(t, err)
	return j
}

// deliver walks an accepted job to Delivered.
func (f *fixture) deliver(t *testing.T, driverID, jobID kernel.UUID) {
	t.Helper()
	for _, ev := range []job.Event{job.EventPickUp, job.EventDepart, job.EventDeliver} {
		_, err := f.coordinator.UpdateStatus(t.Context(), driverID, jobID, ev)
		require.NoError(t, err)
	}
}
