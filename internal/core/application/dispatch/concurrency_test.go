package dispatch_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"fulfillment/internal/core/domain/model/driver"
	"fulfillment/internal/core/domain/model/job"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// expectedRaceError reports whether err is an ordinary outcome of competing
// for the same job.
func expectedRaceError(err error) bool {
	return errors.Is(err, job.ErrAlreadyClaimed) ||
		errors.Is(err, driver.ErrDriverBusy) ||
		errors.Is(err, job.ErrIllegalTransition) ||
		errors.Is(err, errs.ErrForbidden)
}

// recordedChanges returns the transitions handed to the notifier for jobID.
func (f *fixture) recordedChanges(jobID kernel.UUID) []job.StatusChanged {
	var changes []job.StatusChanged
	for _, call := range f.notifier.Calls {
		if call.Method != "JobStatusChanged" {
			continue
		}
		changed := call.Arguments.Get(1).(job.StatusChanged)
		if changed.JobID.IsEqual(jobID) {
			changes = append(changes, changed)
		}
	}
	return changes
}

// assertValidPath checks that changes, in any order, chain into one walk
// through the transition table from Pending to final. Notifications are sent
// after commit, so concurrent operations may deliver them out of order; the
// walk exists iff every edge is legal, out-degree minus in-degree is +1 at
// Pending, -1 at final and 0 elsewhere, and every edge is reachable from
// Pending.
func assertValidPath(t *testing.T, changes []job.StatusChanged, final job.Status) {
	t.Helper()
	balance := map[job.Status]int{job.Pending: 0, final: 0}
	edges := map[job.Status][]job.Status{}
	for _, c := range changes {
		next, err := c.From.Next(c.Event)
		if assert.NoError(t, err, "%s --%s-->", c.From, c.Event) {
			assert.Equal(t, next, c.To, "%s --%s-->", c.From, c.Event)
		}
		balance[c.From]++
		balance[c.To]--
		edges[c.From] = append(edges[c.From], c.To)
	}

	for status, b := range balance {
		want := 0
		if status == job.Pending {
			want++
		}
		if status == final {
			want--
		}
		assert.Equal(t, want, b, "degree balance of %s", status)
	}

	seen := map[job.Status]bool{job.Pending: true}
	queue := []job.Status{job.Pending}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		for _, next := range edges[s] {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	for from := range edges {
		assert.True(t, seen[from], "%s is unreachable from pending", from)
	}
}

func TestCoordinator_ConcurrentOperationsOnOneJob(t *testing.T) {
	const (
		rounds        = 25
		drivers       = 4
		claimsPerLoop = 3
	)

	for range rounds {
		f := newFixture(t)
		customerID := kernel.NewUUID()
		j := f.parcelJob(t, customerID)
		driverIDs := make([]kernel.UUID, drivers)
		for i := range driverIDs {
			driverIDs[i] = f.onlineDriver(t, cityHall)
		}
		f.clock.Advance(time.Hour)

		var (
			wg         sync.WaitGroup
			start      = make(chan struct{})
			unexpected = make(chan error, drivers*claimsPerLoop*2+2)
		)
		check := func(err error) {
			if err != nil && !expectedRaceError(err) {
				unexpected <- err
			}
		}

		for i, driverID := range driverIDs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				for range claimsPerLoop {
					_, err := f.coordinator.Accept(t.Context(), driverID, j.ID())
					check(err)
					// Every other driver hands the job straight back.
					if err == nil && i%2 == 0 {
						_, err = f.coordinator.Cancel(t.Context(), driverID, j.ID())
						check(err)
					}
				}
			}()
		}
		wg.Add(2)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.coordinator.Cancel(t.Context(), customerID, j.ID())
			check(err)
		}()
		go func() {
			defer wg.Done()
			<-start
			_, err := f.coordinator.ExpireStalePending(t.Context(), 30*time.Minute, 10)
			check(err)
		}()

		close(start)
		wg.Wait()
		close(unexpected)
		for err := range unexpected {
			t.Errorf("unexpected error: %v", err)
		}

		final := f.job(t, j.ID())
		require.NoError(t, final.Status().Validate())
		assert.Contains(t, []job.Status{job.Pending, job.Accepted, job.Cancelled, job.Failed}, final.Status())

		assigned := final.Status().HoldsDriver() && !final.Status().IsTerminal()
		holders := 0
		for _, driverID := range driverIDs {
			active := f.driver(t, driverID).ActiveJobID()
			if assigned && final.IsAssignedTo(driverID) {
				holders++
				if assert.NotNil(t, active, "assigned driver lost the reservation") {
					assert.True(t, active.IsEqual(j.ID()))
				}
				continue
			}
			assert.Nil(t, active, "driver %s holds a job it is not assigned", driverID)
		}
		if assigned {
			assert.Equal(t, 1, holders)
		}

		assertValidPath(t, f.recordedChanges(j.ID()), final.Status())
	}
}
