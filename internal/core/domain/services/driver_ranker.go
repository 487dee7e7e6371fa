package services

import (
	"errors"
	"slices"

	"fulfillment/internal/core/domain/model/driver"
	"fulfillment/internal/core/domain/model/kernel"
)

// ErrDriverNotFound is returned when no candidate has a known position.
var ErrDriverNotFound = errors.New("driver not found")

// Candidate is a driver together with their distance to the pickup.
type Candidate struct {
	Driver     *driver.Driver
	DistanceKm float64
}

// DriverRanker orders candidate drivers for a job offer, nearest first.
//
// Example:
//
//	ranked, err := services.NewDriverRanker().Rank(j.Pickup().Location, available, 5)
//	if errors.Is(err, services.ErrDriverNotFound) {
//	    // nobody to offer the job to yet; it stays in the open pool
//	}
type DriverRanker struct{}

func NewDriverRanker() DriverRanker {
	return DriverRanker{}
}

// Rank returns at most limit candidates sorted by distance to pickup. Drivers
// without a reported position are skipped; ties keep input order. A limit of
// zero or less means no limit.
func (r DriverRanker) Rank(pickup kernel.Location, drivers []*driver.Driver, limit int) ([]Candidate, error) {
	if err := pickup.Validate(); err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(drivers))
	for _, d := range drivers {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		loc, ok := d.Location()
		if !ok {
			continue
		}
		candidates = append(candidates, Candidate{Driver: d, DistanceKm: pickup.DistanceKm(loc)})
	}

	if len(candidates) == 0 {
		return nil, ErrDriverNotFound
	}

	slices.SortStableFunc(candidates, func(a, b Candidate) int {
		switch {
		case a.DistanceKm < b.DistanceKm:
			return -1
		case a.DistanceKm > b.DistanceKm:
			return 1
		}
		return 0
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}
