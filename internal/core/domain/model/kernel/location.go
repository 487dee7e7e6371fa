package kernel

import (
	"errors"
	"fmt"
	"math"

	"fulfillment/internal/pkg/guard"
)

const (
	// EarthRadiusKm is the mean earth radius used for great-circle distances.
	EarthRadiusKm = 6371.0

	LatitudeMin  = -90.0
	LatitudeMax  = 90.0
	LongitudeMin = -180.0
	LongitudeMax = 180.0
)

// ErrLocationIsNotConstructed is returned when a zero-value Location is used.
// It unwraps to ErrInvalidGeometry so fee calculation rejects it like any
// other bad coordinate.
var ErrLocationIsNotConstructed = NewInvalidGeometryError("location", 0, "must be created via NewLocation")

// Location is a point on the earth expressed as latitude and longitude in
// degrees. Location is an immutable value object; its zero value is invalid.
//
// Example:
//
//	pickup, err := kernel.NewLocation(40.7128, -74.0060)
//	if err != nil {
//	    // errors.Is(err, kernel.ErrInvalidGeometry)
//	}
//	fmt.Println(pickup) // Location(40.712800,-74.006000)
type Location struct {
	lat   float64
	lng   float64
	guard guard.ConstructorGuard
}

// NewLocation creates a Location after validating both coordinates.
//
// Parameters:
//   - lat: latitude in degrees within [-90, 90]
//   - lng: longitude in degrees within [-180, 180]
//
// Returns:
//   - Location: the validated point
//   - error: InvalidGeometryError for NaN, infinite or out-of-range values
//
// Negative values are ordinary southern or western coordinates and are
// accepted. Nothing is clamped.
func NewLocation(lat, lng float64) (Location, error) {
	loc := Location{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(loc.setLat(lat), loc.setLng(lng)); err != nil {
		return Location{}, err
	}

	return loc, nil
}

// MustNewLocation is NewLocation for literals known to be valid. It panics on
// invalid input.
func MustNewLocation(lat, lng float64) Location {
	loc, err := NewLocation(lat, lng)
	if err != nil {
		panic(err)
	}
	return loc
}

// Validate reports whether the Location was built by NewLocation.
func (l Location) Validate() error {
	return l.guard.Validate(ErrLocationIsNotConstructed)
}

func (l Location) Lat() float64 {
	return l.lat
}

func (l Location) Lng() float64 {
	return l.lng
}

// IsEqual compares coordinates exactly.
func (l Location) IsEqual(other Location) bool {
	return l.lat == other.lat && l.lng == other.lng
}

// DistanceKm returns the haversine great-circle distance to other in
// kilometres. It is symmetric and zero for identical points. Both locations
// must be valid; callers validate before measuring.
//
// Example:
//
//	d := pickup.DistanceKm(dropoff) // ~5.42 for lower to midtown Manhattan
func (l Location) DistanceKm(other Location) float64 {
	lat1 := degreesToRadians(l.lat)
	lat2 := degreesToRadians(other.lat)
	dLat := degreesToRadians(other.lat - l.lat)
	dLng := degreesToRadians(other.lng - l.lng)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// WithinKm reports whether other lies no further than radiusKm away.
func (l Location) WithinKm(other Location, radiusKm float64) bool {
	return l.DistanceKm(other) <= radiusKm
}

func (l Location) String() string {
	return fmt.Sprintf("Location(%f,%f)", l.lat, l.lng)
}

func (l *Location) setLat(lat float64) error {
	if err := checkCoordinate("latitude", lat, LatitudeMin, LatitudeMax); err != nil {
		return err
	}
	l.lat = lat
	return nil
}

func (l *Location) setLng(lng float64) error {
	if err := checkCoordinate("longitude", lng, LongitudeMin, LongitudeMax); err != nil {
		return err
	}
	l.lng = lng
	return nil
}

func checkCoordinate(name string, v, minValue, maxValue float64) error {
	switch {
	case math.IsNaN(v):
		return NewInvalidGeometryError(name, v, "not a number")
	case math.IsInf(v, 0):
		return NewInvalidGeometryError(name, v, "infinite")
	case v < minValue || v > maxValue:
		return NewInvalidGeometryError(name, v, fmt.Sprintf("outside [%v, %v]", minValue, maxValue))
	}
	return nil
}

func degreesToRadians(d float64) float64 {
	return d * math.Pi / 180
}
