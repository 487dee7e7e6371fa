// Package ports defines the contracts between the fulfillment core and its
// adapters: storage of jobs, drivers and reviews, the restaurant catalog and
// the notification fan-out.
//
// Repositories expose Update(ctx, id, fn) as the only way to change a stored
// aggregate. Implementations run fn on a private copy while holding an
// exclusive per-entity lock (an in-process mutex or a row lock) and persist
// the copy only when fn returns nil, so every mutation is all-or-nothing and
// mutations of one entity are serialized.
package ports

import "errors"

// ErrAlreadyExists is returned by Add when the identifier is taken.
var ErrAlreadyExists = errors.New("object already exists")

// Page bounds list queries. A zero Limit means DefaultPageLimit.
type Page struct {
	Offset int
	Limit  int
}

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 100
)

// Normalize clamps the page to the supported range.
func (p Page) Normalize() Page {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}
