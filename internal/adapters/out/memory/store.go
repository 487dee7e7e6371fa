// Package memory implements the core ports in process memory. Every entity
// has its own mutex, so updates to different jobs or drivers never block each
// other and the map lock is held only to find a record.
package memory

import (
	"sync"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/google/uuid"
)

type cloner[T any] interface {
	Clone() T
}

type record[T cloner[T]] struct {
	mu    sync.Mutex
	value T
}

func (r *record[T]) snapshot() T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value.Clone()
}

// store keeps clones of aggregates keyed by id in insertion order.
type store[T cloner[T]] struct {
	param   string
	mu      sync.RWMutex
	byID    map[uuid.UUID]*record[T]
	ordered []*record[T]
}

func newStore[T cloner[T]](param string) *store[T] {
	return &store[T]{
		param: param,
		byID:  make(map[uuid.UUID]*record[T]),
	}
}

func (s *store[T]) add(id kernel.UUID, v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id.Google()]; ok {
		return ports.ErrAlreadyExists
	}
	rec := &record[T]{value: v.Clone()}
	s.byID[id.Google()] = rec
	s.ordered = append(s.ordered, rec)
	return nil
}

func (s *store[T]) lookup(id kernel.UUID) (*record[T], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id.Google()]
	if !ok {
		return nil, errs.NewObjectNotFoundError(s.param, id)
	}
	return rec, nil
}

func (s *store[T]) get(id kernel.UUID) (T, error) {
	rec, err := s.lookup(id)
	if err != nil {
		var zero T
		return zero, err
	}
	return rec.snapshot(), nil
}

// update runs fn on a clone under the record's lock and swaps the clone in
// only when fn succeeds.
func (s *store[T]) update(id kernel.UUID, fn func(T) error) (T, error) {
	var zero T
	rec, err := s.lookup(id)
	if err != nil {
		return zero, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	draft := rec.value.Clone()
	if err := fn(draft); err != nil {
		return zero, err
	}
	rec.value = draft
	return draft.Clone(), nil
}

// records returns the current record list. Records added later are not
// included; values are read lazily by the caller.
func (s *store[T]) records() []*record[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*record[T](nil), s.ordered...)
}

func (s *store[T]) snapshots(keep func(T) bool) []T {
	var out []T
	for _, rec := range s.records() {
		v := rec.snapshot()
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func paginate[T any](items []T, page ports.Page) []T {
	page = page.Normalize()
	if page.Offset >= len(items) {
		return nil
	}
	end := min(page.Offset+page.Limit, len(items))
	return items[page.Offset:end]
}
