package state

import (
	"slices"
	"sync"
)

type subscriber struct {
	id int
	fn func(Snapshot)
}

// Store owns the snapshot. Dispatch is the only writer; transitions are applied
// one at a time in call order and never observed half-applied.
type Store struct {
	mu      sync.RWMutex
	snap    Snapshot
	version uint64

	// dispatchMu keeps each transition and its notifications together.
	dispatchMu sync.Mutex

	subMu  sync.Mutex
	subs   []subscriber
	nextID int
}

// NewStore constructs a store seeded with initial.
func NewStore(initial Snapshot) *Store {
	return &Store{snap: initial.clone()}
}

// Dispatch applies a and returns the resulting snapshot.
// Subscribers are called after the transition in registration order, and
// every subscriber sees transitions in dispatch order.
func (s *Store) Dispatch(a Action) Snapshot {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	s.snap = Reduce(s.snap, a)
	s.version++
	out := s.snap.clone()
	s.mu.Unlock()

	s.subMu.Lock()
	subs := slices.Clone(s.subs)
	s.subMu.Unlock()

	for _, sub := range subs {
		sub.fn(out.clone())
	}
	return out
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.clone()
}

// Version counts the transitions applied so far.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Subscribe registers fn for every future transition. The returned func unregisters it
// and may be called from inside fn; it takes effect from the next transition.
// fn must not call Dispatch.
func (s *Store) Subscribe(fn func(Snapshot)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		s.subs = slices.DeleteFunc(s.subs, func(sub subscriber) bool { return sub.id == id })
		s.subMu.Unlock()
	}
}
