package state

import (
	"sync"
)

// Listener receives the state produced by a dispatch.
type Listener func(State)

// Store is the single writer of the billing state.
type Store struct {
	mu        sync.Mutex
	state     State
	listeners map[int]Listener
	nextID    int
}

// NewStore returns a store holding the initial state.
func NewStore() *Store {
	return &Store{
		state:     Initial(),
		listeners: make(map[int]Listener),
	}
}

// Dispatch reduces a into the state and returns the new snapshot. Listeners
// are called after the lock is released, so they may dispatch themselves;
// across concurrent dispatches they can observe snapshots out of order.
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	// The reduced state may hold data from a's payload; keep a private copy.
	s.state = Reduce(s.state, a).clone()
	snapshot := s.state.clone()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(snapshot.clone())
	}
	return snapshot
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe registers l and returns a function removing it.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}
