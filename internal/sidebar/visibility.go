package sidebar

import "sync"

// Visibility is the observable open/closed state of the sidebar.
type Visibility interface {
	IsOpen() bool
	Toggle()
	Subscribe(fn func(open bool)) (unsubscribe func())
}

// VisibilityStore is a Visibility shared by whoever it is injected into.
type VisibilityStore struct {
	mu          sync.Mutex
	open        bool
	nextID      int
	subscribers map[int]func(bool)
}

// NewVisibilityStore creates a store with the given initial state.
func NewVisibilityStore(open bool) *VisibilityStore {
	return &VisibilityStore{
		open:        open,
		subscribers: make(map[int]func(bool)),
	}
}

// IsOpen reports whether the sidebar is shown.
func (s *VisibilityStore) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Toggle flips the state and notifies subscribers.
func (s *VisibilityStore) Toggle() {
	s.mu.Lock()
	s.open = !s.open
	open := s.open
	subs := s.snapshotSubscribers()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(open)
	}
}

// SetOpen sets the state, notifying subscribers only on change.
func (s *VisibilityStore) SetOpen(open bool) {
	s.mu.Lock()
	if s.open == open {
		s.mu.Unlock()
		return
	}
	s.open = open
	subs := s.snapshotSubscribers()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(open)
	}
}

// Subscribe registers fn for state transitions.
func (s *VisibilityStore) Subscribe(fn func(open bool)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

// caller holds s.mu
func (s *VisibilityStore) snapshotSubscribers() []func(bool) {
	subs := make([]func(bool), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	return subs
}
