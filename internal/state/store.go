package state

import (
	"sync"
	"sync/atomic"
)

// Listener is told about every committed transition, in commit order
type Listener func(prev, next State, a Action)

// Store owns the one live State. All mutation goes through Dispatch.
//
// Dispatch is safe for concurrent use. Each call reduces and commits under
// the store lock, so the action is visible to Snapshot by the time Dispatch
// returns. Listener calls happen outside the lock, in commit order, from
// whichever dispatching goroutine is currently delivering; a listener may
// therefore call Dispatch itself.
type Store struct {
	current atomic.Pointer[State]

	mu         sync.Mutex
	pending    []commit
	delivering bool
	listeners  []subscription
	nextID     int
}

type commit struct {
	prev, next State
	action     Action
}

type subscription struct {
	id int
	fn Listener
}

// NewStore creates a store holding initial
func NewStore(initial State) *Store {
	s := &Store{}
	s.current.Store(&initial)
	return s
}

// Snapshot returns the current state
func (s *Store) Snapshot() State {
	return *s.current.Load()
}

// Dispatch applies a to the state and notifies listeners
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	prev := *s.current.Load()
	next := Reduce(prev, a)
	s.current.Store(&next)

	s.pending = append(s.pending, commit{prev: prev, next: next, action: a})
	if s.delivering {
		s.mu.Unlock()
		return
	}
	s.delivering = true
	s.mu.Unlock()

	s.deliver()
}

// deliver drains pending commits to listeners. If a listener panics, the
// undelivered commits are dropped and delivery is released so later
// dispatches notify again; the panic still reaches the dispatcher.
func (s *Store) deliver() {
	locked := false
	defer func() {
		if !locked {
			s.mu.Lock()
		}
		s.pending = nil
		s.delivering = false
		s.mu.Unlock()
	}()

	s.mu.Lock()
	locked = true
	for len(s.pending) > 0 {
		c := s.pending[0]
		s.pending = s.pending[1:]
		listeners := s.listeners

		s.mu.Unlock()
		locked = false
		for _, l := range listeners {
			l.fn(c.prev, c.next, c.action)
		}
		s.mu.Lock()
		locked = true
	}
}

// Subscribe registers l for every subsequent commit. The returned function
// removes it. The listener slice is copy-on-write so a delivery in progress
// keeps the set it started with.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners[:len(s.listeners):len(s.listeners)], subscription{id: id, fn: l})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.listeners {
				if sub.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					break
				}
			}
		})
	}
}
