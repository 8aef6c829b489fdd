package application

import (
	"sync"

	"github.com/polling-network/polling-daemon/internal/core/domain"
)

// Listener is notified after every event applied by the Store, with the
// resulting state.
type Listener func(event domain.Event, state domain.State)

// Store serialises the application of events to the account state and
// notifies the registered listeners in dispatch order.
type Store struct {
	lock sync.Mutex

	state     domain.State
	listeners []listenerEntry
	nextID    int
}

type listenerEntry struct {
	id       int
	listener Listener
}

func NewStore() *Store {
	return &Store{
		state: domain.NewState(),
	}
}

// Dispatch applies the event and returns the new state. Listeners run
// synchronously while the store is locked, so they must not dispatch.
func (s *Store) Dispatch(event domain.Event) domain.State {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.state = s.state.Apply(event)
	for _, l := range s.listeners {
		l.listener(event, s.state)
	}
	return s.state
}

func (s *Store) State() domain.State {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.state
}

// Subscribe registers a listener and returns the func that removes it.
func (s *Store) Subscribe(listener Listener) func() {
	s.lock.Lock()
	defer s.lock.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, listenerEntry{id, listener})

	return func() {
		s.lock.Lock()
		defer s.lock.Unlock()

		listeners := make([]listenerEntry, 0, len(s.listeners))
		for _, l := range s.listeners {
			if l.id != id {
				listeners = append(listeners, l)
			}
		}
		s.listeners = listeners
	}
}
