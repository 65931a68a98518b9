package audit

import (
	"context"
	"sync"

	id "realtyvest/pkg/domain"
)

// DefaultMaxEventsPerUser is how many events InMemoryStore keeps per user.
const DefaultMaxEventsPerUser = 100

// InMemoryStore keeps the most recent events per user. Older events are
// discarded once a user's limit is reached.
type InMemoryStore struct {
	mu        sync.RWMutex
	events    map[id.UserID][]Event
	maxEvents int
}

type StoreOption func(*InMemoryStore)

// WithMaxEventsPerUser caps the events kept per user. Non-positive values
// keep the default.
func WithMaxEventsPerUser(n int) StoreOption {
	return func(s *InMemoryStore) {
		if n > 0 {
			s.maxEvents = n
		}
	}
}

func NewInMemoryStore(opts ...StoreOption) *InMemoryStore {
	s := &InMemoryStore{
		events:    make(map[id.UserID][]Event),
		maxEvents: DefaultMaxEventsPerUser,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := append(s.events[event.UserID], event)
	if over := len(events) - s.maxEvents; over > 0 {
		events = append(events[:0:0], events[over:]...)
	}
	s.events[event.UserID] = events
	return nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events[userID]...), nil
}
