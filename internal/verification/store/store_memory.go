package store

import (
	"context"
	"sync"

	"realtyvest/internal/verification/models"
	id "realtyvest/pkg/domain"
	"realtyvest/pkg/platform/sentinel"
)

// InMemoryStore keeps snapshots in a map. Values are copied on the way in and
// out so callers never share state with the store.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.UserID]models.Snapshot
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.UserID]models.Snapshot)}
}

func (s *InMemoryStore) Load(_ context.Context, userID id.UserID) (models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.records[userID]
	if !ok {
		return models.Snapshot{}, sentinel.ErrNotFound
	}
	return snap.Clone(), nil
}

func (s *InMemoryStore) Save(_ context.Context, userID id.UserID, snapshot models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[userID] = snapshot.Clone()
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, userID)
	return nil
}

func (s *InMemoryStore) ListByStatus(_ context.Context, statuses ...models.Status) ([]Entry, error) {
	want := statusSet(statuses)
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []Entry
	for userID, snap := range s.records {
		if want[snap.Status] {
			entries = append(entries, Entry{UserID: userID, Snapshot: snap.Clone()})
		}
	}
	sortEntries(entries)
	return entries, nil
}
