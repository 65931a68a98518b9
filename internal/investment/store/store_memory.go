// Package store keeps investment positions.
package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"realtyvest/internal/investment/models"
	id "realtyvest/pkg/domain"
)

// InMemoryStore accumulates positions per user and property, and counts the
// shares sold per property.
type InMemoryStore struct {
	mu        sync.RWMutex
	positions map[id.UserID]map[string]models.Investment
	sold      map[string]int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		positions: make(map[id.UserID]map[string]models.Investment),
		sold:      make(map[string]int64),
	}
}

// Reserve adds shares to the sold count of propertyID unless that would
// exceed limit. It reports whether the shares were reserved.
func (s *InMemoryStore) Reserve(_ context.Context, propertyID string, shares, limit int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sold[propertyID]+shares > limit {
		return false, nil
	}
	s.sold[propertyID] += shares
	return true, nil
}

// Release returns previously reserved shares of propertyID.
func (s *InMemoryStore) Release(_ context.Context, propertyID string, shares int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sold[propertyID] = max(s.sold[propertyID]-shares, 0)
	return nil
}

// SoldShares returns the shares sold through the platform for propertyID.
func (s *InMemoryStore) SoldShares(_ context.Context, propertyID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sold[propertyID], nil
}

// Add merges amount and shares into the user's position and returns it.
func (s *InMemoryStore) Add(_ context.Context, userID id.UserID, propertyID string, amount decimal.Decimal, shares int64, at time.Time) (models.Investment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byProperty, ok := s.positions[userID]
	if !ok {
		byProperty = make(map[string]models.Investment)
		s.positions[userID] = byProperty
	}
	inv := byProperty[propertyID]
	inv.PropertyID = propertyID
	inv.Amount = inv.Amount.Add(amount)
	inv.Shares += shares
	inv.UpdatedAt = at
	byProperty[propertyID] = inv
	return inv, nil
}

// ListByUser returns the user's positions ordered by property.
func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID) ([]models.Investment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Investment, 0, len(s.positions[userID]))
	for _, inv := range s.positions[userID] {
		out = append(out, inv)
	}
	slices.SortFunc(out, func(a, b models.Investment) int {
		return strings.Compare(a.PropertyID, b.PropertyID)
	})
	return out, nil
}
