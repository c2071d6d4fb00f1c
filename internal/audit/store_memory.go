package audit

import (
	"context"
	"sync"
)

// InMemoryStore keeps events per vendor for tests and local development.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string][]Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[string][]Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.VendorID] = append(s.events[event.VendorID], event)
	return nil
}

func (s *InMemoryStore) ListByVendor(_ context.Context, vendorID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events[vendorID]...), nil
}
