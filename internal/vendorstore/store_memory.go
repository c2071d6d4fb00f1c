package store

import (
	"context"
	"sync"
	"time"

	"vendorflow/internal/domain"
	"vendorflow/pkg/sentinel"
)

// InMemoryStore keeps vendor records in a map. It backs tests and local
// development and intentionally favors clarity over performance.
type InMemoryStore struct {
	mu      sync.RWMutex
	vendors map[string]domain.Vendor
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{vendors: make(map[string]domain.Vendor)}
}

// Create inserts a record. Profile creation is the marketplace collaborator's
// job in production; tests and dev seeding use this directly.
func (s *InMemoryStore) Create(_ context.Context, v domain.Vendor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vendors[v.ID]; ok {
		return sentinel.ErrInvalidState
	}
	if v.Status == "" {
		v.Status = domain.StatusDraft
	}
	if v.Priority == "" {
		v.Priority = domain.PriorityNormal
	}
	s.vendors[v.ID] = v
	return nil
}

func (s *InMemoryStore) Load(_ context.Context, id string) (domain.Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.vendors[id]; ok {
		return v, nil
	}
	return domain.Vendor{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) Update(_ context.Context, id string, expectedVersion int64, upd Update) (domain.Vendor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vendors[id]
	if !ok {
		return domain.Vendor{}, sentinel.ErrNotFound
	}
	if v.Version != expectedVersion {
		return domain.Vendor{}, sentinel.ErrVersionConflict
	}
	upd.apply(&v)
	s.vendors[id] = v
	return v, nil
}

func (s *InMemoryStore) FindInStates(_ context.Context, states []domain.VerificationStatus) ([]domain.Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wanted := make(map[domain.VerificationStatus]bool, len(states))
	for _, st := range states {
		wanted[st] = true
	}
	var out []domain.Vendor
	for _, v := range s.vendors {
		if wanted[v.Status] {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *InMemoryStore) FindCompletedSince(_ context.Context, since time.Time) ([]domain.Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Vendor
	for _, v := range s.vendors {
		if v.Status != domain.StatusVerified && v.Status != domain.StatusRejected {
			continue
		}
		// Rejected vendors may lack a completion timestamp; the review
		// timestamp stands in, matching the processing-time metric.
		ts := v.CompletedAt
		if ts == nil {
			ts = v.ReviewedAt
		}
		if ts != nil && !ts.Before(since) {
			out = append(out, v)
		}
	}
	return out, nil
}
