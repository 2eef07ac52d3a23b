package memory

import (
	"context"
	"sync"

	"assessment-engine/internal/domain"
)

// ResultStore is an in-memory evaluation history, keyed by user.
type ResultStore struct {
	mu      sync.RWMutex
	results map[string][]domain.StoredResult
}

func NewResultStore() *ResultStore {
	return &ResultStore{
		results: make(map[string][]domain.StoredResult),
	}
}

func (s *ResultStore) AppendResults(_ context.Context, results []domain.StoredResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range results {
		s.results[r.UserID] = append(s.results[r.UserID], r)
	}
	return nil
}

// ListResults returns a copy of the user's history in insertion order.
func (s *ResultStore) ListResults(_ context.Context, userID string) ([]domain.StoredResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.results[userID]
	out := make([]domain.StoredResult, len(history))
	copy(out, history)
	return out, nil
}
