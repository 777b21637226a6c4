package memory

import (
	"context"
	"sort"
	"sync"

	"espionage-duopoly-lab/internal/domain"
	"espionage-duopoly-lab/internal/storage"
)

// RunStore is an in-memory implementation of storage.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.EquilibriumRun // keyed by run_id
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		data: make(map[string]*domain.EquilibriumRun),
	}
}

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(_ context.Context, r *domain.EquilibriumRun) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	runCopy := *r
	s.data[r.RunID] = &runCopy
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(_ context.Context, runID string) (*domain.EquilibriumRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	// Return a copy
	runCopy := *r
	return &runCopy, nil
}

// GetBySeed retrieves all runs solved with the seed, latest first.
func (s *RunStore) GetBySeed(_ context.Context, seed uint64) ([]*domain.EquilibriumRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.EquilibriumRun
	for _, r := range s.data {
		if r.Seed == seed {
			runCopy := *r
			result = append(result, &runCopy)
		}
	}

	sortRunsLatestFirst(result)
	return result, nil
}

// GetAll retrieves all runs, latest first.
func (s *RunStore) GetAll(_ context.Context) ([]*domain.EquilibriumRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.EquilibriumRun, 0, len(s.data))
	for _, r := range s.data {
		runCopy := *r
		result = append(result, &runCopy)
	}

	sortRunsLatestFirst(result)
	return result, nil
}

// sortRunsLatestFirst orders by created_at DESC, run_id ASC on ties so
// listings stay stable across calls.
func sortRunsLatestFirst(runs []*domain.EquilibriumRun) {
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAt != runs[j].CreatedAt {
			return runs[i].CreatedAt > runs[j].CreatedAt
		}
		return runs[i].RunID < runs[j].RunID
	})
}

// Verify interface compliance at compile time.
var _ storage.RunStore = (*RunStore)(nil)
