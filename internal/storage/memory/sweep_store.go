package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"espionage-duopoly-lab/internal/domain"
	"espionage-duopoly-lab/internal/storage"
)

// SweepStore is an in-memory implementation of storage.SweepStore.
type SweepStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SweepPoint // keyed by composite key
}

// NewSweepStore creates a new in-memory sweep store.
func NewSweepStore() *SweepStore {
	return &SweepStore{
		data: make(map[string]*domain.SweepPoint),
	}
}

// sweepKey generates a unique key for a sweep point.
func sweepKey(sweepID string, pointIndex int) string {
	return fmt.Sprintf("%s|%d", sweepID, pointIndex)
}

// InsertBulk adds all points of one sweep. Fails entire batch on any duplicate.
func (s *SweepStore) InsertBulk(_ context.Context, points []*domain.SweepPoint) error {
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(points))

	// First pass: check for duplicates (existing + intra-batch)
	for _, p := range points {
		if p == nil || p.SweepID == "" || p.Parameter == "" {
			return storage.ErrInvalidInput
		}
		key := sweepKey(p.SweepID, p.PointIndex)

		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, p := range points {
		pointCopy := *p
		s.data[sweepKey(p.SweepID, p.PointIndex)] = &pointCopy
	}

	return nil
}

// GetBySweepID retrieves all points of a sweep, ordered by point index ASC.
func (s *SweepStore) GetBySweepID(_ context.Context, sweepID string) ([]*domain.SweepPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SweepPoint
	for _, p := range s.data {
		if p.SweepID == sweepID {
			pointCopy := *p
			result = append(result, &pointCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].PointIndex < result[j].PointIndex
	})

	return result, nil
}

// ListSweeps returns the distinct sweep IDs present in the store.
func (s *SweepStore) ListSweeps(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, p := range s.data {
		seen[p.SweepID] = struct{}{}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids, nil
}

// Verify interface compliance at compile time.
var _ storage.SweepStore = (*SweepStore)(nil)
