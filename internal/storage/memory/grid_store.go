package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"espionage-duopoly-lab/internal/domain"
	"espionage-duopoly-lab/internal/storage"
)

// GridStore is an in-memory implementation of storage.GridStore.
type GridStore struct {
	mu   sync.RWMutex
	data map[string]*domain.GridCell // keyed by composite key
}

// NewGridStore creates a new in-memory grid store.
func NewGridStore() *GridStore {
	return &GridStore{
		data: make(map[string]*domain.GridCell),
	}
}

// gridKey generates a unique key for a grid cell.
func gridKey(gridID, quantity string, i, j int) string {
	return fmt.Sprintf("%s|%s|%d|%d", gridID, quantity, i, j)
}

// InsertBulk adds all cells of one grid. Fails entire batch on any duplicate.
func (s *GridStore) InsertBulk(_ context.Context, cells []*domain.GridCell) error {
	if len(cells) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(cells))

	// First pass: check for duplicates (existing + intra-batch)
	for _, c := range cells {
		if c == nil || c.GridID == "" || c.Quantity == "" {
			return storage.ErrInvalidInput
		}
		key := gridKey(c.GridID, c.Quantity, c.I, c.J)

		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, c := range cells {
		cellCopy := *c
		s.data[gridKey(c.GridID, c.Quantity, c.I, c.J)] = &cellCopy
	}

	return nil
}

// GetByGridID retrieves all cells of a grid, ordered by (quantity, i, j) ASC.
func (s *GridStore) GetByGridID(_ context.Context, gridID string) ([]*domain.GridCell, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.GridCell
	for _, c := range s.data {
		if c.GridID == gridID {
			cellCopy := *c
			result = append(result, &cellCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Quantity != result[j].Quantity {
			return result[i].Quantity < result[j].Quantity
		}
		if result[i].I != result[j].I {
			return result[i].I < result[j].I
		}
		return result[i].J < result[j].J
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.GridStore = (*GridStore)(nil)
