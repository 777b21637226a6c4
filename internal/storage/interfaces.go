package storage

import (
	"context"

	"espionage-duopoly-lab/internal/domain"
)

// RunStore provides access to equilibrium_runs storage.
type RunStore interface {
	// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.EquilibriumRun) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.EquilibriumRun, error)

	// GetBySeed retrieves all runs solved with the seed, latest first.
	GetBySeed(ctx context.Context, seed uint64) ([]*domain.EquilibriumRun, error)

	// GetAll retrieves all runs, latest first.
	GetAll(ctx context.Context) ([]*domain.EquilibriumRun, error)
}

// SweepStore provides access to sweep_points storage.
type SweepStore interface {
	// InsertBulk adds all points of one sweep. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, points []*domain.SweepPoint) error

	// GetBySweepID retrieves all points of a sweep, ordered by point index ASC.
	GetBySweepID(ctx context.Context, sweepID string) ([]*domain.SweepPoint, error)

	// ListSweeps returns the distinct sweep IDs present in the store.
	ListSweeps(ctx context.Context) ([]string, error)
}

// GridStore provides access to grid_cells storage.
type GridStore interface {
	// InsertBulk adds all cells of one grid. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, cells []*domain.GridCell) error

	// GetByGridID retrieves all cells of a grid, ordered by (quantity, i, j) ASC.
	GetByGridID(ctx context.Context, gridID string) ([]*domain.GridCell, error)
}
