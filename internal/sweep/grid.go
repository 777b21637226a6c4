package sweep

import (
	"context"
	"fmt"
	"log/slog"

	"espionage-duopoly-lab/internal/domain"
	"espionage-duopoly-lab/internal/idhash"
	"espionage-duopoly-lab/internal/observability"
	"espionage-duopoly-lab/internal/storage"
	"espionage-duopoly-lab/internal/topology"
)

// DefaultGridPoints is the per-axis lattice resolution.
const DefaultGridPoints = 50

// GridOptions configures an information-surface grid over [0, Ī]².
type GridOptions struct {
	Base   domain.Parameters
	Points int // per axis; DefaultGridPoints when zero

	// Store, when set, receives the cells in one batch.
	Store storage.GridStore

	Logger *slog.Logger
}

// GridResult holds the evaluated lattice, ρ cells before κ cells, each
// block row-major in (i, j).
type GridResult struct {
	GridID string
	Points int
	Cells  []*domain.GridCell
}

// RunGrid evaluates the contest probability and signal precision over an
// n×n lattice of investment pairs. Both quantities are closed-form, so
// the grid needs no seed.
func RunGrid(ctx context.Context, opts GridOptions) (*GridResult, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	if err := opts.Base.Validate(); err != nil {
		return nil, err
	}

	n := opts.Points
	if n == 0 {
		n = DefaultGridPoints
	}
	if n < 2 {
		return nil, fmt.Errorf("grid needs at least 2 points per axis, got %d", n)
	}

	gridID := idhash.ComputeGridID(n, n, idhash.ComputeRunID(opts.Base, 0))
	axis := Values(0, opts.Base.IBar, n, false)

	result := &GridResult{
		GridID: gridID,
		Points: n,
		Cells:  make([]*domain.GridCell, 0, 2*n*n),
	}

	for _, quantity := range []string{domain.GridQuantityRho, domain.GridQuantityKappa} {
		for i, i1 := range axis {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}

			for j, i2 := range axis {
				var value float64
				switch quantity {
				case domain.GridQuantityRho:
					value = topology.Rho(i1, i2, opts.Base)
				case domain.GridQuantityKappa:
					value = topology.Kappa(i2, opts.Base)
				}

				result.Cells = append(result.Cells, &domain.GridCell{
					GridID:   gridID,
					Quantity: quantity,
					I:        i,
					J:        j,
					I1:       i1,
					I2:       i2,
					Value:    value,
				})
			}
		}
	}

	observability.RecordGridCells(len(result.Cells))

	if opts.Store != nil {
		if err := opts.Store.InsertBulk(ctx, result.Cells); err != nil {
			return nil, fmt.Errorf("persist grid cells: %w", err)
		}
	}

	log.Info("grid evaluated",
		"grid_id", gridID,
		"points", n,
		"cells", len(result.Cells),
	)

	return result, nil
}
