package clickhouse

import (
	"context"
	"fmt"

	"espionage-duopoly-lab/internal/domain"
	"espionage-duopoly-lab/internal/storage"
)

// GridStore implements storage.GridStore using ClickHouse.
type GridStore struct {
	conn *Conn
}

// NewGridStore creates a new GridStore.
func NewGridStore(conn *Conn) *GridStore {
	return &GridStore{conn: conn}
}

// Compile-time interface check.
var _ storage.GridStore = (*GridStore)(nil)

const gridColumns = `
	grid_id, quantity, i, j, i1, i2, value
`

// InsertBulk adds grid cells in one batch. Fails the entire batch on any
// duplicate (grid_id, quantity, i, j), inserting nothing. A full grid is
// one batch, so the existence check is one query per grid rather than
// one per cell.
func (s *GridStore) InsertBulk(ctx context.Context, cells []*domain.GridCell) error {
	if len(cells) == 0 {
		return nil
	}

	batchKeys := make(map[string]struct{}, len(cells))
	gridIDs := make(map[string]struct{})
	for _, c := range cells {
		if c == nil || c.GridID == "" || c.Quantity == "" {
			return storage.ErrInvalidInput
		}
		key := cellKey(c.GridID, c.Quantity, c.I, c.J)
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
		gridIDs[c.GridID] = struct{}{}
	}

	for gridID := range gridIDs {
		existing, err := s.existingCells(ctx, gridID)
		if err != nil {
			return fmt.Errorf("check existing cells: %w", err)
		}
		for key := range existing {
			if _, clash := batchKeys[key]; clash {
				return storage.ErrDuplicateKey
			}
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO grid_cells (`+gridColumns+`)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, c := range cells {
		err = batch.Append(
			c.GridID, c.Quantity, int64(c.I), int64(c.J), c.I1, c.I2, c.Value,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByGridID retrieves all cells of a grid, ordered by quantity, then row,
// then column.
func (s *GridStore) GetByGridID(ctx context.Context, gridID string) ([]*domain.GridCell, error) {
	query := `
		SELECT ` + gridColumns + `
		FROM grid_cells FINAL
		WHERE grid_id = ?
		ORDER BY quantity ASC, i ASC, j ASC
	`

	rows, err := s.conn.Query(ctx, query, gridID)
	if err != nil {
		return nil, fmt.Errorf("query by grid id: %w", err)
	}
	defer rows.Close()

	var cells []*domain.GridCell
	for rows.Next() {
		var c domain.GridCell
		var i, j int64

		err := rows.Scan(&c.GridID, &c.Quantity, &i, &j, &c.I1, &c.I2, &c.Value)
		if err != nil {
			return nil, fmt.Errorf("scan grid cell row: %w", err)
		}

		c.I = int(i)
		c.J = int(j)
		cells = append(cells, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate grid cell rows: %w", err)
	}

	return cells, nil
}

// existingCells returns the cell keys already stored for a grid.
func (s *GridStore) existingCells(ctx context.Context, gridID string) (map[string]struct{}, error) {
	query := `
		SELECT quantity, i, j
		FROM grid_cells FINAL
		WHERE grid_id = ?
	`

	rows, err := s.conn.Query(ctx, query, gridID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var quantity string
		var i, j int64
		if err := rows.Scan(&quantity, &i, &j); err != nil {
			return nil, err
		}
		keys[cellKey(gridID, quantity, int(i), int(j))] = struct{}{}
	}

	return keys, rows.Err()
}

func cellKey(gridID, quantity string, i, j int) string {
	return fmt.Sprintf("%s|%s|%d|%d", gridID, quantity, i, j)
}
