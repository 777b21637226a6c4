package clickhouse

import (
	"context"
	"fmt"

	"espionage-duopoly-lab/internal/domain"
	"espionage-duopoly-lab/internal/storage"
)

// SweepStore implements storage.SweepStore using ClickHouse.
//
// MergeTree does not enforce uniqueness at insert time, so append-only
// semantics are enforced with an explicit existence check before each batch.
type SweepStore struct {
	conn *Conn
}

// NewSweepStore creates a new SweepStore.
func NewSweepStore(conn *Conn) *SweepStore {
	return &SweepStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SweepStore = (*SweepStore)(nil)

const sweepColumns = `
	sweep_id, parameter, value, point_index,
	i1, i2, contest_prob, signal_precision,
	u1, u2, consumer_surplus, total_welfare, converged
`

// InsertBulk adds sweep points in one batch. Fails the entire batch on any
// duplicate (sweep_id, point_index), inserting nothing.
func (s *SweepStore) InsertBulk(ctx context.Context, points []*domain.SweepPoint) error {
	if len(points) == 0 {
		return nil
	}

	// Validate and check for intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(points))
	sweepIDs := make(map[string]struct{})
	for _, pt := range points {
		if pt == nil || pt.SweepID == "" || pt.Parameter == "" {
			return storage.ErrInvalidInput
		}
		key := fmt.Sprintf("%s|%d", pt.SweepID, pt.PointIndex)
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
		sweepIDs[pt.SweepID] = struct{}{}
	}

	// Check for duplicates against existing rows, one query per sweep
	for sweepID := range sweepIDs {
		existing, err := s.existingIndices(ctx, sweepID)
		if err != nil {
			return fmt.Errorf("check existing points: %w", err)
		}
		for idx := range existing {
			key := fmt.Sprintf("%s|%d", sweepID, idx)
			if _, clash := batchKeys[key]; clash {
				return storage.ErrDuplicateKey
			}
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO sweep_points (`+sweepColumns+`)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, pt := range points {
		err = batch.Append(
			pt.SweepID, pt.Parameter, pt.Value, int64(pt.PointIndex),
			pt.I1, pt.I2, pt.ContestProb, pt.SignalPrecision,
			pt.U1, pt.U2, pt.ConsumerSurplus, pt.TotalWelfare, pt.Converged,
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

// GetBySweepID retrieves all points of a sweep, ordered by point index.
func (s *SweepStore) GetBySweepID(ctx context.Context, sweepID string) ([]*domain.SweepPoint, error) {
	query := `
		SELECT ` + sweepColumns + `
		FROM sweep_points FINAL
		WHERE sweep_id = ?
		ORDER BY point_index ASC
	`

	rows, err := s.conn.Query(ctx, query, sweepID)
	if err != nil {
		return nil, fmt.Errorf("query by sweep id: %w", err)
	}
	defer rows.Close()

	var points []*domain.SweepPoint
	for rows.Next() {
		var pt domain.SweepPoint
		var pointIndex int64

		err := rows.Scan(
			&pt.SweepID, &pt.Parameter, &pt.Value, &pointIndex,
			&pt.I1, &pt.I2, &pt.ContestProb, &pt.SignalPrecision,
			&pt.U1, &pt.U2, &pt.ConsumerSurplus, &pt.TotalWelfare, &pt.Converged,
		)
		if err != nil {
			return nil, fmt.Errorf("scan sweep point row: %w", err)
		}

		pt.PointIndex = int(pointIndex)
		points = append(points, &pt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sweep point rows: %w", err)
	}

	return points, nil
}

// ListSweeps retrieves all distinct sweep IDs, sorted.
func (s *SweepStore) ListSweeps(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT sweep_id
		FROM sweep_points
		ORDER BY sweep_id ASC
	`

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list sweeps: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan sweep id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sweep ids: %w", err)
	}

	return ids, nil
}

// existingIndices returns the point indices already stored for a sweep.
func (s *SweepStore) existingIndices(ctx context.Context, sweepID string) (map[int64]struct{}, error) {
	query := `
		SELECT point_index
		FROM sweep_points FINAL
		WHERE sweep_id = ?
	`

	rows, err := s.conn.Query(ctx, query, sweepID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	indices := make(map[int64]struct{})
	for rows.Next() {
		var idx int64
		if err := rows.Scan(&idx); err != nil {
			return nil, err
		}
		indices[idx] = struct{}{}
	}

	return indices, rows.Err()
}
