package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"espionage-duopoly-lab/internal/domain"
	"espionage-duopoly-lab/internal/storage"
)

func testGridCell(gridID, quantity string, i, j int, value float64) *domain.GridCell {
	return &domain.GridCell{
		GridID:   gridID,
		Quantity: quantity,
		I:        i,
		J:        j,
		I1:       float64(i) * 0.5,
		I2:       float64(j) * 0.5,
		Value:    value,
	}
}

func TestGridStore_InsertBulkAndGet(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewGridStore(conn)
	ctx := context.Background()

	cells := []*domain.GridCell{
		testGridCell("grid-001", domain.GridQuantityRho, 1, 0, 0.4),
		testGridCell("grid-001", domain.GridQuantityKappa, 0, 0, 0.3),
		testGridCell("grid-001", domain.GridQuantityRho, 0, 1, 0.5),
		testGridCell("grid-001", domain.GridQuantityRho, 0, 0, 0.33),
	}
	err := store.InsertBulk(ctx, cells)
	require.NoError(t, err)

	result, err := store.GetByGridID(ctx, "grid-001")
	require.NoError(t, err)

	require.Len(t, result, 4)
	assert.Equal(t, domain.GridQuantityKappa, result[0].Quantity)
	assert.Equal(t, 0.33, result[1].Value, "rho cells must start at (0, 0)")
	assert.Equal(t, 1, result[2].J)
	assert.Equal(t, 1, result[3].I)
}

func TestGridStore_FullGridRoundTrip(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewGridStore(conn)
	ctx := context.Background()

	// A dense grid inserts as a single batch.
	const n = 20
	var cells []*domain.GridCell
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			cells = append(cells, testGridCell("grid-dense", domain.GridQuantityRho, i, j, float64(i*n+j)))
		}
	}
	err := store.InsertBulk(ctx, cells)
	require.NoError(t, err)

	result, err := store.GetByGridID(ctx, "grid-dense")
	require.NoError(t, err)

	require.Len(t, result, n*n)
	assert.Equal(t, 0.0, result[0].Value)
	assert.Equal(t, float64(n*n-1), result[n*n-1].Value)
}

func TestGridStore_DuplicateAcrossBatches(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewGridStore(conn)
	ctx := context.Background()

	err := store.InsertBulk(ctx, []*domain.GridCell{
		testGridCell("grid-001", domain.GridQuantityRho, 0, 0, 0.33),
	})
	require.NoError(t, err)

	err = store.InsertBulk(ctx, []*domain.GridCell{
		testGridCell("grid-001", domain.GridQuantityRho, 0, 0, 0.99),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// Same coordinates under a different quantity are a distinct cell.
	err = store.InsertBulk(ctx, []*domain.GridCell{
		testGridCell("grid-001", domain.GridQuantityKappa, 0, 0, 0.3),
	})
	assert.NoError(t, err)
}

func TestGridStore_FailedBatchInsertsNothing(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewGridStore(conn)
	ctx := context.Background()

	err := store.InsertBulk(ctx, []*domain.GridCell{
		testGridCell("grid-fail", domain.GridQuantityRho, 0, 0, 0.33),
		testGridCell("grid-fail", domain.GridQuantityRho, 0, 0, 0.99),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	result, err := store.GetByGridID(ctx, "grid-fail")
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestGridStore_InvalidInput(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewGridStore(conn)
	ctx := context.Background()

	err := store.InsertBulk(ctx, []*domain.GridCell{nil})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	err = store.InsertBulk(ctx, []*domain.GridCell{
		testGridCell("grid-001", "", 0, 0, 0.33),
	})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
