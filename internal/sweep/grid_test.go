package sweep

import (
	"context"
	"errors"
	"testing"

	"espionage-duopoly-lab/internal/domain"
	"espionage-duopoly-lab/internal/storage/memory"
	"espionage-duopoly-lab/internal/topology"
)

func TestRunGrid_LatticeShape(t *testing.T) {
	result, err := RunGrid(context.Background(), GridOptions{
		Base:   domain.Baseline(),
		Points: 5,
	})
	if err != nil {
		t.Fatalf("RunGrid failed: %v", err)
	}

	if result.Points != 5 {
		t.Errorf("points: got %d, want 5", result.Points)
	}
	if len(result.Cells) != 2*5*5 {
		t.Fatalf("cells: got %d, want 50", len(result.Cells))
	}

	// ρ block first, then κ, each row-major.
	if result.Cells[0].Quantity != domain.GridQuantityRho {
		t.Errorf("first block: got %s", result.Cells[0].Quantity)
	}
	if result.Cells[25].Quantity != domain.GridQuantityKappa {
		t.Errorf("second block: got %s", result.Cells[25].Quantity)
	}
	if c := result.Cells[7]; c.I != 1 || c.J != 2 {
		t.Errorf("row-major order broken: cell 7 is (%d, %d)", c.I, c.J)
	}
}

func TestRunGrid_CornerValues(t *testing.T) {
	p := domain.Baseline()
	result, err := RunGrid(context.Background(), GridOptions{Base: p, Points: 5})
	if err != nil {
		t.Fatalf("RunGrid failed: %v", err)
	}

	// Axis spans [0, Ī] inclusive.
	first, last := result.Cells[0], result.Cells[24]
	if first.I1 != 0 || first.I2 != 0 {
		t.Errorf("first cell at (%g, %g), want origin", first.I1, first.I2)
	}
	if last.I1 != p.IBar || last.I2 != p.IBar {
		t.Errorf("last ρ cell at (%g, %g), want (Ī, Ī)", last.I1, last.I2)
	}

	// No espionage against no defense: the contest cannot be won.
	if first.Value != 0 {
		t.Errorf("rho(0, 0): got %g, want 0", first.Value)
	}
}

func TestRunGrid_CellsMatchClosedForms(t *testing.T) {
	p := domain.Baseline()
	result, err := RunGrid(context.Background(), GridOptions{Base: p, Points: 4})
	if err != nil {
		t.Fatalf("RunGrid failed: %v", err)
	}

	for _, c := range result.Cells {
		var want float64
		switch c.Quantity {
		case domain.GridQuantityRho:
			want = topology.Rho(c.I1, c.I2, p)
		case domain.GridQuantityKappa:
			want = topology.Kappa(c.I2, p)
		default:
			t.Fatalf("unexpected quantity %q", c.Quantity)
		}
		if c.Value != want {
			t.Errorf("%s(%g, %g): got %g, want %g", c.Quantity, c.I1, c.I2, c.Value, want)
		}
	}
}

func TestRunGrid_DefaultResolution(t *testing.T) {
	result, err := RunGrid(context.Background(), GridOptions{Base: domain.Baseline()})
	if err != nil {
		t.Fatalf("RunGrid failed: %v", err)
	}

	if result.Points != DefaultGridPoints {
		t.Errorf("points: got %d, want %d", result.Points, DefaultGridPoints)
	}
	if len(result.Cells) != 2*DefaultGridPoints*DefaultGridPoints {
		t.Errorf("cells: got %d, want %d", len(result.Cells), 2*DefaultGridPoints*DefaultGridPoints)
	}
}

func TestRunGrid_PersistsCells(t *testing.T) {
	store := memory.NewGridStore()
	result, err := RunGrid(context.Background(), GridOptions{
		Base:   domain.Baseline(),
		Points: 5,
		Store:  store,
	})
	if err != nil {
		t.Fatalf("RunGrid failed: %v", err)
	}

	stored, err := store.GetByGridID(context.Background(), result.GridID)
	if err != nil {
		t.Fatalf("GetByGridID failed: %v", err)
	}
	if len(stored) != len(result.Cells) {
		t.Errorf("stored cells: got %d, want %d", len(stored), len(result.Cells))
	}
	// Reads sort by quantity, so κ cells come back first.
	if stored[0].Quantity != domain.GridQuantityKappa {
		t.Errorf("first stored cell: got %s", stored[0].Quantity)
	}
}

func TestRunGrid_RejectsBadOptions(t *testing.T) {
	bad := domain.Baseline()
	bad.Beta = 0
	if _, err := RunGrid(context.Background(), GridOptions{Base: bad}); err == nil {
		t.Error("expected a validation error for beta = 0")
	}

	if _, err := RunGrid(context.Background(), GridOptions{Base: domain.Baseline(), Points: 1}); err == nil {
		t.Error("expected a resolution error for a single point")
	}
}

func TestRunGrid_IdentityTracksResolution(t *testing.T) {
	base := domain.Baseline()

	a, err := RunGrid(context.Background(), GridOptions{Base: base, Points: 4})
	if err != nil {
		t.Fatalf("RunGrid failed: %v", err)
	}
	b, err := RunGrid(context.Background(), GridOptions{Base: base, Points: 4})
	if err != nil {
		t.Fatalf("RunGrid failed: %v", err)
	}
	c, err := RunGrid(context.Background(), GridOptions{Base: base, Points: 5})
	if err != nil {
		t.Fatalf("RunGrid failed: %v", err)
	}

	if a.GridID != b.GridID {
		t.Errorf("same resolution, different ids: %s vs %s", a.GridID, b.GridID)
	}
	if a.GridID == c.GridID {
		t.Error("different resolutions must not share an id")
	}
}

func TestRunGrid_HonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunGrid(ctx, GridOptions{Base: domain.Baseline(), Points: 5})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRenderGridCSV_Rows(t *testing.T) {
	res := &GridResult{
		GridID: "abc",
		Points: 2,
		Cells: []*domain.GridCell{
			{GridID: "abc", Quantity: domain.GridQuantityRho, I: 0, J: 1, I1: 0, I2: 20, Value: 0.93},
		},
	}

	csv := RenderGridCSV(res)
	want := "quantity,i,j,I_1,I_2,value\nrho,0,1,0,20,0.93\n"
	if csv != want {
		t.Errorf("csv mismatch:\ngot:\n%s\nwant:\n%s", csv, want)
	}
}
