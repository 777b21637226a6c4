package verification

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"espionage-duopoly-lab/internal/domain"
	"espionage-duopoly-lab/internal/idhash"
	"espionage-duopoly-lab/internal/nash"
	"espionage-duopoly-lab/internal/storage"
	"espionage-duopoly-lab/internal/storage/memory"
)

func testOptions() nash.Options {
	return nash.Options{
		Seed:         7,
		MaxIter:      2,
		PopSize:      4,
		Tol:          0.05,
		AbsTol:       0.05,
		Polish:       false,
		GradientStep: 1e-8,
	}
}

func storedRun(t *testing.T, seed uint64) *domain.EquilibriumRun {
	t.Helper()
	p := domain.Baseline()
	opts := testOptions()
	opts.Seed = seed
	solution, err := nash.Solve(p, opts)
	require.NoError(t, err)
	return domain.NewEquilibriumRun(idhash.ComputeRunID(p, seed), seed, 1700000000000, p, solution, 12)
}

func TestVerifyRun_Reproduces(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRunStore()

	// Seed 11 differs from the verifier's own option seed, so a match
	// proves the re-solve picked up the seed stored with the run.
	run := storedRun(t, 11)
	require.NoError(t, store.Insert(ctx, run))

	v := NewVerifier(store, testOptions(), nil)
	result, err := v.VerifyRun(ctx, run.RunID)
	require.NoError(t, err)
	require.Equal(t, run.RunID, result.RunID)
	require.True(t, result.Match)
	require.Empty(t, result.Divergences)
}

func TestVerifyRun_DetectsTamperedRow(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRunStore()

	run := storedRun(t, 7)
	run.U1 += 1.0
	require.NoError(t, store.Insert(ctx, run))

	v := NewVerifier(store, testOptions(), nil)
	result, err := v.VerifyRun(ctx, run.RunID)
	require.NoError(t, err)
	require.False(t, result.Match)

	fields := make([]string, 0, len(result.Divergences))
	for _, d := range result.Divergences {
		fields = append(fields, d.Field)
	}
	require.Contains(t, fields, "U_1")
}

func TestVerifyRun_UnknownRun(t *testing.T) {
	store := memory.NewRunStore()
	v := NewVerifier(store, testOptions(), nil)

	_, err := v.VerifyRun(context.Background(), "deadbeef")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestVerifyAll_CountsDivergent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRunStore()

	clean := storedRun(t, 7)
	tampered := storedRun(t, 11)
	tampered.TotalWelfare += 2.5
	require.NoError(t, store.Insert(ctx, clean))
	require.NoError(t, store.Insert(ctx, tampered))

	v := NewVerifier(store, testOptions(), nil)
	report, err := v.VerifyAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, report.TotalRuns)
	require.Equal(t, 1, report.MatchedRuns)
	require.Equal(t, 1, report.DivergentRuns)
	require.Len(t, report.Results, 2)
}

func TestCompareSolutions_WithinTolerance(t *testing.T) {
	a := &domain.EquilibriumSolution{
		Investments:     [2]float64{3.2, 4.1},
		ContestProb:     0.41,
		SignalPrecision: 0.52,
		ValueFunctions:  [2]float64{812.5, 96.3},
		Utilities:       [2]float64{810.9, 92.2},
		ConsumerSurplus: 930.4,
		TotalWelfare:    1833.5,
		Converged:       true,
	}
	b := *a
	b.Utilities[0] += FloatTolerance / 2

	require.Empty(t, CompareSolutions(a, &b))
}

func TestCompareSolutions_FlagMismatch(t *testing.T) {
	a := &domain.EquilibriumSolution{Converged: true}
	b := &domain.EquilibriumSolution{Converged: false}

	divergences := CompareSolutions(a, b)
	require.Len(t, divergences, 1)
	require.Equal(t, "converged", divergences[0].Field)
}
