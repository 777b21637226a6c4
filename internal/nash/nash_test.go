package nash

import (
	"math"
	"testing"

	"espionage-duopoly-lab/internal/domain"
	"espionage-duopoly-lab/internal/montecarlo"
	"espionage-duopoly-lab/internal/topology"
)

// quickOptions keeps solver tests fast: a small population and few
// generations still exercise the full search path.
func quickOptions() Options {
	opts := DefaultOptions()
	opts.MaxIter = 5
	opts.PopSize = 4
	opts.Polish = false
	return opts
}

func TestObjective_DeterministicInInvestments(t *testing.T) {
	objective := Objective(domain.Baseline(), 42)

	first := objective([]float64{1, 1})
	second := objective([]float64{1, 1})
	if first != second {
		t.Errorf("repeated evaluations must agree exactly: %v vs %v", first, second)
	}

	moved := objective([]float64{2, 1})
	if first == moved {
		t.Error("distinct investment pairs should not produce identical surplus")
	}
}

func TestObjective_MatchesManualPipeline(t *testing.T) {
	p := domain.Baseline()
	objective := Objective(p, 42)

	ctx, err := topology.NewContext(p, 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rng := montecarlo.NewRand(42)
	v1, v2 := topology.ValueFunctions(ctx, rng)
	u1 := topology.Utility(v1, 1, p.Kappa1)
	u2 := topology.Utility(v2, 1, p.Kappa2)

	if got := objective([]float64{1, 1}); got != -(u1 + u2) {
		t.Errorf("objective must be the negated joint surplus: %v vs %v", got, -(u1 + u2))
	}
}

func TestObjective_InfeasiblePointIsInf(t *testing.T) {
	// δ > β escapes the validated region; with heavy one-sided
	// espionage the leader's second-order condition fails.
	p := domain.Parameters{
		Alpha: 10, Beta: 1, Delta: 2,
		Gamma: 5, Kappa1: 0.5, Kappa2: 1,
		Epsilon: 0.001, GammaExponent: 1, LambdaDefense: 1,
		Iota: 1, SigmaEpsilon: 1, SigmaC: 1,
		IBar: 2000, MuC: 1,
	}
	objective := Objective(p, 42)
	if got := objective([]float64{0, 1000}); !math.IsInf(got, 1) {
		t.Errorf("stability violation must poison the point with +Inf, got %v", got)
	}
}

func TestSolve_ReturnsValidSolution(t *testing.T) {
	p := domain.Baseline()
	opts := quickOptions()

	solution, err := Solve(p, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, inv := range solution.Investments {
		if inv < 0 || inv > p.IBar {
			t.Errorf("investment %d = %g escaped [0, %g]", i+1, inv, p.IBar)
		}
	}
	if solution.ContestProb < 0 || solution.ContestProb > 1 {
		t.Errorf("ρ = %g outside [0,1]", solution.ContestProb)
	}
	if solution.SignalPrecision < 0 || solution.SignalPrecision > 1 {
		t.Errorf("κ = %g outside [0,1]", solution.SignalPrecision)
	}
	if solution.Iterations < 1 {
		t.Errorf("expected at least one generation, got %d", solution.Iterations)
	}

	want := topology.TotalWelfare(solution.ConsumerSurplus,
		solution.ValueFunctions[0], solution.ValueFunctions[1])
	if solution.TotalWelfare != want {
		t.Errorf("welfare identity broken: W = %v, CS+V₁+V₂ = %v", solution.TotalWelfare, want)
	}

	wantKKT := solution.Converged && solution.GradientNorm < KKTGradientTol
	if solution.KKTSatisfied != wantKKT {
		t.Errorf("kkt flag inconsistent with converged=%v and ‖∇‖=%v",
			solution.Converged, solution.GradientNorm)
	}

	// The reported utilities sit on the same surface the search saw.
	objective := Objective(p, opts.Seed)
	point := []float64{solution.Investments[0], solution.Investments[1]}
	if got := objective(point); got != -(solution.Utilities[0] + solution.Utilities[1]) {
		t.Errorf("reported surplus %v disagrees with objective %v",
			-(solution.Utilities[0] + solution.Utilities[1]), got)
	}
}

func TestSolve_SeededRunsAreBitIdentical(t *testing.T) {
	p := domain.Baseline()

	first, err := Solve(p, quickOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Solve(p, quickOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.Investments != second.Investments {
		t.Errorf("seeded investments diverged: %v vs %v", first.Investments, second.Investments)
	}
	if first.ValueFunctions != second.ValueFunctions {
		t.Errorf("seeded values diverged: %v vs %v", first.ValueFunctions, second.ValueFunctions)
	}
	if first.GradientNorm != second.GradientNorm {
		t.Errorf("seeded gradient norms diverged: %v vs %v", first.GradientNorm, second.GradientNorm)
	}
}

func TestSolve_ReportsProgress(t *testing.T) {
	var progress []Progress
	opts := quickOptions()
	opts.OnProgress = func(p Progress) { progress = append(progress, p) }

	solution, err := Solve(domain.Baseline(), opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(progress) != solution.Iterations {
		t.Fatalf("expected one progress event per generation: %d vs %d",
			len(progress), solution.Iterations)
	}
	for i, event := range progress {
		if event.Generation != i+1 {
			t.Errorf("event %d has generation %d", i, event.Generation)
		}
		if math.IsInf(event.JointSurplus, 0) || math.IsNaN(event.JointSurplus) {
			t.Errorf("event %d carries non-finite surplus %v", i, event.JointSurplus)
		}
	}
}

func TestSolve_RejectsInvalidParameters(t *testing.T) {
	if _, err := Solve(domain.Parameters{}, quickOptions()); err == nil {
		t.Error("expected error for invalid parameters")
	}
}

func TestSolve_FullBudgetConverges(t *testing.T) {
	if testing.Short() {
		t.Skip("full search budget in -short mode")
	}

	opts := DefaultOptions()
	opts.MaxIter = 30
	opts.PopSize = 7

	solution, err := Solve(domain.Baseline(), opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !solution.Converged {
		t.Errorf("expected population convergence within %d generations", opts.MaxIter)
	}
	if solution.Utilities[0]+solution.Utilities[1] <= 0 {
		t.Errorf("baseline joint surplus should be positive, got %g",
			solution.Utilities[0]+solution.Utilities[1])
	}
}
