package analysis

import (
	"errors"
	"math"
	"testing"

	"espionage-duopoly-lab/internal/domain"
	"espionage-duopoly-lab/internal/montecarlo"
	"espionage-duopoly-lab/internal/topology"
)

func TestBenchmarkProfits_MatchGaussianIntegral(t *testing.T) {
	p := domain.Baseline()
	got := BenchmarkProfits(p, montecarlo.NewRand(42), EffectTrials)

	// With E[p_j] pinned at p̄ the cross term vanishes and
	// E[Π] = β·(E[p−c]² + σ_c²/4); quantity truncation sits ~4.7σ out.
	pBar := (p.Alpha + p.Beta*p.MuC) / (2*p.Beta - p.Delta)
	mean := (p.Alpha - p.Beta*p.MuC + p.Delta*pBar) / (2 * p.Beta)
	want := p.Beta * (mean*mean + p.SigmaC*p.SigmaC/4)

	if math.Abs(got.Leader-want) > 0.02*want {
		t.Errorf("leader benchmark profit %g outside 2%% of closed form %g", got.Leader, want)
	}
	if math.Abs(got.Follower-want) > 0.02*want {
		t.Errorf("follower benchmark profit %g outside 2%% of closed form %g", got.Follower, want)
	}
}

func TestFullGameValues_MatchValueFunctions(t *testing.T) {
	p := domain.Baseline()
	got, err := FullGameValues(p, 1, 1, montecarlo.NewRand(7))
	if err != nil {
		t.Fatalf("FullGameValues: %v", err)
	}

	ctx, err := topology.NewContext(p, 1, 1)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	v1, v2 := topology.ValueFunctions(ctx, montecarlo.NewRand(7))
	if got.Leader != v1 || got.Follower != v2 {
		t.Errorf("full game must be the value functions on one stream: (%g, %g) vs (%g, %g)",
			got.Leader, got.Follower, v1, v2)
	}
}

func TestDecomposeEffects_AdditiveIdentity(t *testing.T) {
	p := domain.Baseline()
	decomp, err := DecomposeEffects(p, 1, 1, 42, 0)
	if err != nil {
		t.Fatalf("DecomposeEffects: %v", err)
	}

	for name, firm := range map[string]FirmEffects{"firm 1": decomp.Firm1, "firm 2": decomp.Firm2} {
		if diff := firm.SequentialEffect + firm.InformationEffect - firm.TotalGain; math.Abs(diff) > 1e-9 {
			t.Errorf("%s: channels must sum to the total gain, off by %g", name, diff)
		}
		if firm.Benchmark <= 0 {
			t.Errorf("%s: benchmark profit must be positive at baseline, got %g", name, firm.Benchmark)
		}
		if firm.Full <= 0 {
			t.Errorf("%s: full-game value must be positive at baseline, got %g", name, firm.Full)
		}
	}
}

func TestDecomposeEffects_VariantsShareTheSeed(t *testing.T) {
	p := domain.Baseline()
	decomp, err := DecomposeEffects(p, 1, 1, 42, EffectTrials)
	if err != nil {
		t.Fatalf("DecomposeEffects: %v", err)
	}

	benchmark := BenchmarkProfits(p, montecarlo.NewRand(42), EffectTrials)
	if decomp.Firm1.Benchmark != benchmark.Leader || decomp.Firm2.Benchmark != benchmark.Follower {
		t.Error("benchmark variant must rerun bit-identically on a fresh same-seed generator")
	}
	hybrid := HybridProfits(p, montecarlo.NewRand(42), EffectTrials)
	if decomp.Firm1.Hybrid != hybrid.Leader || decomp.Firm2.Hybrid != hybrid.Follower {
		t.Error("hybrid variant must rerun bit-identically on a fresh same-seed generator")
	}
	full, err := FullGameValues(p, 1, 1, montecarlo.NewRand(42))
	if err != nil {
		t.Fatalf("FullGameValues: %v", err)
	}
	if decomp.Firm1.Full != full.Leader || decomp.Firm2.Full != full.Follower {
		t.Error("full variant must rerun bit-identically on a fresh same-seed generator")
	}
}

func TestDecomposeEffects_SeededRunsAreBitIdentical(t *testing.T) {
	p := domain.Baseline()
	first, err := DecomposeEffects(p, 2, 3, 9, 0)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := DecomposeEffects(p, 2, 3, 9, 0)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if *first != *second {
		t.Errorf("same seed must reproduce the decomposition exactly:\n%+v\n%+v", first, second)
	}
}

func TestDecomposeEffects_PropagatesStabilityError(t *testing.T) {
	_, err := DecomposeEffects(crossDominantParams(), 1, 1, 42, 0)
	if !errors.Is(err, domain.ErrStability) {
		t.Fatalf("expected a stability error, got %v", err)
	}
}

func TestInformationValueCurve_TracksEspionageRange(t *testing.T) {
	p := domain.Baseline()
	i2Range := []float64{0.5, 1, 2}

	points, err := InformationValueCurve(p, 1, i2Range, 42, EffectTrials)
	if err != nil {
		t.Fatalf("InformationValueCurve: %v", err)
	}
	if len(points) != len(i2Range) {
		t.Fatalf("expected %d points, got %d", len(i2Range), len(points))
	}
	for i, pt := range points {
		if pt.I2 != i2Range[i] {
			t.Errorf("point %d: expected I₂ = %g, got %g", i, i2Range[i], pt.I2)
		}
	}

	again, err := InformationValueCurve(p, 1, i2Range, 42, EffectTrials)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	for i := range points {
		if points[i] != again[i] {
			t.Errorf("point %d: same seed must reproduce the curve exactly", i)
		}
	}
}
