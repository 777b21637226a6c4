package topology

import (
	"errors"
	"math"
	"testing"

	"espionage-duopoly-lab/internal/domain"
)

func TestNewContext_MatchesDirectEvaluation(t *testing.T) {
	p := domain.Baseline()
	ctx, err := NewContext(p, 1.0, 1.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ctx.Rho != Rho(1.0, 1.0, p) {
		t.Errorf("context ρ diverges from direct evaluation: %g", ctx.Rho)
	}
	if ctx.Kappa != Kappa(1.0, p) {
		t.Errorf("context κ diverges from direct evaluation: %g", ctx.Kappa)
	}
	if ctx.Delta != DemandInteraction(p) {
		t.Errorf("context Δ diverges from direct evaluation: %g", ctx.Delta)
	}
	b, err := LeaderSlope(ctx.Rho, ctx.Kappa, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ctx.B != b {
		t.Errorf("context B diverges from direct evaluation: %g vs %g", ctx.B, b)
	}
	if want := 1.0 / 3.0; math.Abs(ctx.Rho-want) > 1e-15 {
		t.Errorf("expected ρ(1,1) = 1/3 at baseline, got %g", ctx.Rho)
	}
	if want := 12.0 / 37.0; math.Abs(ctx.Kappa-want) > 1e-12 {
		t.Errorf("expected κ(1) = 12/37 at baseline, got %g", ctx.Kappa)
	}
}

func TestNewContext_InterceptSolve(t *testing.T) {
	ctx, err := NewContext(domain.Baseline(), 1.0, 1.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !ctx.FixedPointConverged {
		t.Error("constant fixed-point map must converge")
	}
	if ctx.FixedPointIterations != 1 {
		t.Errorf("expected a single Banach step, got %d", ctx.FixedPointIterations)
	}
	want := ctx.Numerator / ctx.Denominator
	if ctx.Intercept != want {
		t.Errorf("expected intercept %g, got %g", want, ctx.Intercept)
	}
	if ctx.Intercept <= 0 {
		t.Errorf("baseline intercept must be positive, got %g", ctx.Intercept)
	}
	if got := ctx.PriorPrice - ctx.Intercept; math.Abs(got-20) > 1e-12 {
		t.Errorf("prior price must sit μ_c/2 = 20 above the intercept, got offset %g", got)
	}
}

func TestNewContext_NoiseStd(t *testing.T) {
	ctx, err := NewContext(domain.Baseline(), 1.0, 1.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 10.0 / math.Sqrt(3.0)
	if math.Abs(ctx.NoiseStd()-want) > 1e-12 {
		t.Errorf("expected noise std %g at I₂ = 1, got %g", want, ctx.NoiseStd())
	}
}

func TestNewContext_PropagatesStabilityError(t *testing.T) {
	// Heavy espionage against a weak defender with δ > β drives ρκ high
	// enough to flip the leader's effective slope negative.
	_, err := NewContext(steepCross(), 0.0, 1000.0)
	if err == nil {
		t.Fatal("expected stability error")
	}
	if !errors.Is(err, domain.ErrStability) {
		t.Errorf("error must wrap ErrStability, got %v", err)
	}
}

func TestSolveIntercept_ConstantMap(t *testing.T) {
	a, iterations, converged := SolveIntercept(116.6, 2.97)
	if !converged {
		t.Error("expected convergence")
	}
	if iterations != 1 {
		t.Errorf("expected 1 iteration, got %d", iterations)
	}
	if want := 116.6 / 2.97; a != want {
		t.Errorf("expected %g, got %g", want, a)
	}
}
