package analysis

import (
	"errors"
	"math"
	"strings"
	"testing"

	"espionage-duopoly-lab/internal/domain"
)

// crossDominantParams violates the validator's δ < β ordering, which is
// the only way to reach the stability guards: every validated parameter
// set keeps both slope conditions positive.
func crossDominantParams() domain.Parameters {
	return domain.Parameters{
		Alpha: 10, Beta: 1, Delta: 2,
		Gamma: 5, Kappa1: 0.5, Kappa2: 1,
		Epsilon: 0.5, GammaExponent: 1, LambdaDefense: 1,
		Iota: 1, SigmaEpsilon: 1, SigmaC: 1,
		IBar: 20, MuC: 1,
	}
}

func TestMarginalInvestmentCost_IsLinear(t *testing.T) {
	if got := MarginalInvestmentCost(3, 0.5); got != 1.5 {
		t.Errorf("ψ′(3) with κ = 0.5: expected 1.5, got %g", got)
	}
	if got := MarginalInvestmentCost(0, 1); got != 0 {
		t.Errorf("ψ′(0) must be zero, got %g", got)
	}
}

func TestLagrangeMultipliers_InteriorPoint(t *testing.T) {
	muL, muU := LagrangeMultipliers(5, 2, 10, 20)
	if muL != 0 || muU != 0 {
		t.Errorf("interior point must carry zero multipliers, got (%g, %g)", muL, muU)
	}
}

func TestLagrangeMultipliers_LowerBound(t *testing.T) {
	muL, muU := LagrangeMultipliers(2, 0, 0, 20)
	if muL != 2 || muU != 0 {
		t.Errorf("active lower bound with positive gradient: expected (2, 0), got (%g, %g)", muL, muU)
	}
	muL, muU = LagrangeMultipliers(1, 4, 0, 20)
	if muL != 0 || muU != 0 {
		t.Errorf("negative gradient leaves the lower multiplier at zero, got (%g, %g)", muL, muU)
	}
}

func TestLagrangeMultipliers_UpperBound(t *testing.T) {
	muL, muU := LagrangeMultipliers(1, 4, 20, 20)
	if muL != 0 || muU != 3 {
		t.Errorf("active upper bound with negative gradient: expected (0, 3), got (%g, %g)", muL, muU)
	}
	muL, muU = LagrangeMultipliers(5, 1, 20, 20)
	if muL != 0 || muU != 0 {
		t.Errorf("positive gradient leaves the upper multiplier at zero, got (%g, %g)", muL, muU)
	}
}

func TestVerifyKKT_InteriorDiagnostics(t *testing.T) {
	p := domain.Baseline()
	report, err := VerifyKKT(p, 1, 1, 42, DefaultStep, DefaultKKTTolerance)
	if err != nil {
		t.Fatalf("VerifyKKT: %v", err)
	}

	if report.I1 != 1 || report.I2 != 1 {
		t.Errorf("report must echo the candidate point, got (%g, %g)", report.I1, report.I2)
	}
	if report.Firm1.MarginalCost != p.Kappa1 || report.Firm2.MarginalCost != p.Kappa2 {
		t.Errorf("ψ′(1) must equal the cost coefficients, got (%g, %g)",
			report.Firm1.MarginalCost, report.Firm2.MarginalCost)
	}

	for name, firm := range map[string]FirmKKT{"firm 1": report.Firm1, "firm 2": report.Firm2} {
		if firm.MuLower != 0 || firm.MuUpper != 0 {
			t.Errorf("%s: interior point must carry zero multipliers, got (%g, %g)",
				name, firm.MuLower, firm.MuUpper)
		}
		if !firm.PrimalFeasible {
			t.Errorf("%s: (1, 1) is inside the box", name)
		}
		if !firm.DualFeasible {
			t.Errorf("%s: zero multipliers are dual feasible", name)
		}
		wantResidual := firm.MarginalValue - firm.MarginalCost
		if firm.StationarityResidual != wantResidual {
			t.Errorf("%s: residual %g does not match ∂V/∂I − ψ′ = %g",
				name, firm.StationarityResidual, wantResidual)
		}
		wantSatisfied := math.Abs(firm.StationarityResidual) < DefaultKKTTolerance &&
			firm.PrimalFeasible && firm.DualFeasible && firm.ComplementarySlack
		if firm.Satisfied != wantSatisfied {
			t.Errorf("%s: Satisfied flag inconsistent with its components", name)
		}
	}

	if report.Satisfied != (report.Firm1.Satisfied && report.Firm2.Satisfied) {
		t.Error("overall flag must be the conjunction of the per-firm flags")
	}
}

func TestVerifyKKT_SeededRunsAreBitIdentical(t *testing.T) {
	p := domain.Baseline()
	first, err := VerifyKKT(p, 2, 3, 11, DefaultStep, DefaultKKTTolerance)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := VerifyKKT(p, 2, 3, 11, DefaultStep, DefaultKKTTolerance)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if *first != *second {
		t.Errorf("same seed must reproduce the report exactly:\n%+v\n%+v", first, second)
	}
}

func TestVerifyKKT_PropagatesStabilityError(t *testing.T) {
	_, err := VerifyKKT(crossDominantParams(), 1, 1, 42, DefaultStep, DefaultKKTTolerance)
	if !errors.Is(err, domain.ErrStability) {
		t.Fatalf("expected a stability error, got %v", err)
	}
}

func TestKKTReport_FormatMentionsVerdict(t *testing.T) {
	p := domain.Baseline()
	report, err := VerifyKKT(p, 1, 1, 42, DefaultStep, DefaultKKTTolerance)
	if err != nil {
		t.Fatalf("VerifyKKT: %v", err)
	}
	out := report.Format()
	for _, want := range []string{"KKT verification", "stationarity residual", "complementary slackness"} {
		if !strings.Contains(out, want) {
			t.Errorf("formatted report missing %q:\n%s", want, out)
		}
	}
}
