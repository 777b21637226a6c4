package topology

import (
	"errors"
	"math"
	"testing"

	"espionage-duopoly-lab/internal/domain"
)

// steepCross is deliberately outside the validated region (δ > β) so the
// stability checks actually fire; Baseline() parameters can never trip
// them because δ < β keeps both conditions positive.
func steepCross() domain.Parameters {
	return domain.Parameters{
		Alpha:         10,
		Beta:          1,
		Delta:         2,
		Gamma:         5,
		Kappa1:        0.5,
		Kappa2:        1,
		Epsilon:       0.5,
		GammaExponent: 1,
		LambdaDefense: 1,
		Iota:          1,
		SigmaEpsilon:  1,
		SigmaC:        1,
		IBar:          20,
		MuC:           1,
	}
}

func TestDemandInteraction_Baseline(t *testing.T) {
	got := DemandInteraction(domain.Baseline())
	if math.Abs(got-0.03) > 1e-15 {
		t.Errorf("expected Δ = 0.03 at baseline, got %g", got)
	}
}

func TestLeaderSlope_NoEspionageRecoversBeta(t *testing.T) {
	p := domain.Baseline()
	b, err := LeaderSlope(0, 0, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b != p.Beta {
		t.Errorf("with ρκ = 0 the slope must equal β = %g, got %g", p.Beta, b)
	}
}

func TestLeaderSlope_FullLeakage(t *testing.T) {
	b, err := LeaderSlope(1, 1, domain.Baseline())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(b-1.47) > 1e-12 {
		t.Errorf("expected B = 1.47 at full leakage, got %g", b)
	}
}

func TestLeaderSlope_ViolationIsStabilityError(t *testing.T) {
	_, err := LeaderSlope(1, 1, steepCross())
	if err == nil {
		t.Fatal("expected stability error for δ > β under full leakage")
	}
	if !errors.Is(err, domain.ErrStability) {
		t.Errorf("error must wrap ErrStability, got %v", err)
	}
	var stab *domain.StabilityError
	if !errors.As(err, &stab) {
		t.Fatalf("expected *domain.StabilityError, got %T", err)
	}
	if stab.Condition != "B_rho_kappa" {
		t.Errorf("expected condition B_rho_kappa, got %q", stab.Condition)
	}
	if stab.Value != -1 {
		t.Errorf("expected reported slope -1, got %g", stab.Value)
	}
}

func TestInterceptNumerator_Baseline(t *testing.T) {
	p := domain.Baseline()
	// α(2β+δ)/(2β) = 110, δμ_c/2 = 6, δ²μ_c/(4β) = 0.6.
	got := InterceptNumerator(0, 0, p)
	if math.Abs(got-116.6) > 1e-9 {
		t.Errorf("expected numerator 116.6 with ρκ = 0, got %g", got)
	}
	// Full leakage removes the third term.
	got = InterceptNumerator(1, 1, p)
	if math.Abs(got-116.0) > 1e-9 {
		t.Errorf("expected numerator 116 with ρκ = 1, got %g", got)
	}
}

func TestInterceptDenominator_Baseline(t *testing.T) {
	p := domain.Baseline()
	got, err := InterceptDenominator(0, 0, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got-2.97) > 1e-12 {
		t.Errorf("expected denominator 2.97 with ρκ = 0, got %g", got)
	}
}

func TestInterceptDenominator_ViolationIsStabilityError(t *testing.T) {
	_, err := InterceptDenominator(1, 1, steepCross())
	if err == nil {
		t.Fatal("expected stability error for δ > β under full leakage")
	}
	var stab *domain.StabilityError
	if !errors.As(err, &stab) {
		t.Fatalf("expected *domain.StabilityError, got %T", err)
	}
	if stab.Condition != "denominator_a" {
		t.Errorf("expected condition denominator_a, got %q", stab.Condition)
	}
	if stab.Value != -2 {
		t.Errorf("expected reported denominator -2, got %g", stab.Value)
	}
}

func TestQuantity_LinearRegion(t *testing.T) {
	got := Quantity(10, 20, domain.Baseline())
	if math.Abs(got-91) > 1e-12 {
		t.Errorf("expected Q = 100 - 15 + 6 = 91, got %g", got)
	}
}

func TestQuantity_TruncatesAtZero(t *testing.T) {
	if got := Quantity(100, 0, domain.Baseline()); got != 0 {
		t.Errorf("demand must truncate at zero, got %g", got)
	}
}

func TestLeaderPrice_HalfCostPassThrough(t *testing.T) {
	if got := LeaderPrice(39, 40); got != 59 {
		t.Errorf("expected p₁ = 39 + 20 = 59, got %g", got)
	}
}

func TestFollowerPrice_Uninformed(t *testing.T) {
	p := domain.Baseline()
	got := FollowerPrice(45, 60, 0.5, 999, false, p)
	want := (100.0 + 1.5*45 + 0.3*60) / 3.0
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("uninformed follower must price off the prior: expected %g, got %g", want, got)
	}
}

func TestFollowerPrice_InformedBlendsSignal(t *testing.T) {
	p := domain.Baseline()
	// κ = 0.5 puts the posterior mean halfway between prior 60 and signal 70.
	got := FollowerPrice(45, 60, 0.5, 70, true, p)
	want := (100.0 + 1.5*45 + 0.3*65) / 3.0
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("expected posterior-mean pricing %g, got %g", want, got)
	}

	// Zero precision discards the signal entirely.
	ignored := FollowerPrice(45, 60, 0, 70, true, p)
	prior := FollowerPrice(45, 60, 0, 70, false, p)
	if ignored != prior {
		t.Errorf("κ = 0 must reduce to the prior: got %g vs %g", ignored, prior)
	}

	// Full precision trusts the signal outright.
	trusted := FollowerPrice(45, 60, 1, 70, true, p)
	want = (100.0 + 1.5*45 + 0.3*70) / 3.0
	if math.Abs(trusted-want) > 1e-12 {
		t.Errorf("κ = 1 must price off the signal: expected %g, got %g", want, trusted)
	}
}

func TestProfit_SignFollowsMarkup(t *testing.T) {
	if got := Profit(59, 29, 40); math.Abs(got-551) > 1e-12 {
		t.Errorf("expected profit 19·29 = 551, got %g", got)
	}
	if got := Profit(35, 10, 40); got >= 0 {
		t.Errorf("cost above price must give negative profit, got %g", got)
	}
}

func TestUtility_NetsQuadraticCost(t *testing.T) {
	if got := Utility(100, 2, 0.5); got != 99 {
		t.Errorf("expected U = 100 - 0.25·4 = 99, got %g", got)
	}
	if got := Utility(100, 0, 0.5); got != 100 {
		t.Errorf("zero investment must leave the value untouched, got %g", got)
	}
}

func TestTotalWelfare_Sums(t *testing.T) {
	if got := TotalWelfare(1, 2, 3); got != 6 {
		t.Errorf("expected W = 6, got %g", got)
	}
}
