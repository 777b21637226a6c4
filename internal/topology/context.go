package topology

import (
	"log/slog"
	"math"

	"espionage-duopoly-lab/internal/domain"
	"espionage-duopoly-lab/internal/fixedpoint"
)

// Context carries the deterministic Stage 4 objects for one (I₁,I₂)
// pair. Building it once per investment pair lets the value functions,
// consumer surplus, and the analysis suite share a single intercept
// solve instead of each repeating levels 2 through 6.
type Context struct {
	Params domain.Parameters
	I1, I2 float64

	Rho         float64 // level 2: espionage success probability
	Kappa       float64 // level 3: signal precision
	Delta       float64 // level 4: demand interaction δ²/(2β)
	B           float64 // level 5: leader's effective demand slope
	Numerator   float64 // level 5: intercept fixed-point numerator
	Denominator float64 // level 5: intercept fixed-point denominator
	Intercept   float64 // level 6: a_{ρ,κ}
	PriorPrice  float64 // p̄₁* = a + μ_c/2, the follower's prior mean

	FixedPointIterations int
	FixedPointConverged  bool
}

// NewContext evaluates levels 2 through 6 for the investment pair.
// Stability violations surface as *domain.StabilityError and mark the
// point infeasible; they are never clamped away.
func NewContext(p domain.Parameters, I1, I2 float64) (*Context, error) {
	rho := Rho(I1, I2, p)
	kappa := Kappa(I2, p)
	delta := DemandInteraction(p)

	b, err := LeaderSlope(rho, kappa, p)
	if err != nil {
		return nil, err
	}
	numerator := InterceptNumerator(rho, kappa, p)
	denominator, err := InterceptDenominator(rho, kappa, p)
	if err != nil {
		return nil, err
	}
	a, iterations, converged := SolveIntercept(numerator, denominator)

	return &Context{
		Params:               p,
		I1:                   I1,
		I2:                   I2,
		Rho:                  rho,
		Kappa:                kappa,
		Delta:                delta,
		B:                    b,
		Numerator:            numerator,
		Denominator:          denominator,
		Intercept:            a,
		PriorPrice:           a + 0.5*p.MuC,
		FixedPointIterations: iterations,
		FixedPointConverged:  converged,
	}, nil
}

// NoiseStd is the signal noise standard deviation σ_ε/√(I₂+ι) at the
// context's espionage investment.
func (c *Context) NoiseStd() float64 {
	return c.Params.SigmaEpsilon / math.Sqrt(c.I2+c.Params.Iota)
}

// SolveIntercept resolves the market-clearing intercept a_{ρ,κ} from its
// fixed-point characterization. The linearized map is constant in a, so
// Banach iteration lands in a single step; running it through the solver
// keeps the convergence diagnostics honest.
func SolveIntercept(numerator, denominator float64) (float64, int, bool) {
	initial := numerator / denominator
	a, iterations, converged := fixedpoint.Solve(func(float64) float64 {
		return numerator / denominator
	}, initial, fixedpoint.DefaultTol, fixedpoint.DefaultMaxIter)

	if a <= 0 {
		slog.Warn("intercept a_{ρ,κ} is non-positive, parameters may be misspecified",
			"intercept", a)
	}
	return a, iterations, converged
}
