package domain

import "fmt"

// Parameters holds the exogenous constants of the espionage duopoly model.
// Zero values are never valid; construct via Baseline, ScenarioParams, or a
// literal followed by Validate.
type Parameters struct {
	// Demand system
	Alpha float64 // demand intercept α > 0
	Beta  float64 // own-price slope β > 0
	Delta float64 // cross-price substitutability, 0 < δ < β

	// Costs
	Gamma  float64 // follower's fixed public marginal cost γ ≥ 0
	Kappa1 float64 // leader counter-espionage cost coefficient κ₁ > 0
	Kappa2 float64 // follower espionage cost coefficient κ₂ > 0

	// Contest success function
	Epsilon       float64 // contest regularization ε > 0
	GammaExponent float64 // diminishing-returns exponent, in (0,1]
	LambdaDefense float64 // defense effectiveness multiplier λ > 0

	// Signal technology
	Iota         float64 // signal variance regularization ι > 0
	SigmaEpsilon float64 // base signal noise std σ_ε > 0
	SigmaC       float64 // leader cost prior std σ_c > 0

	// Strategy space and prior
	IBar float64 // investment upper bound Ī > 0
	MuC  float64 // leader cost prior mean μ_c > 0
}

// ParameterKeys lists the stable snake_case keys in canonical order.
// Sweep plans, exports, and stored parameter snapshots all use these names.
var ParameterKeys = []string{
	"alpha", "beta", "delta", "gamma",
	"kappa_1", "kappa_2",
	"epsilon", "gamma_exponent", "lambda_defense",
	"iota", "sigma_epsilon", "sigma_c",
	"I_bar", "mu_c",
}

// Baseline returns the reference calibration used by the solver, the
// comparative-statics suite, and the tests.
func Baseline() Parameters {
	return Parameters{
		Alpha:         100.0,
		Beta:          1.5,
		Delta:         0.3,
		Gamma:         45.0,
		Kappa1:        0.5,
		Kappa2:        1.0,
		Epsilon:       0.5,
		GammaExponent: 0.6,
		LambdaDefense: 1.5,
		Iota:          2.0,
		SigmaEpsilon:  10.0,
		SigmaC:        8.0,
		IBar:          20.0,
		MuC:           40.0,
	}
}

// Validate checks every model constraint and reports the first violation.
func (p Parameters) Validate() error {
	if p.Alpha <= 0 {
		return validationErrorf("alpha", "demand parameter alpha must be positive (α > 0), got %g", p.Alpha)
	}
	if p.Beta <= 0 {
		return validationErrorf("beta", "demand parameter beta must be positive (β > 0), got %g", p.Beta)
	}
	if p.Delta <= 0 || p.Delta >= p.Beta {
		return validationErrorf("delta", "substitutability requires 0 < δ < β, got δ=%g, β=%g", p.Delta, p.Beta)
	}
	if p.Gamma < 0 {
		return validationErrorf("gamma", "cost asymmetry must be non-negative (γ ≥ 0), got %g", p.Gamma)
	}
	if p.Kappa1 <= 0 {
		return validationErrorf("kappa_1", "leader investment cost must be positive (κ₁ > 0), got %g", p.Kappa1)
	}
	if p.Kappa2 <= 0 {
		return validationErrorf("kappa_2", "follower investment cost must be positive (κ₂ > 0), got %g", p.Kappa2)
	}
	if p.Epsilon <= 0 {
		return validationErrorf("epsilon", "contest regularization must be positive (ε > 0), got %g", p.Epsilon)
	}
	if p.GammaExponent <= 0 || p.GammaExponent > 1 {
		return validationErrorf("gamma_exponent", "contest exponent must be in (0,1], got %g", p.GammaExponent)
	}
	if p.LambdaDefense <= 0 {
		return validationErrorf("lambda_defense", "defense multiplier must be positive (λ > 0), got %g", p.LambdaDefense)
	}
	if p.Iota <= 0 {
		return validationErrorf("iota", "signal regularization must be positive (ι > 0), got %g", p.Iota)
	}
	if p.SigmaEpsilon <= 0 {
		return validationErrorf("sigma_epsilon", "noise std must be positive (σ_ε > 0), got %g", p.SigmaEpsilon)
	}
	if p.SigmaC <= 0 {
		return validationErrorf("sigma_c", "cost std must be positive (σ_c > 0), got %g", p.SigmaC)
	}
	if p.IBar <= 0 {
		return validationErrorf("I_bar", "investment upper bound must be positive (Ī > 0), got %g", p.IBar)
	}
	if p.MuC <= 0 {
		return validationErrorf("mu_c", "prior mean must be positive (μ_c > 0), got %g", p.MuC)
	}
	return nil
}

// Fields returns the parameter values keyed by their stable names.
func (p Parameters) Fields() map[string]float64 {
	return map[string]float64{
		"alpha":          p.Alpha,
		"beta":           p.Beta,
		"delta":          p.Delta,
		"gamma":          p.Gamma,
		"kappa_1":        p.Kappa1,
		"kappa_2":        p.Kappa2,
		"epsilon":        p.Epsilon,
		"gamma_exponent": p.GammaExponent,
		"lambda_defense": p.LambdaDefense,
		"iota":           p.Iota,
		"sigma_epsilon":  p.SigmaEpsilon,
		"sigma_c":        p.SigmaC,
		"I_bar":          p.IBar,
		"mu_c":           p.MuC,
	}
}

// WithOverrides returns a validated copy with the named fields replaced.
// Unknown keys are rejected so a misspelled sweep plan fails loudly
// instead of silently sweeping nothing.
func (p Parameters) WithOverrides(overrides map[string]float64) (Parameters, error) {
	out := p
	for key, value := range overrides {
		switch key {
		case "alpha":
			out.Alpha = value
		case "beta":
			out.Beta = value
		case "delta":
			out.Delta = value
		case "gamma":
			out.Gamma = value
		case "kappa_1":
			out.Kappa1 = value
		case "kappa_2":
			out.Kappa2 = value
		case "epsilon":
			out.Epsilon = value
		case "gamma_exponent":
			out.GammaExponent = value
		case "lambda_defense":
			out.LambdaDefense = value
		case "iota":
			out.Iota = value
		case "sigma_epsilon":
			out.SigmaEpsilon = value
		case "sigma_c":
			out.SigmaC = value
		case "I_bar":
			out.IBar = value
		case "mu_c":
			out.MuC = value
		default:
			return Parameters{}, fmt.Errorf("unknown parameter %q", key)
		}
	}
	if err := out.Validate(); err != nil {
		return Parameters{}, err
	}
	return out, nil
}
