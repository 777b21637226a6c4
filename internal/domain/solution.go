package domain

import (
	"fmt"
	"math"
)

// EquilibriumSolution is the Perfect Bayesian Nash equilibrium of the
// four-stage espionage game together with its convergence diagnostics.
type EquilibriumSolution struct {
	// Equilibrium values
	Investments     [2]float64 // (I₁*, I₂*), each in [0, Ī]
	ContestProb     float64    // ρ* ∈ [0,1]
	SignalPrecision float64    // κ* ∈ [0,1]
	ValueFunctions  [2]float64 // (V₁*, V₂*)
	Utilities       [2]float64 // (U₁*, U₂*)
	ConsumerSurplus float64
	TotalWelfare    float64 // W = CS + V₁* + V₂*

	// Convergence diagnostics
	Converged    bool
	GradientNorm float64 // ‖∇(U₁+U₂)‖ at the optimum
	KKTSatisfied bool
	Iterations   int
}

// Validate checks the bound constraints an equilibrium must satisfy.
func (s *EquilibriumSolution) Validate() error {
	if s.Investments[0] < 0 {
		return fmt.Errorf("investment I_1 must be non-negative, got %.6e", s.Investments[0])
	}
	if s.Investments[1] < 0 {
		return fmt.Errorf("investment I_2 must be non-negative, got %.6e", s.Investments[1])
	}
	if s.ContestProb < 0 || s.ContestProb > 1 {
		return fmt.Errorf("contest probability rho must be in [0,1], got %.6e", s.ContestProb)
	}
	if s.SignalPrecision < 0 || s.SignalPrecision > 1 {
		return fmt.Errorf("signal precision kappa must be in [0,1], got %.6e", s.SignalPrecision)
	}
	return nil
}

// ToDict returns the stable serialization contract used by every
// exporter: three groups with fixed key names. External consumers rely
// on these keys, so they never change.
func (s *EquilibriumSolution) ToDict() map[string]map[string]any {
	return map[string]map[string]any{
		"investments": {
			"I_1": s.Investments[0],
			"I_2": s.Investments[1],
		},
		"equilibrium_values": {
			"rho":   s.ContestProb,
			"kappa": s.SignalPrecision,
			"V_1":   s.ValueFunctions[0],
			"V_2":   s.ValueFunctions[1],
			"U_1":   s.Utilities[0],
			"U_2":   s.Utilities[1],
			"CS":    s.ConsumerSurplus,
			"W":     s.TotalWelfare,
		},
		"convergence_diagnostics": {
			"converged":     s.Converged,
			"gradient_norm": s.GradientNorm,
			"kkt_satisfied": s.KKTSatisfied,
			"iterations":    s.Iterations,
		},
	}
}

// WelfareDecomposition returns the welfare components for reports.
func (s *EquilibriumSolution) WelfareDecomposition() map[string]float64 {
	return map[string]float64{
		"Consumer_Surplus": s.ConsumerSurplus,
		"Firm_1_Value":     s.ValueFunctions[0],
		"Firm_2_Value":     s.ValueFunctions[1],
		"Total_Welfare":    s.TotalWelfare,
	}
}

// VerifyKKT checks the first-order conditions at the solved investments
// against the supplied own-gradient evaluators. An interior investment
// needs a vanishing gradient; a boundary investment needs the gradient
// pointing out of the feasible box.
func (s *EquilibriumSolution) VerifyKKT(gradU1, gradU2 func(I1, I2 float64) float64, iBar, tol float64) bool {
	I1, I2 := s.Investments[0], s.Investments[1]
	if !kktHolds(I1, gradU1(I1, I2), iBar, tol) {
		return false
	}
	return kktHolds(I2, gradU2(I1, I2), iBar, tol)
}

func kktHolds(invest, grad, iBar, tol float64) bool {
	switch {
	case invest < tol: // lower bound active
		return grad <= tol
	case invest > iBar-tol: // upper bound active
		return grad >= -tol
	default: // interior
		return math.Abs(grad) <= tol
	}
}
