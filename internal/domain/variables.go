package domain

import (
	"fmt"
	"math"
)

// NumLevels is the count of topological levels (0 through 18).
const NumLevels = 19

// ProbabilityClipTolerance bounds the silent clip window for probability
// variables. Larger deviations are clipped too, but reported.
const ProbabilityClipTolerance = 1e-10

// ClipEvent records a probability variable that left [0,1] by more than
// the clip tolerance and was pulled back.
type ClipEvent struct {
	Name      string
	Value     float64 // value before clipping
	Deviation float64 // overshoot magnitude
}

// Variables collects the 33 model variables in topological order.
// Levels 0-11 describe a single (I₁,I₂) evaluation; levels 12-18 hold
// the equilibrium-starred values filled in after the outer solve.
type Variables struct {
	// Level 0: exogenous prior
	MuC float64
	// Level 1: investment cost coefficients
	Kappa1 float64
	Kappa2 float64
	// Level 2: contest success probability
	Rho float64
	// Level 3: Bayesian signal precision
	Kappa float64
	// Level 4: demand interaction Δ = δ²/(2β)
	Delta float64
	// Level 5: intercept components
	BRhoKappa    float64
	NumeratorA   float64
	DenominatorA float64
	// Level 6: fixed-point intercept
	ARhoKappa float64
	// Level 7: quantities
	Q1Star float64
	Q2Star float64
	// Level 8: prices
	P1Star float64
	P2Star float64
	// Level 9: realized profits
	Pi1Star float64
	Pi2Star float64
	// Level 10: Monte Carlo value functions
	V1 float64
	V2 float64
	// Level 11: net utilities
	U1 float64
	U2 float64
	// Level 12: equilibrium investments
	I1Nash float64
	I2Nash float64
	// Level 13: equilibrium contest and signal
	RhoNash   float64
	KappaNash float64
	// Level 14: equilibrium coefficients
	BNash     float64
	ANash     float64
	DeltaNash float64
	// Level 15: equilibrium value functions
	V1Nash float64
	V2Nash float64
	// Level 16: equilibrium utilities
	U1Nash float64
	U2Nash float64
	// Level 17: consumer surplus
	CS float64
	// Level 18: total welfare W = CS + V₁* + V₂*
	W float64
}

// Validate clips out-of-range probabilities and checks the stability and
// non-negativity constraints. Clips beyond ProbabilityClipTolerance are
// returned for the caller to report; constraint violations are errors.
func (v *Variables) Validate() ([]ClipEvent, error) {
	clips := v.clipProbabilities()

	if v.BRhoKappa <= 0 {
		return clips, &StabilityError{
			Condition: "B_rho_kappa",
			Value:     v.BRhoKappa,
			Detail:    "effective demand slope B_{ρ,κ} must be positive (SOC)",
		}
	}
	if v.DenominatorA <= 0 {
		return clips, &StabilityError{
			Condition: "denominator_a",
			Value:     v.DenominatorA,
			Detail:    "fixed-point denominator must be positive (stability)",
		}
	}

	nonNegative := []struct {
		label string
		value float64
	}{
		{"firm 1 profit", v.Pi1Star},
		{"firm 2 profit", v.Pi2Star},
		{"firm 1 value", v.V1},
		{"firm 2 value", v.V2},
		{"consumer surplus", v.CS},
		{"total welfare", v.W},
	}
	for _, c := range nonNegative {
		if c.value < 0 {
			return clips, fmt.Errorf("%s must be non-negative, got %.6e", c.label, c.value)
		}
	}
	return clips, nil
}

func (v *Variables) clipProbabilities() []ClipEvent {
	var events []ClipEvent
	probs := []struct {
		name  string
		value *float64
	}{
		{"rho", &v.Rho},
		{"kappa", &v.Kappa},
		{"rho_nash", &v.RhoNash},
		{"kappa_nash", &v.KappaNash},
	}
	for _, p := range probs {
		val := *p.value
		if val < 0 || val > 1 {
			deviation := math.Max(math.Abs(val), math.Abs(val-1)) - 1
			if deviation > ProbabilityClipTolerance {
				events = append(events, ClipEvent{Name: p.name, Value: val, Deviation: deviation})
			}
			*p.value = math.Min(1, math.Max(0, val))
		}
	}
	return events
}

// Level returns the name→value map for one topological level.
func (v *Variables) Level(level int) (map[string]float64, error) {
	switch level {
	case 0:
		return map[string]float64{"mu_c": v.MuC}, nil
	case 1:
		return map[string]float64{"kappa_1": v.Kappa1, "kappa_2": v.Kappa2}, nil
	case 2:
		return map[string]float64{"rho": v.Rho}, nil
	case 3:
		return map[string]float64{"kappa": v.Kappa}, nil
	case 4:
		return map[string]float64{"Delta": v.Delta}, nil
	case 5:
		return map[string]float64{
			"B_rho_kappa":   v.BRhoKappa,
			"numerator_a":   v.NumeratorA,
			"denominator_a": v.DenominatorA,
		}, nil
	case 6:
		return map[string]float64{"a_rho_kappa": v.ARhoKappa}, nil
	case 7:
		return map[string]float64{"q_1_star": v.Q1Star, "q_2_star": v.Q2Star}, nil
	case 8:
		return map[string]float64{"p_1_star": v.P1Star, "p_2_star": v.P2Star}, nil
	case 9:
		return map[string]float64{"pi_1_star": v.Pi1Star, "pi_2_star": v.Pi2Star}, nil
	case 10:
		return map[string]float64{"V_1": v.V1, "V_2": v.V2}, nil
	case 11:
		return map[string]float64{"U_1": v.U1, "U_2": v.U2}, nil
	case 12:
		return map[string]float64{"I_1_nash": v.I1Nash, "I_2_nash": v.I2Nash}, nil
	case 13:
		return map[string]float64{"rho_nash": v.RhoNash, "kappa_nash": v.KappaNash}, nil
	case 14:
		return map[string]float64{"B_nash": v.BNash, "a_nash": v.ANash, "Delta_nash": v.DeltaNash}, nil
	case 15:
		return map[string]float64{"V_1_nash": v.V1Nash, "V_2_nash": v.V2Nash}, nil
	case 16:
		return map[string]float64{"U_1_nash": v.U1Nash, "U_2_nash": v.U2Nash}, nil
	case 17:
		return map[string]float64{"CS": v.CS}, nil
	case 18:
		return map[string]float64{"W": v.W}, nil
	default:
		return nil, fmt.Errorf("level must be in [0, 18], got %d", level)
	}
}

// Fields returns all model variables keyed by their canonical names.
func (v *Variables) Fields() map[string]float64 {
	out := make(map[string]float64, 33)
	for level := 0; level < NumLevels; level++ {
		m, _ := v.Level(level)
		for name, value := range m {
			out[name] = value
		}
	}
	return out
}
