package topology

import (
	"math"

	"espionage-duopoly-lab/internal/domain"
)

// DemandInteraction computes Δ = δ²/(2β), the cross-price term carried
// through the profit formulas. Positive whenever the parameters are.
func DemandInteraction(p domain.Parameters) float64 {
	return p.Delta * p.Delta / (2 * p.Beta)
}

// LeaderSlope computes the leader's effective demand slope
// B_{ρ,κ} = β − ρκδ²/(2β) after the follower's espionage-informed best
// response is folded in. A non-positive slope violates the leader's
// second-order condition.
func LeaderSlope(rho, kappa float64, p domain.Parameters) (float64, error) {
	b := p.Beta - rho*kappa*p.Delta*p.Delta/(2*p.Beta)
	if b <= 0 {
		return 0, &domain.StabilityError{
			Condition: "B_rho_kappa",
			Value:     b,
			Detail:    "effective demand slope B_{ρ,κ} must be positive (SOC)",
		}
	}
	return b, nil
}

// InterceptNumerator computes the fixed-point numerator
// α(2β+δ)/(2β) + δμ_c/2 + δ²(1−ρκ)μ_c/(4β).
func InterceptNumerator(rho, kappa float64, p domain.Parameters) float64 {
	term1 := p.Alpha * (2*p.Beta + p.Delta) / (2 * p.Beta)
	term2 := p.Delta * p.MuC / 2
	term3 := p.Delta * p.Delta * (1 - rho*kappa) * p.MuC / (4 * p.Beta)
	return term1 + term2 + term3
}

// InterceptDenominator computes 2β − δ²(1+ρκ)/(2β). A non-positive
// denominator breaks the contraction that pins down the intercept.
func InterceptDenominator(rho, kappa float64, p domain.Parameters) (float64, error) {
	d := 2*p.Beta - p.Delta*p.Delta*(1+rho*kappa)/(2*p.Beta)
	if d <= 0 {
		return 0, &domain.StabilityError{
			Condition: "denominator_a",
			Value:     d,
			Detail:    "fixed-point denominator must be positive (stability)",
		}
	}
	return d, nil
}

// Quantity computes demand Q = max(0, α − β·own + δ·other) for the firm
// charging own against a rival charging other.
func Quantity(own, other float64, p domain.Parameters) float64 {
	return math.Max(0, p.Alpha-p.Beta*own+p.Delta*other)
}

// LeaderPrice is the leader's affine pricing rule p₁*(c₁) = a + c₁/2:
// half of any private cost realization passes through to the price.
func LeaderPrice(a, c1 float64) float64 {
	return a + 0.5*c1
}

// FollowerPrice is the follower's best response (α + βc₂ + δE[p₁])/(2β).
// When espionage delivered a signal s the expectation is the posterior
// mean (1−κ)·p̄₁ + κ·s; otherwise it is the prior mean p̄₁.
func FollowerPrice(c2, priorP1, kappa, signal float64, informed bool, p domain.Parameters) float64 {
	expected := priorP1
	if informed {
		expected = (1-kappa)*priorP1 + kappa*signal
	}
	return (p.Alpha + p.Beta*c2 + p.Delta*expected) / (2 * p.Beta)
}

// Profit computes (price − cost) · quantity. Negative when the realized
// cost exceeds the price.
func Profit(price, quantity, cost float64) float64 {
	return (price - cost) * quantity
}

// Utility nets the quadratic investment cost: U = V − (κᵢ/2)Iᵢ².
func Utility(value, invest, costCoeff float64) float64 {
	return value - 0.5*costCoeff*invest*invest
}

// TotalWelfare sums consumer surplus and both firm values:
// W = CS + V₁ + V₂.
func TotalWelfare(cs, v1, v2 float64) float64 {
	return cs + v1 + v2
}
