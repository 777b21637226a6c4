package topology

import (
	"math/rand/v2"

	"espionage-duopoly-lab/internal/domain"
	"espionage-duopoly-lab/internal/montecarlo"
)

// InterimTrials is the Monte Carlo depth for the closed-form interim
// profit expectations.
const InterimTrials = 10_000

// LeaderInterimProfit is the closed-form interim profit
// Π₁*(c₁) = (p₁*(c₁) − c₁)² · B_{ρ,κ}, the leader's profit conditional
// on a realized cost before the market clears.
func LeaderInterimProfit(c1, intercept, slope float64) float64 {
	markup := LeaderPrice(intercept, c1) - c1
	return markup * markup * slope
}

// FollowerUninformedProfit is Π₂ᵁ = (p₂ᵁ − c₂)² · Δ, the follower's
// interim profit when espionage failed and pricing runs off the prior.
func FollowerUninformedProfit(priorP1, c2 float64, p domain.Parameters) float64 {
	markup := FollowerPrice(c2, priorP1, 0, 0, false, p) - c2
	return markup * markup * DemandInteraction(p)
}

// InformationGain is the expected profit lift from a successful
// intercept, ΔΠ₂ᴵⁿᶠᵒ(κ) = (δ²/(16β)) · κ · σ_c².
func InformationGain(kappa float64, p domain.Parameters) float64 {
	return p.Delta * p.Delta / (16 * p.Beta) * kappa * p.SigmaC * p.SigmaC
}

// FollowerInterimProfit composes Π₂* = Π₂ᵁ + ρ·ΔΠ₂ᴵⁿᶠᵒ(κ): the
// uninformed baseline plus the success-weighted information value.
func FollowerInterimProfit(rho, kappa, priorP1, c2 float64, p domain.Parameters) float64 {
	return FollowerUninformedProfit(priorP1, c2, p) + rho*InformationGain(kappa, p)
}

// ExpectedLeaderInterimProfit averages Π₁* over leader cost draws.
func ExpectedLeaderInterimProfit(c *Context, rng *rand.Rand) float64 {
	p := c.Params
	sum := 0.0
	for i := 0; i < InterimTrials; i++ {
		c1 := montecarlo.Normal(rng, p.MuC, p.SigmaC)
		sum += LeaderInterimProfit(c1, c.Intercept, c.B)
	}
	return sum / InterimTrials
}

// ExpectedFollowerInterimProfit averages Π₂* over cost draws.
func ExpectedFollowerInterimProfit(c *Context, rng *rand.Rand) float64 {
	p := c.Params
	sum := 0.0
	for i := 0; i < InterimTrials; i++ {
		c2 := montecarlo.Normal(rng, p.MuC, p.SigmaC)
		sum += FollowerInterimProfit(c.Rho, c.Kappa, c.PriorPrice, c2, p)
	}
	return sum / InterimTrials
}
