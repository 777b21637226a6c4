// Package topology implements the 19-level computation graph of the
// espionage duopoly: contest and signal technology, the Stage 4 pricing
// equilibrium, Monte Carlo value functions, and the welfare aggregates.
// Levels only ever consume values from strictly earlier levels.
package topology

import (
	"log/slog"
	"math"

	"espionage-duopoly-lab/internal/domain"
)

// Rho computes the espionage success probability from the regularized
// Tullock contest ρ(I₁,I₂) = I₂^γ / (I₂^γ + λ·I₁^γ + ε). Attack
// investment raises it, defense investment lowers it; ε keeps the ratio
// defined when neither side invests.
func Rho(I1, I2 float64, p domain.Parameters) float64 {
	attack := math.Pow(I2, p.GammaExponent)
	defense := p.LambdaDefense * math.Pow(I1, p.GammaExponent)
	rho := attack / (attack + defense + p.Epsilon)
	return clipProbability("rho", rho)
}

// clipProbability pulls a probability back into [0,1]. The contest and
// signal ratios are in range by construction, so anything beyond
// floating-point drift is reported before clipping.
func clipProbability(name string, v float64) float64 {
	if v >= 0 && v <= 1 {
		return v
	}
	deviation := math.Max(math.Abs(v), math.Abs(v-1)) - 1
	if deviation > domain.ProbabilityClipTolerance {
		slog.Warn("probability outside [0,1], clipping",
			"name", name,
			"value", v,
			"deviation", deviation)
	}
	return math.Min(1, math.Max(0, v))
}
