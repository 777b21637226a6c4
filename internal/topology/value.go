package topology

import (
	"math/rand/v2"

	"espionage-duopoly-lab/internal/montecarlo"
)

// Monte Carlo depths. ValueTrials is deliberately deep: the outer
// optimizer differentiates through these estimates, so their noise
// floor bounds the achievable gradient accuracy.
const (
	ValueTrials   = 50_000
	SurplusTrials = 10_000
)

// roundOutcome is one simulated play of the pricing stage.
type roundOutcome struct {
	c1, c2 float64
	p1, p2 float64
	q1, q2 float64
}

// simulateRound plays the full game sequence once: draw the leader's
// private cost, price off the intercept, resolve the espionage contest,
// form the follower's posterior, clear the market. The draw order
// (cost, contest, conditional noise) is part of the reproducibility
// contract; reordering it changes every seeded result.
func (c *Context) simulateRound(rng *rand.Rand) roundOutcome {
	p := c.Params

	c1 := montecarlo.Normal(rng, p.MuC, p.SigmaC)
	c2 := p.Gamma

	p1 := LeaderPrice(c.Intercept, c1)

	informed := rng.Float64() < c.Rho
	signal := 0.0
	if informed {
		signal = p1 + montecarlo.Normal(rng, 0, c.NoiseStd())
	}

	p2 := FollowerPrice(c2, c.PriorPrice, c.Kappa, signal, informed, p)

	return roundOutcome{
		c1: c1, c2: c2,
		p1: p1, p2: p2,
		q1: Quantity(p1, p2, p),
		q2: Quantity(p2, p1, p),
	}
}

// ValueLeader estimates V₁(I₁,I₂), the leader's expected market profit,
// over ValueTrials simulated rounds.
func ValueLeader(c *Context, rng *rand.Rand) float64 {
	sum := 0.0
	for i := 0; i < ValueTrials; i++ {
		r := c.simulateRound(rng)
		sum += Profit(r.p1, r.q1, r.c1)
	}
	return sum / ValueTrials
}

// ValueFollower estimates V₂(I₁,I₂), the follower's expected market
// profit, over ValueTrials simulated rounds.
func ValueFollower(c *Context, rng *rand.Rand) float64 {
	sum := 0.0
	for i := 0; i < ValueTrials; i++ {
		r := c.simulateRound(rng)
		sum += Profit(r.p2, r.q2, r.c2)
	}
	return sum / ValueTrials
}

// ValueFunctions runs both estimates in the canonical order on one
// shared stream: the leader's loop first, the follower's continuing the
// same generator.
func ValueFunctions(c *Context, rng *rand.Rand) (float64, float64) {
	v1 := ValueLeader(c, rng)
	v2 := ValueFollower(c, rng)
	return v1, v2
}

// ConsumerSurplus estimates E[½(βq₁² + 2δq₁q₂ + βq₂²)] over
// SurplusTrials simulated rounds.
func ConsumerSurplus(c *Context, rng *rand.Rand) float64 {
	p := c.Params
	sum := 0.0
	for i := 0; i < SurplusTrials; i++ {
		r := c.simulateRound(rng)
		sum += 0.5 * (p.Beta*r.q1*r.q1 + 2*p.Delta*r.q1*r.q2 + p.Beta*r.q2*r.q2)
	}
	return sum / SurplusTrials
}
