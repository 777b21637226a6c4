package analysis

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"espionage-duopoly-lab/internal/domain"
	"espionage-duopoly-lab/internal/montecarlo"
	"espionage-duopoly-lab/internal/topology"
)

// EffectTrials is the Monte Carlo depth for the benchmark and hybrid
// game variants.
const EffectTrials = 10_000

// GameProfits are expected per-firm profits in one game variant.
type GameProfits struct {
	Leader   float64
	Follower float64
}

// FirmEffects decomposes one firm's gain over the simultaneous-move
// benchmark into the two channels: moving first and knowing more.
type FirmEffects struct {
	Benchmark         float64 // simultaneous moves, no espionage
	Hybrid            float64 // sequential moves, no espionage
	Full              float64 // sequential moves with espionage
	TotalGain         float64 // Full − Benchmark
	SequentialEffect  float64 // Hybrid − Benchmark
	InformationEffect float64 // Full − Hybrid
}

// EffectDecomposition holds both firms' channel decompositions.
type EffectDecomposition struct {
	Firm1 FirmEffects
	Firm2 FirmEffects
}

// BenchmarkProfits simulates the simultaneous-move variant: both costs
// private, both firms pricing against the symmetric expected price
// p̄ = (α + βμ_c)/(2β − δ).
func BenchmarkProfits(p domain.Parameters, rng *rand.Rand, trials int) GameProfits {
	pBar := (p.Alpha + p.Beta*p.MuC) / (2*p.Beta - p.Delta)

	var sum1, sum2 float64
	for i := 0; i < trials; i++ {
		c1 := montecarlo.Normal(rng, p.MuC, p.SigmaC)
		c2 := montecarlo.Normal(rng, p.MuC, p.SigmaC)

		p1 := (p.Alpha + p.Beta*c1 + p.Delta*pBar) / (2 * p.Beta)
		p2 := (p.Alpha + p.Beta*c2 + p.Delta*pBar) / (2 * p.Beta)

		sum1 += topology.Profit(p1, topology.Quantity(p1, p2, p), c1)
		sum2 += topology.Profit(p2, topology.Quantity(p2, p1, p), c2)
	}
	return GameProfits{Leader: sum1 / float64(trials), Follower: sum2 / float64(trials)}
}

// HybridProfits simulates the sequential variant without espionage:
// the leader prices off the no-leakage intercept
// a_h = (αΔ + δμ_c/2)/(2βΔ − δ/2) and the follower responds to the
// prior mean only.
func HybridProfits(p domain.Parameters, rng *rand.Rand, trials int) GameProfits {
	delta := topology.DemandInteraction(p)
	aH := (p.Alpha*delta + p.Delta*p.MuC/2) / (2*p.Beta*delta - p.Delta/2)
	priorP1 := aH + 0.5*p.MuC

	var sum1, sum2 float64
	for i := 0; i < trials; i++ {
		c1 := montecarlo.Normal(rng, p.MuC, p.SigmaC)
		c2 := montecarlo.Normal(rng, p.MuC, p.SigmaC)

		p1 := topology.LeaderPrice(aH, c1)
		p2 := topology.FollowerPrice(c2, priorP1, 0, 0, false, p)

		sum1 += topology.Profit(p1, topology.Quantity(p1, p2, p), c1)
		sum2 += topology.Profit(p2, topology.Quantity(p2, p1, p), c2)
	}
	return GameProfits{Leader: sum1 / float64(trials), Follower: sum2 / float64(trials)}
}

// FullGameValues evaluates both value functions of the espionage game
// at the investment pair, sharing one generator in the canonical order.
func FullGameValues(p domain.Parameters, I1, I2 float64, rng *rand.Rand) (GameProfits, error) {
	ctx, err := topology.NewContext(p, I1, I2)
	if err != nil {
		return GameProfits{}, err
	}
	v1, v2 := topology.ValueFunctions(ctx, rng)
	return GameProfits{Leader: v1, Follower: v2}, nil
}

// DecomposeEffects splits each firm's profit gain over the benchmark
// into the sequential-move and information channels:
// Full − Benchmark = (Hybrid − Benchmark) + (Full − Hybrid).
// Each variant runs on its own generator seeded identically, so the
// three estimates share their cost draws.
func DecomposeEffects(p domain.Parameters, I1, I2 float64, seed uint64, trials int) (*EffectDecomposition, error) {
	if trials <= 0 {
		trials = EffectTrials
	}

	benchmark := BenchmarkProfits(p, montecarlo.NewRand(seed), trials)
	hybrid := HybridProfits(p, montecarlo.NewRand(seed), trials)
	full, err := FullGameValues(p, I1, I2, montecarlo.NewRand(seed))
	if err != nil {
		return nil, fmt.Errorf("full game at (%g, %g): %w", I1, I2, err)
	}

	return &EffectDecomposition{
		Firm1: firmEffects(benchmark.Leader, hybrid.Leader, full.Leader),
		Firm2: firmEffects(benchmark.Follower, hybrid.Follower, full.Follower),
	}, nil
}

func firmEffects(benchmark, hybrid, full float64) FirmEffects {
	return FirmEffects{
		Benchmark:         benchmark,
		Hybrid:            hybrid,
		Full:              full,
		TotalGain:         full - benchmark,
		SequentialEffect:  hybrid - benchmark,
		InformationEffect: full - hybrid,
	}
}

// InformationValuePoint is one sample of the information effect curve.
type InformationValuePoint struct {
	I2          float64
	InfoEffect1 float64 // Π₁^S − Π₁^h
	InfoEffect2 float64 // Π₂^S − Π₂^h
}

// InformationValueCurve traces the information effect across espionage
// levels at a fixed defense. The hybrid game does not depend on I₂ and
// is simulated once; each full-game point advances the seed by its
// index so the samples stay independent across the curve.
func InformationValueCurve(p domain.Parameters, I1 float64, i2Range []float64, seed uint64, trials int) ([]InformationValuePoint, error) {
	if trials <= 0 {
		trials = EffectTrials
	}
	hybrid := HybridProfits(p, montecarlo.NewRand(seed), trials)

	points := make([]InformationValuePoint, 0, len(i2Range))
	for idx, I2 := range i2Range {
		full, err := FullGameValues(p, I1, I2, montecarlo.NewRand(seed+uint64(idx)))
		if err != nil {
			return nil, fmt.Errorf("full game at I₂ = %g: %w", I2, err)
		}
		points = append(points, InformationValuePoint{
			I2:          I2,
			InfoEffect1: full.Leader - hybrid.Leader,
			InfoEffect2: full.Follower - hybrid.Follower,
		})
	}
	return points, nil
}

// Format renders the decomposition as markdown.
func (d *EffectDecomposition) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Effect decomposition\n\n")
	fmt.Fprintf(&b, "| channel | firm 1 | firm 2 |\n|---|---|---|\n")
	fmt.Fprintf(&b, "| benchmark Π^B | %.4f | %.4f |\n", d.Firm1.Benchmark, d.Firm2.Benchmark)
	fmt.Fprintf(&b, "| hybrid Π^h | %.4f | %.4f |\n", d.Firm1.Hybrid, d.Firm2.Hybrid)
	fmt.Fprintf(&b, "| full Π^S | %.4f | %.4f |\n", d.Firm1.Full, d.Firm2.Full)
	fmt.Fprintf(&b, "| sequential effect | %.4f | %.4f |\n", d.Firm1.SequentialEffect, d.Firm2.SequentialEffect)
	fmt.Fprintf(&b, "| information effect | %.4f | %.4f |\n", d.Firm1.InformationEffect, d.Firm2.InformationEffect)
	fmt.Fprintf(&b, "| total gain | %.4f | %.4f |\n", d.Firm1.TotalGain, d.Firm2.TotalGain)
	return b.String()
}
