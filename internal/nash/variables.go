package nash

import (
	"fmt"
	"log/slog"

	"espionage-duopoly-lab/internal/domain"
	"espionage-duopoly-lab/internal/montecarlo"
	"espionage-duopoly-lab/internal/topology"
)

// ReferenceInvestment is the benchmark point for the non-equilibrium
// pipeline levels: both firms investing one unit.
const ReferenceInvestment = 1.0

// ComputeVariables assembles the full 33-variable container for one
// solved run. Levels 2 through 11 are evaluated at the unit reference
// investments so they stay comparable across runs; the equilibrium
// block carries the solved investments and the values already reported
// in the solution. Per-draw prices, quantities, and profits are the
// representative mean-cost round: c₁ = μ_c, c₂ = γ, follower
// uninformed.
func ComputeVariables(p domain.Parameters, solution *domain.EquilibriumSolution, seed uint64) (*domain.Variables, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	ref, err := topology.NewContext(p, ReferenceInvestment, ReferenceInvestment)
	if err != nil {
		return nil, fmt.Errorf("reference pipeline: %w", err)
	}

	p1 := ref.PriorPrice
	p2 := topology.FollowerPrice(p.Gamma, ref.PriorPrice, ref.Kappa, 0, false, p)
	q1 := topology.Quantity(p1, p2, p)
	q2 := topology.Quantity(p2, p1, p)

	rng := montecarlo.NewRand(seed)
	v1, v2 := topology.ValueFunctions(ref, rng)

	equilibrium, err := topology.NewContext(p, solution.Investments[0], solution.Investments[1])
	if err != nil {
		return nil, fmt.Errorf("equilibrium pipeline: %w", err)
	}

	vars := &domain.Variables{
		MuC:    p.MuC,
		Kappa1: p.Kappa1,
		Kappa2: p.Kappa2,

		Rho:          ref.Rho,
		Kappa:        ref.Kappa,
		Delta:        ref.Delta,
		BRhoKappa:    ref.B,
		NumeratorA:   ref.Numerator,
		DenominatorA: ref.Denominator,
		ARhoKappa:    ref.Intercept,

		Q1Star:  q1,
		Q2Star:  q2,
		P1Star:  p1,
		P2Star:  p2,
		Pi1Star: topology.Profit(p1, q1, p.MuC),
		Pi2Star: topology.Profit(p2, q2, p.Gamma),

		V1: v1,
		V2: v2,
		U1: topology.Utility(v1, ReferenceInvestment, p.Kappa1),
		U2: topology.Utility(v2, ReferenceInvestment, p.Kappa2),

		I1Nash:    solution.Investments[0],
		I2Nash:    solution.Investments[1],
		RhoNash:   solution.ContestProb,
		KappaNash: solution.SignalPrecision,
		BNash:     equilibrium.B,
		ANash:     equilibrium.Intercept,
		DeltaNash: equilibrium.Delta,
		V1Nash:    solution.ValueFunctions[0],
		V2Nash:    solution.ValueFunctions[1],
		U1Nash:    solution.Utilities[0],
		U2Nash:    solution.Utilities[1],

		CS: solution.ConsumerSurplus,
		W:  solution.TotalWelfare,
	}

	clips, err := vars.Validate()
	for _, clip := range clips {
		slog.Warn("probability clipped into [0,1]",
			"variable", clip.Name,
			"raw", clip.Value,
			"deviation", clip.Deviation)
	}
	if err != nil {
		return nil, err
	}
	return vars, nil
}
