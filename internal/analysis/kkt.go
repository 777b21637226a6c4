// Package analysis provides the post-solve diagnostic suite: KKT
// verification at the solved investments, strategic-interaction
// classification of the contest function, decomposition of each firm's
// gain into sequential-move and information channels, and the marginal
// welfare effect of espionage.
//
// Every derivative here is a central difference with paired generators:
// both sides of a difference reseed identically, so the Monte Carlo
// noise cancels and only the investment effect remains.
package analysis

import (
	"fmt"
	"math"
	"strings"

	"espionage-duopoly-lab/internal/domain"
	"espionage-duopoly-lab/internal/montecarlo"
	"espionage-duopoly-lab/internal/topology"
)

const (
	// DefaultStep is the central-difference step for investment
	// derivatives.
	DefaultStep = 1e-5

	// DefaultKKTTolerance bounds the stationarity residual and the
	// complementary-slackness products.
	DefaultKKTTolerance = 1e-4

	// boundaryTolerance decides whether an investment sits on a box
	// boundary for multiplier recovery.
	boundaryTolerance = 1e-6
)

// FirmKKT carries one firm's first-order diagnostics.
type FirmKKT struct {
	MarginalValue        float64 // ∂Vᵢ/∂Iᵢ
	MarginalCost         float64 // ψ′(Iᵢ) = κᵢIᵢ
	MuLower              float64 // multiplier on Iᵢ ≥ 0
	MuUpper              float64 // multiplier on Iᵢ ≤ Ī
	StationarityResidual float64
	PrimalFeasible       bool
	DualFeasible         bool
	ComplementarySlack   bool
	Satisfied            bool
}

// KKTReport is the full first-order verification at a candidate
// equilibrium.
type KKTReport struct {
	I1, I2    float64
	Firm1     FirmKKT
	Firm2     FirmKKT
	Satisfied bool
	Tolerance float64
}

// MarginalInvestmentCost is ψ′(I) = κ·I for the quadratic cost
// ψ(I) = (κ/2)I².
func MarginalInvestmentCost(invest, costCoeff float64) float64 {
	return costCoeff * invest
}

// MarginalValueLeader estimates ∂V₁/∂I₁ by a paired-seed central
// difference.
func MarginalValueLeader(p domain.Parameters, I1, I2 float64, seed uint64, h float64) (float64, error) {
	plus, err := valueLeaderAt(p, I1+h, I2, seed)
	if err != nil {
		return 0, err
	}
	minus, err := valueLeaderAt(p, I1-h, I2, seed)
	if err != nil {
		return 0, err
	}
	return (plus - minus) / (2 * h), nil
}

// MarginalValueFollower estimates ∂V₂/∂I₂ by a paired-seed central
// difference.
func MarginalValueFollower(p domain.Parameters, I1, I2 float64, seed uint64, h float64) (float64, error) {
	plus, err := valueFollowerAt(p, I1, I2+h, seed)
	if err != nil {
		return 0, err
	}
	minus, err := valueFollowerAt(p, I1, I2-h, seed)
	if err != nil {
		return 0, err
	}
	return (plus - minus) / (2 * h), nil
}

func valueLeaderAt(p domain.Parameters, I1, I2 float64, seed uint64) (float64, error) {
	ctx, err := topology.NewContext(p, I1, I2)
	if err != nil {
		return 0, err
	}
	return topology.ValueLeader(ctx, montecarlo.NewRand(seed)), nil
}

func valueFollowerAt(p domain.Parameters, I1, I2 float64, seed uint64) (float64, error) {
	ctx, err := topology.NewContext(p, I1, I2)
	if err != nil {
		return 0, err
	}
	return topology.ValueFollower(ctx, montecarlo.NewRand(seed)), nil
}

// LagrangeMultipliers recovers (μᴸ, μᵁ) from the stationarity condition
// ∂Vᵢ/∂Iᵢ − ψ′(Iᵢ) − μᴸ + μᵁ = 0 together with complementary
// slackness: only the multiplier of an active bound may be nonzero.
func LagrangeMultipliers(marginalValue, marginalCost, invest, iBar float64) (float64, float64) {
	grad := marginalValue - marginalCost
	if invest < boundaryTolerance {
		return max(0, grad), 0
	}
	if iBar-invest < boundaryTolerance {
		return 0, max(0, -grad)
	}
	return 0, 0
}

// VerifyKKT checks the four first-order conditions for both firms at
// the investment pair: stationarity, primal feasibility, dual
// feasibility, and complementary slackness.
func VerifyKKT(p domain.Parameters, I1, I2 float64, seed uint64, h, tolerance float64) (*KKTReport, error) {
	dV1, err := MarginalValueLeader(p, I1, I2, seed, h)
	if err != nil {
		return nil, fmt.Errorf("leader marginal value: %w", err)
	}
	dV2, err := MarginalValueFollower(p, I1, I2, seed, h)
	if err != nil {
		return nil, fmt.Errorf("follower marginal value: %w", err)
	}

	firm1 := firmDiagnostics(dV1, MarginalInvestmentCost(I1, p.Kappa1), I1, p.IBar, tolerance)
	firm2 := firmDiagnostics(dV2, MarginalInvestmentCost(I2, p.Kappa2), I2, p.IBar, tolerance)

	return &KKTReport{
		I1:        I1,
		I2:        I2,
		Firm1:     firm1,
		Firm2:     firm2,
		Satisfied: firm1.Satisfied && firm2.Satisfied,
		Tolerance: tolerance,
	}, nil
}

func firmDiagnostics(marginalValue, marginalCost, invest, iBar, tolerance float64) FirmKKT {
	muL, muU := LagrangeMultipliers(marginalValue, marginalCost, invest, iBar)
	residual := marginalValue - marginalCost - muL + muU

	diag := FirmKKT{
		MarginalValue:        marginalValue,
		MarginalCost:         marginalCost,
		MuLower:              muL,
		MuUpper:              muU,
		StationarityResidual: residual,
		PrimalFeasible:       invest >= 0 && invest <= iBar,
		DualFeasible:         muL >= -tolerance && muU >= -tolerance,
	}
	diag.ComplementarySlack = math.Abs(muL*invest) < tolerance && math.Abs(muU*(iBar-invest)) < tolerance
	diag.Satisfied = math.Abs(residual) < tolerance &&
		diag.PrimalFeasible && diag.DualFeasible && diag.ComplementarySlack
	return diag
}

// Format renders the report as markdown.
func (r *KKTReport) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "## KKT verification\n\n")
	fmt.Fprintf(&b, "Candidate equilibrium: I₁* = %.6f, I₂* = %.6f (tolerance %.1e)\n\n", r.I1, r.I2, r.Tolerance)
	fmt.Fprintf(&b, "| condition | firm 1 | firm 2 |\n")
	fmt.Fprintf(&b, "|---|---|---|\n")
	fmt.Fprintf(&b, "| ∂V/∂I | %.6f | %.6f |\n", r.Firm1.MarginalValue, r.Firm2.MarginalValue)
	fmt.Fprintf(&b, "| ψ′(I) | %.6f | %.6f |\n", r.Firm1.MarginalCost, r.Firm2.MarginalCost)
	fmt.Fprintf(&b, "| μᴸ | %.6f | %.6f |\n", r.Firm1.MuLower, r.Firm2.MuLower)
	fmt.Fprintf(&b, "| μᵁ | %.6f | %.6f |\n", r.Firm1.MuUpper, r.Firm2.MuUpper)
	fmt.Fprintf(&b, "| stationarity residual | %.6e | %.6e |\n", r.Firm1.StationarityResidual, r.Firm2.StationarityResidual)
	fmt.Fprintf(&b, "| primal feasible | %v | %v |\n", r.Firm1.PrimalFeasible, r.Firm2.PrimalFeasible)
	fmt.Fprintf(&b, "| dual feasible | %v | %v |\n", r.Firm1.DualFeasible, r.Firm2.DualFeasible)
	fmt.Fprintf(&b, "| complementary slackness | %v | %v |\n", r.Firm1.ComplementarySlack, r.Firm2.ComplementarySlack)
	fmt.Fprintf(&b, "| satisfied | %v | %v |\n", r.Firm1.Satisfied, r.Firm2.Satisfied)
	fmt.Fprintf(&b, "\nOverall: %v\n", r.Satisfied)
	return b.String()
}
