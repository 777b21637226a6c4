package analysis

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"espionage-duopoly-lab/internal/domain"
	"espionage-duopoly-lab/internal/montecarlo"
	"espionage-duopoly-lab/internal/topology"
)

// InteractionReport classifies the strategic relationship between the
// two investments at one point: complements when raising I₁ makes
// raising I₂ more valuable, substitutes when it offsets it.
type InteractionReport struct {
	I1, I2               float64
	Rho                  float64
	CrossPartial         float64 // numerical ∂²ρ/∂I₁∂I₂
	AnalyticCrossPartial float64
	ThresholdI2          float64 // defense-dominance boundary I₂*(I₁)
	Complementary        bool
}

// CrossPartialRho estimates ∂²ρ/∂I₁∂I₂ with the 4-point central
// stencil [f₊₊ − f₊₋ − f₋₊ + f₋₋] / 4h².
func CrossPartialRho(p domain.Parameters, I1, I2, h float64) float64 {
	fpp := topology.Rho(I1+h, I2+h, p)
	fpm := topology.Rho(I1+h, I2-h, p)
	fmp := topology.Rho(I1-h, I2+h, p)
	fmm := topology.Rho(I1-h, I2-h, p)
	return (fpp - fpm - fmp + fmm) / (4 * h * h)
}

// thresholdShift is the constant c in the sign condition
// I₂^γ ≷ λI₁^γ + εc: c = γ/(γ−1) away from γ = 1, where the exponent
// degenerates and c collapses to 1.
func thresholdShift(gamma float64) float64 {
	if math.Abs(gamma-1) <= 1e-10 {
		return 1
	}
	return gamma / (gamma - 1)
}

// AnalyticCrossPartialRho is the closed-form counterpart
// γ²λ I₁^{γ−1} I₂^{γ−1} (I₂^γ − λI₁^γ − εc) / D³ with
// D = I₂^γ + λI₁^γ + ε. Zero at either axis, where the power rule
// degenerates.
func AnalyticCrossPartialRho(p domain.Parameters, I1, I2 float64) float64 {
	if I1 < 1e-10 || I2 < 1e-10 {
		return 0
	}
	gamma := p.GammaExponent
	attack := math.Pow(I2, gamma)
	defense := p.LambdaDefense * math.Pow(I1, gamma)
	d := attack + defense + p.Epsilon

	signTerm := attack - defense - p.Epsilon*thresholdShift(gamma)
	return gamma * gamma * p.LambdaDefense *
		math.Pow(I1, gamma-1) * math.Pow(I2, gamma-1) *
		signTerm / (d * d * d)
}

// ThresholdI2 solves I₂^γ = λI₁^γ + εc for the espionage investment at
// which the cross-partial changes sign: above it the investments are
// strategic complements.
func ThresholdI2(p domain.Parameters, I1 float64) float64 {
	power := p.LambdaDefense*math.Pow(I1, p.GammaExponent) +
		p.Epsilon*thresholdShift(p.GammaExponent)
	return math.Pow(power, 1/p.GammaExponent)
}

// AnalyzeInteraction evaluates the cross-partial diagnostics at one
// investment pair. The complementarity call uses the numerical
// cross-partial; the analytic value is reported alongside for the
// sign-condition comparison.
func AnalyzeInteraction(p domain.Parameters, I1, I2, h float64) InteractionReport {
	cross := CrossPartialRho(p, I1, I2, h)
	return InteractionReport{
		I1:                   I1,
		I2:                   I2,
		Rho:                  topology.Rho(I1, I2, p),
		CrossPartial:         cross,
		AnalyticCrossPartial: AnalyticCrossPartialRho(p, I1, I2),
		ThresholdI2:          ThresholdI2(p, I1),
		Complementary:        cross > 0,
	}
}

// ValueCrossPartials estimates ∂²V₁/∂I₁∂I₂ and ∂²V₂/∂I₁∂I₂ with the
// 4-point stencil on paired-seed evaluations; the follower's stencil
// runs on a shifted seed so the two estimates stay independent.
func ValueCrossPartials(p domain.Parameters, I1, I2 float64, seed uint64, h float64) (float64, float64, error) {
	stencil := func(value func(*topology.Context, *rand.Rand) float64, s uint64) (float64, error) {
		var corners [4]float64
		offsets := [4][2]float64{{h, h}, {h, -h}, {-h, h}, {-h, -h}}
		for i, o := range offsets {
			ctx, err := topology.NewContext(p, I1+o[0], I2+o[1])
			if err != nil {
				return 0, err
			}
			corners[i] = value(ctx, montecarlo.NewRand(s))
		}
		return (corners[0] - corners[1] - corners[2] + corners[3]) / (4 * h * h), nil
	}

	d2v1, err := stencil(topology.ValueLeader, seed)
	if err != nil {
		return 0, 0, fmt.Errorf("leader stencil: %w", err)
	}
	d2v2, err := stencil(topology.ValueFollower, seed+1)
	if err != nil {
		return 0, 0, fmt.Errorf("follower stencil: %w", err)
	}
	return d2v1, d2v2, nil
}

// InteractionCell is one grid point of the complementarity map.
type InteractionCell struct {
	I1, I2        float64
	CrossPartial  float64
	Complementary bool
}

// InteractionMap classifies every (I₁, I₂) pair of the two ranges.
// Rows iterate I₂ in the outer loop so the output groups by espionage
// level, matching the threshold curve orientation.
func InteractionMap(p domain.Parameters, i1Range, i2Range []float64, h float64) []InteractionCell {
	cells := make([]InteractionCell, 0, len(i1Range)*len(i2Range))
	for _, I2 := range i2Range {
		for _, I1 := range i1Range {
			cross := CrossPartialRho(p, I1, I2, h)
			cells = append(cells, InteractionCell{
				I1:            I1,
				I2:            I2,
				CrossPartial:  cross,
				Complementary: cross > 0,
			})
		}
	}
	return cells
}

// ThresholdCurve evaluates I₂*(I₁) along a range of defense levels.
func ThresholdCurve(p domain.Parameters, i1Range []float64) []float64 {
	curve := make([]float64, len(i1Range))
	for i, I1 := range i1Range {
		curve[i] = ThresholdI2(p, I1)
	}
	return curve
}

// Format renders the report as markdown.
func (r InteractionReport) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Strategic interaction\n\n")
	fmt.Fprintf(&b, "Investments: I₁ = %.6f, I₂ = %.6f (ρ = %.6f)\n\n", r.I1, r.I2, r.Rho)
	fmt.Fprintf(&b, "| quantity | value |\n|---|---|\n")
	fmt.Fprintf(&b, "| ∂²ρ/∂I₁∂I₂ (numerical) | %.6e |\n", r.CrossPartial)
	fmt.Fprintf(&b, "| ∂²ρ/∂I₁∂I₂ (analytic) | %.6e |\n", r.AnalyticCrossPartial)
	fmt.Fprintf(&b, "| threshold I₂* | %.6f |\n", r.ThresholdI2)
	relation := "substitutes"
	if r.Complementary {
		relation = "complements"
	}
	fmt.Fprintf(&b, "\nInvestments are strategic %s at this point.\n", relation)
	return b.String()
}
