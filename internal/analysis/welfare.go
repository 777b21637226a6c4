package analysis

import (
	"fmt"
	"strings"

	"espionage-duopoly-lab/internal/domain"
	"espionage-duopoly-lab/internal/montecarlo"
	"espionage-duopoly-lab/internal/topology"
)

// WelfareDerivatives decomposes the marginal welfare effect of
// espionage investment at an investment pair:
// ∂W/∂I₂ = ∂CS/∂I₂ + ∂V₁/∂I₂ + ∂U₂/∂I₂.
type WelfareDerivatives struct {
	I1, I2       float64
	DCSdI2       float64 // consumer surplus channel
	DV1dI2       float64 // leader value channel
	DV2dI2       float64 // follower gross value channel
	MarginalCost float64 // ψ′(I₂) = κ₂I₂
	DU2dI2       float64 // DV2dI2 − MarginalCost
	DWdI2        float64 // DCSdI2 + DV1dI2 + DU2dI2
	Beneficial   bool    // DWdI2 > 0
}

// ChannelDerivatives are the deterministic belief channels behind the
// welfare effect: how much extra interception probability and signal
// precision one more unit of espionage buys.
type ChannelDerivatives struct {
	Rho       float64
	DRhoDI2   float64
	Kappa     float64
	DKappaDI2 float64
}

// derivativeI2 differentiates f in I₂, dropping to a forward
// difference when the lower probe would leave the box.
func derivativeI2(f func(i2 float64) (float64, error), i2, h float64) (float64, error) {
	if i2-h >= 0 {
		plus, err := f(i2 + h)
		if err != nil {
			return 0, err
		}
		minus, err := f(i2 - h)
		if err != nil {
			return 0, err
		}
		return (plus - minus) / (2 * h), nil
	}
	plus, err := f(i2 + h)
	if err != nil {
		return 0, err
	}
	base, err := f(i2)
	if err != nil {
		return 0, err
	}
	return (plus - base) / h, nil
}

// ConsumerSurplusDerivative estimates ∂CS/∂I₂ by a paired-seed
// difference: both probes re-run the surplus simulation on identically
// seeded generators.
func ConsumerSurplusDerivative(p domain.Parameters, I1, I2 float64, seed uint64, h float64) (float64, error) {
	return derivativeI2(func(i2 float64) (float64, error) {
		ctx, err := topology.NewContext(p, I1, i2)
		if err != nil {
			return 0, err
		}
		return topology.ConsumerSurplus(ctx, montecarlo.NewRand(seed)), nil
	}, I2, h)
}

// LeaderValueDerivative estimates ∂V₁/∂I₂, the externality of the
// follower's espionage on the leader.
func LeaderValueDerivative(p domain.Parameters, I1, I2 float64, seed uint64, h float64) (float64, error) {
	return derivativeI2(func(i2 float64) (float64, error) {
		return valueLeaderAt(p, I1, i2, seed)
	}, I2, h)
}

// DecomposeWelfareDerivative evaluates all welfare channels of a
// marginal espionage unit at (I₁, I₂).
func DecomposeWelfareDerivative(p domain.Parameters, I1, I2 float64, seed uint64, h float64) (*WelfareDerivatives, error) {
	dCS, err := ConsumerSurplusDerivative(p, I1, I2, seed, h)
	if err != nil {
		return nil, fmt.Errorf("consumer surplus derivative: %w", err)
	}
	dV1, err := LeaderValueDerivative(p, I1, I2, seed, h)
	if err != nil {
		return nil, fmt.Errorf("leader value derivative: %w", err)
	}
	dV2, err := derivativeI2(func(i2 float64) (float64, error) {
		return valueFollowerAt(p, I1, i2, seed)
	}, I2, h)
	if err != nil {
		return nil, fmt.Errorf("follower value derivative: %w", err)
	}

	psi := MarginalInvestmentCost(I2, p.Kappa2)
	dU2 := dV2 - psi
	dW := dCS + dV1 + dU2

	return &WelfareDerivatives{
		I1:           I1,
		I2:           I2,
		DCSdI2:       dCS,
		DV1dI2:       dV1,
		DV2dI2:       dV2,
		MarginalCost: psi,
		DU2dI2:       dU2,
		DWdI2:        dW,
		Beneficial:   dW > 0,
	}, nil
}

// ChannelDecomposition differentiates the two belief channels ρ and κ
// in I₂. Both are deterministic, so no pairing is needed.
func ChannelDecomposition(p domain.Parameters, I1, I2, h float64) (ChannelDerivatives, error) {
	dRho, err := derivativeI2(func(i2 float64) (float64, error) {
		return topology.Rho(I1, i2, p), nil
	}, I2, h)
	if err != nil {
		return ChannelDerivatives{}, err
	}
	dKappa, err := derivativeI2(func(i2 float64) (float64, error) {
		return topology.Kappa(i2, p), nil
	}, I2, h)
	if err != nil {
		return ChannelDerivatives{}, err
	}
	return ChannelDerivatives{
		Rho:       topology.Rho(I1, I2, p),
		DRhoDI2:   dRho,
		Kappa:     topology.Kappa(I2, p),
		DKappaDI2: dKappa,
	}, nil
}

// Format renders the decomposition as markdown.
func (w *WelfareDerivatives) Format() string {
	verdict := "espionage is socially harmful at the margin"
	if w.Beneficial {
		verdict = "espionage is socially beneficial at the margin"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Welfare decomposition at I₂ = %.6f\n\n", w.I2)
	fmt.Fprintf(&b, "| channel | value |\n|---|---|\n")
	fmt.Fprintf(&b, "| ∂CS/∂I₂ | %.6f |\n", w.DCSdI2)
	fmt.Fprintf(&b, "| ∂V₁/∂I₂ | %.6f |\n", w.DV1dI2)
	fmt.Fprintf(&b, "| ∂V₂/∂I₂ | %.6f |\n", w.DV2dI2)
	fmt.Fprintf(&b, "| ψ′(I₂) | %.6f |\n", w.MarginalCost)
	fmt.Fprintf(&b, "| ∂U₂/∂I₂ | %.6f |\n", w.DU2dI2)
	fmt.Fprintf(&b, "| ∂W/∂I₂ | %.6f |\n", w.DWdI2)
	fmt.Fprintf(&b, "\n%s\n", verdict)
	return b.String()
}
