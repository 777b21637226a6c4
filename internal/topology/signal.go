package topology

import "espionage-duopoly-lab/internal/domain"

// Kappa computes the Bayesian reliability weight κ(I₂) the follower
// places on an intercepted price signal:
//
//	κ(I₂) = τ_p² / (τ_p² + σ_ε²/(I₂+ι)),  τ_p² = σ_c²/4
//
// Espionage investment shrinks the noise variance, so κ rises with I₂
// and depends on I₂ only; the defense side fights the intercept itself,
// not the signal quality.
func Kappa(I2 float64, p domain.Parameters) float64 {
	tauSq := p.SigmaC * p.SigmaC / 4.0
	noiseVariance := p.SigmaEpsilon * p.SigmaEpsilon / (I2 + p.Iota)
	kappa := tauSq / (tauSq + noiseVariance)
	return clipProbability("kappa", kappa)
}
