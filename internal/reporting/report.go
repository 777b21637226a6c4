package reporting

import (
	"time"

	"espionage-duopoly-lab/internal/analysis"
	"espionage-duopoly-lab/internal/domain"
)

// RunReport bundles one solver run for rendering: the solved
// equilibrium, the parameters behind it, and whichever diagnostic
// sections were computed. Nil sections are skipped by the renderers.
type RunReport struct {
	// Metadata
	GeneratedAt time.Time
	RunID       string
	Seed        uint64

	// Inputs and solution
	Parameters domain.Parameters
	Solution   *domain.EquilibriumSolution

	// Diagnostic sections
	KKT         *analysis.KKTReport
	Interaction *analysis.InteractionReport
	Effects     *analysis.EffectDecomposition
	Welfare     *analysis.WelfareDerivatives
}
