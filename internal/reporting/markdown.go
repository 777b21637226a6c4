package reporting

import (
	"fmt"
	"strings"
	"time"

	"espionage-duopoly-lab/internal/domain"
)

// welfareOrder fixes the welfare decomposition row order.
var welfareOrder = []string{"Consumer_Surplus", "Firm_1_Value", "Firm_2_Value", "Total_Welfare"}

// RenderMarkdown renders the full run report: parameters, equilibrium,
// convergence, welfare decomposition, then any diagnostic sections.
func RenderMarkdown(r *RunReport) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Equilibrium Run Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run: %s | Seed: %d\n\n", r.RunID, r.Seed))

	// Parameters
	sb.WriteString("## Parameters\n\n")
	sb.WriteString("| Parameter | Value |\n")
	sb.WriteString("|-----------|-------|\n")
	fields := r.Parameters.Fields()
	for _, key := range domain.ParameterKeys {
		sb.WriteString(fmt.Sprintf("| %s | %g |\n", key, fields[key]))
	}
	sb.WriteString("\n")

	if r.Solution == nil {
		sb.WriteString("## Equilibrium\n\nNo solution available.\n")
		return sb.String()
	}
	s := r.Solution

	// Equilibrium
	sb.WriteString("## Equilibrium\n\n")
	sb.WriteString("| Variable | Value |\n")
	sb.WriteString("|----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| I_1* | %.6f |\n", s.Investments[0]))
	sb.WriteString(fmt.Sprintf("| I_2* | %.6f |\n", s.Investments[1]))
	sb.WriteString(fmt.Sprintf("| rho* | %.6f |\n", s.ContestProb))
	sb.WriteString(fmt.Sprintf("| kappa* | %.6f |\n", s.SignalPrecision))
	sb.WriteString(fmt.Sprintf("| V_1* | %.4f |\n", s.ValueFunctions[0]))
	sb.WriteString(fmt.Sprintf("| V_2* | %.4f |\n", s.ValueFunctions[1]))
	sb.WriteString(fmt.Sprintf("| U_1* | %.4f |\n", s.Utilities[0]))
	sb.WriteString(fmt.Sprintf("| U_2* | %.4f |\n", s.Utilities[1]))
	sb.WriteString("\n")

	// Convergence
	sb.WriteString("## Convergence\n\n")
	sb.WriteString("| Diagnostic | Value |\n")
	sb.WriteString("|------------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Converged | %v |\n", s.Converged))
	sb.WriteString(fmt.Sprintf("| Gradient norm | %.6e |\n", s.GradientNorm))
	sb.WriteString(fmt.Sprintf("| KKT satisfied | %v |\n", s.KKTSatisfied))
	sb.WriteString(fmt.Sprintf("| Iterations | %d |\n", s.Iterations))
	sb.WriteString("\n")

	// Welfare decomposition
	sb.WriteString("## Welfare Decomposition\n\n")
	sb.WriteString("| Component | Value |\n")
	sb.WriteString("|-----------|-------|\n")
	welfare := s.WelfareDecomposition()
	for _, key := range welfareOrder {
		sb.WriteString(fmt.Sprintf("| %s | %.4f |\n", key, welfare[key]))
	}
	sb.WriteString("\n")

	// Diagnostic sections, in the order they run
	if r.KKT != nil {
		sb.WriteString(r.KKT.Format())
		sb.WriteString("\n")
	}
	if r.Interaction != nil {
		sb.WriteString(r.Interaction.Format())
		sb.WriteString("\n")
	}
	if r.Effects != nil {
		sb.WriteString(r.Effects.Format())
		sb.WriteString("\n")
	}
	if r.Welfare != nil {
		sb.WriteString(r.Welfare.Format())
		sb.WriteString("\n")
	}

	return sb.String()
}
