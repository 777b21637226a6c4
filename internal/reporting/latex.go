package reporting

import (
	"fmt"
	"strings"

	"espionage-duopoly-lab/internal/domain"
)

// DefaultCaption labels the LaTeX table when the caller passes none.
const DefaultCaption = "Nash Equilibrium"

// RenderLaTeX renders the solution as a booktabs table with four
// sections. Investments and probabilities print at four decimals,
// money-scaled values at two.
func RenderLaTeX(s *domain.EquilibriumSolution, caption string) string {
	if caption == "" {
		caption = DefaultCaption
	}

	var sb strings.Builder
	sb.WriteString("\\begin{table}[htbp]\n")
	sb.WriteString("\\centering\n")
	sb.WriteString(fmt.Sprintf("\\caption{%s}\n", caption))
	sb.WriteString("\\label{tab:equilibrium}\n")
	sb.WriteString("\\begin{tabular}{llr}\n")
	sb.WriteString("\\toprule\n")
	sb.WriteString("Variable & Symbol & Value \\\\\n")
	sb.WriteString("\\midrule\n")
	sb.WriteString("\\multicolumn{3}{l}{\\textit{Investments}} \\\\\n")
	sb.WriteString(fmt.Sprintf("Firm 1 counter-espionage & $I_1^*$ & %.4f \\\\\n", s.Investments[0]))
	sb.WriteString(fmt.Sprintf("Firm 2 espionage & $I_2^*$ & %.4f \\\\\n", s.Investments[1]))
	sb.WriteString("\\midrule\n")
	sb.WriteString("\\multicolumn{3}{l}{\\textit{Information}} \\\\\n")
	sb.WriteString(fmt.Sprintf("Success probability & $\\rho^*$ & %.4f \\\\\n", s.ContestProb))
	sb.WriteString(fmt.Sprintf("Signal precision & $\\kappa^*$ & %.4f \\\\\n", s.SignalPrecision))
	sb.WriteString("\\midrule\n")
	sb.WriteString("\\multicolumn{3}{l}{\\textit{Values}} \\\\\n")
	sb.WriteString(fmt.Sprintf("Firm 1 profit & $V_1^*$ & %.2f \\\\\n", s.ValueFunctions[0]))
	sb.WriteString(fmt.Sprintf("Firm 2 profit & $V_2^*$ & %.2f \\\\\n", s.ValueFunctions[1]))
	sb.WriteString(fmt.Sprintf("Firm 1 utility & $U_1^*$ & %.2f \\\\\n", s.Utilities[0]))
	sb.WriteString(fmt.Sprintf("Firm 2 utility & $U_2^*$ & %.2f \\\\\n", s.Utilities[1]))
	sb.WriteString("\\midrule\n")
	sb.WriteString("\\multicolumn{3}{l}{\\textit{Welfare}} \\\\\n")
	sb.WriteString(fmt.Sprintf("Consumer surplus & $CS^*$ & %.2f \\\\\n", s.ConsumerSurplus))
	sb.WriteString(fmt.Sprintf("Total welfare & $W^*$ & %.2f \\\\\n", s.TotalWelfare))
	sb.WriteString("\\bottomrule\n")
	sb.WriteString("\\end{tabular}\n")
	sb.WriteString("\\end{table}\n")
	return sb.String()
}
