package reporting

import (
	"fmt"
	"strings"

	"espionage-duopoly-lab/internal/domain"
)

// csvOrder fixes the row order of the flattened export. Map iteration
// would shuffle rows between runs; downstream diffs rely on stability.
var csvOrder = []struct {
	category string
	keys     []string
}{
	{"investments", []string{"I_1", "I_2"}},
	{"equilibrium_values", []string{"rho", "kappa", "V_1", "V_2", "U_1", "U_2", "CS", "W"}},
	{"convergence_diagnostics", []string{"converged", "gradient_norm", "kkt_satisfied", "iterations"}},
}

// RenderCSV flattens the solution's export groups into
// Category,Variable,Value rows.
func RenderCSV(s *domain.EquilibriumSolution) string {
	data := s.ToDict()

	var sb strings.Builder
	sb.WriteString("Category,Variable,Value\n")
	for _, group := range csvOrder {
		values := data[group.category]
		for _, key := range group.keys {
			sb.WriteString(fmt.Sprintf("%s,%s,%v\n", group.category, key, values[key]))
		}
	}
	return sb.String()
}
