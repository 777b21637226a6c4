package reporting

import (
	"encoding/json"

	"espionage-duopoly-lab/internal/domain"
)

// RenderJSON serializes the solution's export groups with two-space
// indentation. Key names come from ToDict and are part of the external
// contract.
func RenderJSON(s *domain.EquilibriumSolution) ([]byte, error) {
	return json.MarshalIndent(s.ToDict(), "", "  ")
}
