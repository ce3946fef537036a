package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/framehaus/siteforge/internal/engine"
)

// Mermaid renders a phase graph as a Mermaid graph TD diagram. Waves become
// subgraphs; dependencies become arrows.
func Mermaid(phases []engine.Phase) (string, error) {
	waves, err := engine.PlanWaves(phases)
	if err != nil {
		return "", err
	}

	// Build node → ID mapping for Mermaid (alphanumeric only).
	nodeIDs := make(map[string]string)
	nextID := 0
	getID := func(name string) string {
		if id, ok := nodeIDs[name]; ok {
			return id
		}
		id := fmt.Sprintf("N%d", nextID)
		nextID++
		nodeIDs[name] = id
		return id
	}

	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for i, wave := range waves {
		sb.WriteString(fmt.Sprintf("  subgraph W%d[\"wave %d\"]\n", i+1, i+1))
		for _, id := range wave {
			sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", getID(id), id))
		}
		sb.WriteString("  end\n")
	}

	// Arrows run dependency --> dependent.
	for _, p := range phases {
		deps := make([]string, len(p.DependsOn))
		copy(deps, p.DependsOn)
		sort.Strings(deps)
		for _, dep := range deps {
			sb.WriteString(fmt.Sprintf("  %s --> %s\n", getID(dep), getID(p.ID)))
		}
	}

	return sb.String(), nil
}
