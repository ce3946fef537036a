package export

import (
	"time"

	"github.com/framehaus/siteforge/internal/engine"
)

// PlanExport is the top-level JSON export structure for a wave plan.
type PlanExport struct {
	Name       string                 `json:"name"`
	ExportedAt string                 `json:"exportedAt"`
	Phases     []PhaseExport          `json:"phases"`
	Waves      [][]string             `json:"waves"`
	Savings    engine.SavingsEstimate `json:"savings"`
}

// PhaseExport describes one phase and the wave it lands in (1-based).
type PhaseExport struct {
	ID        string   `json:"id"`
	DependsOn []string `json:"dependsOn,omitempty"`
	Wave      int      `json:"wave"`
}

// ExportPlan builds a PlanExport for the given phase graph.
func ExportPlan(name string, phases []engine.Phase) (*PlanExport, error) {
	waves, err := engine.PlanWaves(phases)
	if err != nil {
		return nil, err
	}
	savings, err := engine.EstimateTimeSavings(phases)
	if err != nil {
		return nil, err
	}

	waveOf := make(map[string]int, len(phases))
	for i, wave := range waves {
		for _, id := range wave {
			waveOf[id] = i + 1
		}
	}

	export := &PlanExport{
		Name:       name,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Waves:      waves,
		Savings:    savings,
	}
	for _, p := range phases {
		export.Phases = append(export.Phases, PhaseExport{
			ID:        p.ID,
			DependsOn: p.DependsOn,
			Wave:      waveOf[p.ID],
		})
	}
	return export, nil
}
