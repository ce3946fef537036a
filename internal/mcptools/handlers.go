package mcptools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/framehaus/siteforge/internal/engine"
)

// PlannerService handles MCP tool calls for wave planning. It is stateless;
// every call carries its own phase graph.
type PlannerService struct{}

// NewPlannerService creates a PlannerService.
func NewPlannerService() *PlannerService {
	return &PlannerService{}
}

// PlanWaves partitions a phase graph into executable waves.
func (s *PlannerService) PlanWaves(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input PlanWavesInput,
) (*mcp.CallToolResult, PlanWavesOutput, error) {
	waves, err := engine.PlanWaves(toPhases(input.Phases))
	if err != nil {
		return nil, PlanWavesOutput{}, err
	}
	return nil, PlanWavesOutput{Waves: waves, WaveCount: len(waves)}, nil
}

// ValidateGraph checks a phase graph without executing it. An unsatisfiable
// graph is a normal answer here, not a tool error.
func (s *PlannerService) ValidateGraph(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ValidateGraphInput,
) (*mcp.CallToolResult, ValidateGraphOutput, error) {
	if _, err := engine.PlanWaves(toPhases(input.Phases)); err != nil {
		return nil, ValidateGraphOutput{Valid: false, Reason: err.Error()}, nil
	}
	return nil, ValidateGraphOutput{Valid: true}, nil
}

// EstimateSavings reports how many scheduling steps wave execution saves
// over sequential execution.
func (s *PlannerService) EstimateSavings(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input EstimateSavingsInput,
) (*mcp.CallToolResult, EstimateSavingsOutput, error) {
	est, err := engine.EstimateTimeSavings(toPhases(input.Phases))
	if err != nil {
		return nil, EstimateSavingsOutput{}, err
	}
	return nil, EstimateSavingsOutput{
		SequentialSteps: est.SequentialSteps,
		ParallelSteps:   est.ParallelSteps,
		SavingsPercent:  est.SavingsPercent,
	}, nil
}

func toPhases(inputs []PhaseInput) []engine.Phase {
	phases := make([]engine.Phase, len(inputs))
	for i, in := range inputs {
		phases[i] = engine.Phase{ID: in.ID, DependsOn: in.DependsOn}
	}
	return phases
}
