package mcptools

// --- MCP Tool Input Types ---
// These structs define the JSON schema for each MCP tool's input.
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// PhaseInput names one phase and the phases it depends on.
type PhaseInput struct {
	ID        string   `json:"id" jsonschema:"unique phase id"`
	DependsOn []string `json:"dependsOn,omitempty" jsonschema:"ids of phases that must succeed before this one starts"`
}

// PlanWavesInput is the input for the plan_waves MCP tool.
type PlanWavesInput struct {
	Phases []PhaseInput `json:"phases" jsonschema:"the phase dependency graph to partition"`
}

// PlanWavesOutput is the result of the plan_waves MCP tool.
type PlanWavesOutput struct {
	Waves     [][]string `json:"waves"`
	WaveCount int        `json:"waveCount"`
}

// ValidateGraphInput is the input for the validate_graph MCP tool.
type ValidateGraphInput struct {
	Phases []PhaseInput `json:"phases" jsonschema:"the phase dependency graph to check"`
}

// ValidateGraphOutput is the result of the validate_graph MCP tool.
type ValidateGraphOutput struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"` // why the graph cannot execute
}

// EstimateSavingsInput is the input for the estimate_savings MCP tool.
type EstimateSavingsInput struct {
	Phases []PhaseInput `json:"phases" jsonschema:"the phase dependency graph to estimate"`
}

// EstimateSavingsOutput is the result of the estimate_savings MCP tool.
type EstimateSavingsOutput struct {
	SequentialSteps int `json:"sequentialSteps"`
	ParallelSteps   int `json:"parallelSteps"`
	SavingsPercent  int `json:"savingsPercent"`
}
