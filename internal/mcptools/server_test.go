package mcptools

import (
	"context"
	"encoding/json"
	"sort"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupServerClient wires the planner MCP server and a client together using
// in-memory transports and returns the connected client session.
func setupServerClient(t *testing.T) *mcp.ClientSession {
	t.Helper()

	server := NewPlannerMCPServer()
	st, ct := mcp.NewInMemoryTransports()

	ctx := context.Background()

	_, err := server.Connect(ctx, st, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		session.Close()
	})

	return session
}

// callTool invokes a tool and decodes its structured content into out.
func callTool(t *testing.T, session *mcp.ClientSession, name string, args, out any) {
	t.Helper()

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err)
	require.False(t, result.IsError, "%s should not return an error", name)
	require.NotNil(t, result.StructuredContent, "expected structured content from %s", name)

	raw, err := json.Marshal(result.StructuredContent)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func diamondInput() []PhaseInput {
	return []PhaseInput{
		{ID: "palette"},
		{ID: "copy", DependsOn: []string{"palette"}},
		{ID: "assets", DependsOn: []string{"palette"}},
		{ID: "review", DependsOn: []string{"copy", "assets"}},
	}
}

func TestMCPListTools(t *testing.T) {
	session := setupServerClient(t)

	result, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)
	require.Len(t, result.Tools, 3, "expected 3 registered tools")

	names := make([]string, len(result.Tools))
	for i, tool := range result.Tools {
		names[i] = tool.Name
	}
	sort.Strings(names)
	assert.Equal(t, []string{"estimate_savings", "plan_waves", "validate_graph"}, names)
}

func TestMCPPlanWaves(t *testing.T) {
	session := setupServerClient(t)

	var out PlanWavesOutput
	callTool(t, session, "plan_waves", PlanWavesInput{Phases: diamondInput()}, &out)

	assert.Equal(t, 3, out.WaveCount)
	assert.Equal(t, [][]string{{"palette"}, {"assets", "copy"}, {"review"}}, out.Waves)
}

func TestMCPPlanWaves_CycleIsToolError(t *testing.T) {
	session := setupServerClient(t)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "plan_waves",
		Arguments: PlanWavesInput{Phases: []PhaseInput{
			{ID: "a", DependsOn: []string{"b"}},
			{ID: "b", DependsOn: []string{"a"}},
		}},
	})
	require.NoError(t, err)
	assert.True(t, result.IsError, "planning a cyclic graph should fail")
}

func TestMCPValidateGraph(t *testing.T) {
	session := setupServerClient(t)

	var out ValidateGraphOutput
	callTool(t, session, "validate_graph", ValidateGraphInput{Phases: diamondInput()}, &out)
	assert.True(t, out.Valid)
	assert.Empty(t, out.Reason)

	callTool(t, session, "validate_graph", ValidateGraphInput{Phases: []PhaseInput{
		{ID: "a", DependsOn: []string{"b"}},
		{ID: "b", DependsOn: []string{"a"}},
	}}, &out)
	assert.False(t, out.Valid)
	assert.Contains(t, out.Reason, "cycle")
}

func TestMCPEstimateSavings(t *testing.T) {
	session := setupServerClient(t)

	phases := make([]PhaseInput, 10)
	for i := range phases {
		phases[i] = PhaseInput{ID: string(rune('a' + i))}
	}

	var out EstimateSavingsOutput
	callTool(t, session, "estimate_savings", EstimateSavingsInput{Phases: phases}, &out)

	assert.Equal(t, 10, out.SequentialSteps)
	assert.Equal(t, 1, out.ParallelSteps)
	assert.Equal(t, 90, out.SavingsPercent)
}

func TestPlannerService_Direct(t *testing.T) {
	svc := NewPlannerService()
	ctx := context.Background()

	_, waves, err := svc.PlanWaves(ctx, nil, PlanWavesInput{Phases: diamondInput()})
	require.NoError(t, err)
	assert.Equal(t, 3, waves.WaveCount)

	_, empty, err := svc.PlanWaves(ctx, nil, PlanWavesInput{})
	require.NoError(t, err)
	assert.Zero(t, empty.WaveCount)
	assert.Empty(t, empty.Waves)

	_, valid, err := svc.ValidateGraph(ctx, nil, ValidateGraphInput{Phases: []PhaseInput{
		{ID: "a", DependsOn: []string{"a"}},
	}})
	require.NoError(t, err)
	assert.False(t, valid.Valid)
	assert.Contains(t, valid.Reason, "depends on itself")
}
