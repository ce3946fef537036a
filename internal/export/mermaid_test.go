package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framehaus/siteforge/internal/engine"
)

func TestMermaid(t *testing.T) {
	out, err := Mermaid(diamondPhases())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "graph TD\n"))

	// one subgraph per wave
	assert.Contains(t, out, `subgraph W1["wave 1"]`)
	assert.Contains(t, out, `subgraph W2["wave 2"]`)
	assert.Contains(t, out, `subgraph W3["wave 3"]`)
	assert.Equal(t, 3, strings.Count(out, "subgraph"))
	assert.Equal(t, 3, strings.Count(out, "end\n"))

	// every phase appears as a labeled node
	for _, id := range []string{"palette", "copy/hero", "plan-assets", "review"} {
		assert.Contains(t, out, `["`+id+`"]`)
	}

	// one arrow per dependency edge
	assert.Equal(t, 4, strings.Count(out, "-->"))
}

func TestMermaid_ArrowDirection(t *testing.T) {
	out, err := Mermaid([]engine.Phase{
		{ID: "a"},
		{ID: "b", DependsOn: []string{"a"}},
	})
	require.NoError(t, err)

	// node ids are assigned in wave order: a=N0, b=N1
	assert.Contains(t, out, "N0 --> N1")
}

func TestMermaid_InvalidGraph(t *testing.T) {
	_, err := Mermaid([]engine.Phase{{ID: "a", DependsOn: []string{"a"}}})
	require.Error(t, err)
}
