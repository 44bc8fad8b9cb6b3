package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexusmind/nexusmind/internal/config"
	"github.com/nexusmind/nexusmind/internal/model"
)

func sessionWithRoot(query string) *model.SessionData {
	session := model.NewSessionData("s1", query)
	session.SetStageContext(StageNameInitialization, map[string]interface{}{
		"root_node_id": "n0",
	})
	return session
}

func TestDecompositionDefaultDimensions(t *testing.T) {
	d := newFakeDriver()
	deps := newTestDeps(d)
	stage := NewDecompositionStage(deps)
	session := sessionWithRoot("how do vaccines work")

	out, err := stage.Execute(context.Background(), session)
	require.NoError(t, err)

	ids, ok := out.ContextUpdate["dimension_node_ids"].([]string)
	require.True(t, ok)
	assert.Len(t, ids, len(deps.Params.DefaultDimensions))

	props := d.nodes["dim_n0_0"]
	require.NotNil(t, props)
	assert.Equal(t, string(model.NodeTypeDecompositionDimension), props["type"])
	assert.Equal(t, "Scope", props["label"])
	assert.Equal(t, "decomposition_layer", props["metadata_layer_id"])
	require.Len(t, d.edges, len(ids))
	assert.Equal(t, string(model.EdgeTypeDecompositionOf), d.edges[0]["type"])
}

func TestDecompositionMissingRoot(t *testing.T) {
	d := newFakeDriver()
	stage := NewDecompositionStage(newTestDeps(d))
	session := model.NewSessionData("s1", "a query")

	out, err := stage.Execute(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, "missing root_node_id", out.ErrorMessage)
}

func TestDecompositionOperationalOverride(t *testing.T) {
	d := newFakeDriver()
	stage := NewDecompositionStage(newTestDeps(d))
	session := sessionWithRoot("a query")
	session.SetStageContext(operationalParamsKey, map[string]interface{}{
		"decomposition_dimensions": []string{"Mechanism", "Evidence Base"},
	})

	out, err := stage.Execute(context.Background(), session)
	require.NoError(t, err)
	ids, _ := out.ContextUpdate["dimension_node_ids"].([]string)
	assert.Len(t, ids, 2)
	assert.Equal(t, "Mechanism", d.nodes["dim_n0_0"]["label"])
}

func TestDecompositionLLMProposal(t *testing.T) {
	d := newFakeDriver()
	deps := newTestDeps(d)
	deps.LLM = &MockLLM{ResponseQueue: []string{
		`{"dimensions": ["Causal Pathways", "Confounders", "Interventions"]}`,
	}}
	deps.Prompts = &config.Prompts{
		Decomposition: config.DecompositionPrompts{Dimensions: "Break down: %s"},
	}
	stage := NewDecompositionStage(deps)

	out, err := stage.Execute(context.Background(), sessionWithRoot("a query"))
	require.NoError(t, err)
	ids, _ := out.ContextUpdate["dimension_node_ids"].([]string)
	require.Len(t, ids, 3)
	assert.Equal(t, "Causal Pathways", d.nodes["dim_n0_0"]["label"])
}

func TestDecompositionLLMFailureFallsBack(t *testing.T) {
	d := newFakeDriver()
	deps := newTestDeps(d)
	deps.LLM = &MockLLM{Err: assert.AnError}
	deps.Prompts = &config.Prompts{
		Decomposition: config.DecompositionPrompts{Dimensions: "Break down: %s"},
	}
	stage := NewDecompositionStage(deps)

	out, err := stage.Execute(context.Background(), sessionWithRoot("a query"))
	require.NoError(t, err)
	ids, _ := out.ContextUpdate["dimension_node_ids"].([]string)
	assert.Len(t, ids, len(deps.Params.DefaultDimensions))
}
