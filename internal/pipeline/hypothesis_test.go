package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexusmind/nexusmind/internal/model"
)

func seedDimension(t *testing.T, deps *Deps, id, label string) {
	t.Helper()
	n := model.NewNode(id, label, model.NodeTypeDecompositionDimension, model.UniformConfidence(0.8))
	n.Metadata.DisciplinaryTags = []string{"biology"}
	require.NoError(t, deps.Store.UpsertNode(context.Background(), n))
}

func TestHypothesisGeneration(t *testing.T) {
	d := newFakeDriver()
	deps := newTestDeps(d)
	seedDimension(t, deps, "dim_n0_0", "Scope")
	seedDimension(t, deps, "dim_n0_1", "Mechanisms")

	session := model.NewSessionData("s1", "a query")
	session.SetStageContext(StageNameDecomposition, map[string]interface{}{
		"dimension_node_ids": []string{"dim_n0_0", "dim_n0_1"},
	})

	out, err := NewHypothesisStage(deps).Execute(context.Background(), session)
	require.NoError(t, err)

	ids, ok := out.ContextUpdate["hypothesis_node_ids"].([]string)
	require.True(t, ok)
	min := 2 * deps.Params.HypothesesPerDimensionMin
	max := 2 * deps.Params.HypothesesPerDimensionMax
	assert.GreaterOrEqual(t, len(ids), min)
	assert.LessOrEqual(t, len(ids), max)

	props := d.nodes[ids[0]]
	require.NotNil(t, props)
	assert.Equal(t, string(model.NodeTypeHypothesis), props["type"])
	assert.Equal(t, 0.5, props["confidence_empirical_support"])
	assert.NotEmpty(t, props["metadata_falsification_criteria_json"])
	assert.NotEmpty(t, props["metadata_plan_json"])
}

func TestHypothesisMissingDimensions(t *testing.T) {
	d := newFakeDriver()
	session := model.NewSessionData("s1", "a query")

	out, err := NewHypothesisStage(newTestDeps(d)).Execute(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, "missing dimension_node_ids", out.ErrorMessage)
}

func TestHypothesisSkipsMissingDimensionNodes(t *testing.T) {
	d := newFakeDriver()
	deps := newTestDeps(d)
	seedDimension(t, deps, "dim_n0_0", "Scope")

	session := model.NewSessionData("s1", "a query")
	session.SetStageContext(StageNameDecomposition, map[string]interface{}{
		"dimension_node_ids": []string{"dim_n0_0", "dim_gone"},
	})

	out, err := NewHypothesisStage(deps).Execute(context.Background(), session)
	require.NoError(t, err)
	ids, _ := out.ContextUpdate["hypothesis_node_ids"].([]string)
	assert.LessOrEqual(t, len(ids), deps.Params.HypothesesPerDimensionMax)
	assert.NotEmpty(t, ids)
}
