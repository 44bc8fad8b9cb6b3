package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexusmind/nexusmind/internal/model"
)

func TestPruningReportsCounts(t *testing.T) {
	d := newFakeDriver()
	deps := newTestDeps(d)
	session := model.NewSessionData("s1", "a query")

	out, err := NewPruningMergingStage(deps).Execute(context.Background(), session)
	require.NoError(t, err)

	assert.Contains(t, out.ContextUpdate, "nodes_pruned_count")
	assert.Contains(t, out.ContextUpdate, "edges_pruned_count")
	assert.Contains(t, out.ContextUpdate, "nodes_after_pruning")
}

func TestPruningFindsLexicalMergeCandidates(t *testing.T) {
	d := newFakeDriver()
	deps := newTestDeps(d)
	for _, id := range []string{"hypo_1", "hypo_2"} {
		n := model.NewNode(id, "Mitochondrial dysfunction drives neuronal loss",
			model.NodeTypeHypothesis, model.UniformConfidence(0.5))
		require.NoError(t, deps.Store.UpsertNode(context.Background(), n))
	}
	n := model.NewNode("hypo_3", "An unrelated claim about climate",
		model.NodeTypeHypothesis, model.UniformConfidence(0.5))
	require.NoError(t, deps.Store.UpsertNode(context.Background(), n))

	out, err := NewPruningMergingStage(deps).Execute(context.Background(), model.NewSessionData("s1", "q"))
	require.NoError(t, err)

	candidates, ok := out.ContextUpdate["merge_candidates"].([]interface{})
	require.True(t, ok)
	require.Len(t, candidates, 1)
	pair := candidates[0].(map[string]interface{})
	assert.Equal(t, "hypo_1", pair["node_id_1"])
	assert.Equal(t, "hypo_2", pair["node_id_2"])
	assert.InDelta(t, 1.0, pair["similarity"].(float64), 1e-9)
}

func TestPruningEmbedderMergeCandidates(t *testing.T) {
	d := newFakeDriver()
	deps := newTestDeps(d)
	deps.Embedder = &MockEmbedder{Vectors: map[string][]float32{
		"claim one": {1, 0, 0},
		"claim two": {0, 1, 0},
	}}
	for i, label := range []string{"claim one", "claim two"} {
		n := model.NewNode([]string{"hypo_1", "hypo_2"}[i], label,
			model.NodeTypeHypothesis, model.UniformConfidence(0.5))
		require.NoError(t, deps.Store.UpsertNode(context.Background(), n))
	}

	out, err := NewPruningMergingStage(deps).Execute(context.Background(), model.NewSessionData("s1", "q"))
	require.NoError(t, err)

	// Orthogonal embeddings mean no merge candidates even though the labels
	// share a word.
	candidates, _ := out.ContextUpdate["merge_candidates"].([]interface{})
	assert.Empty(t, candidates)
}
