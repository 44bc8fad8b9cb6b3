package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/nexusmind/nexusmind/internal/model"
)

func TestUpsertNodeSetsTypeLabel(t *testing.T) {
	mock := &MockDriver{}
	store := NewStore(mock, zap.NewNop())

	n := model.NewNode("h1", "Hypothesis 1", model.NodeTypeHypothesis, model.UniformConfidence(0.5))
	err := store.UpsertNode(context.Background(), n)

	assert.NoError(t, err)
	assert.Len(t, mock.Queries, 1)
	assert.Contains(t, mock.Queries[0], "SET n:HYPOTHESIS")
	assert.Equal(t, "h1", mock.ParamsLog[0]["id"])
}

func TestUpsertEdgeUsesRelationshipType(t *testing.T) {
	mock := &MockDriver{}
	store := NewStore(mock, zap.NewNop())

	e := model.NewEdge("e1", "ev1", "h1", model.EdgeTypeContradictory, 0.6)
	err := store.UpsertEdge(context.Background(), e)

	assert.NoError(t, err)
	assert.Contains(t, mock.Queries[0], "[r:CONTRADICTORY {id: $id}]")
	assert.Equal(t, "ev1", mock.ParamsLog[0]["source_id"])
	assert.Equal(t, "h1", mock.ParamsLog[0]["target_id"])
}

func TestUpsertNodesBatch(t *testing.T) {
	mock := &MockDriver{ResultQueue: []neo4j.EagerResult{}}
	mock.ResultQueue = append(mock.ResultQueue, countResult("created", 2))
	store := NewStore(mock, zap.NewNop())

	nodes := []*model.Node{
		model.NewNode("dim_n0_0", "Scope", model.NodeTypeDecompositionDimension, model.UniformConfidence(0.8)),
		model.NewNode("dim_n0_1", "Objectives", model.NodeTypeDecompositionDimension, model.UniformConfidence(0.8)),
	}
	edges := []*model.Edge{
		model.NewEdge("e1", "dim_n0_0", "n0", model.EdgeTypeDecompositionOf, 0.95),
		model.NewEdge("e2", "dim_n0_1", "n0", model.EdgeTypeDecompositionOf, 0.95),
	}

	created, err := store.UpsertNodesBatch(context.Background(), "n0", nodes, edges)

	assert.NoError(t, err)
	assert.Equal(t, int64(2), created)
	assert.Contains(t, mock.Queries[0], "SET n:DECOMPOSITION_DIMENSION")
	assert.Contains(t, mock.Queries[0], "DECOMPOSITION_OF")
	rows := mock.ParamsLog[0]["rows"].([]map[string]interface{})
	assert.Len(t, rows, 2)
}

func TestUpsertNodesBatchMismatch(t *testing.T) {
	store := NewStore(&MockDriver{}, zap.NewNop())
	nodes := []*model.Node{model.NewNode("a", "A", model.NodeTypeHypothesis, model.UniformConfidence(0.5))}
	_, err := store.UpsertNodesBatch(context.Background(), "n0", nodes, nil)
	assert.Error(t, err)
}

func TestFetchNodeNotFound(t *testing.T) {
	mock := &MockDriver{}
	store := NewStore(mock, zap.NewNop())

	_, err := store.FetchNode(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFetchNode(t *testing.T) {
	n := model.NewNode("h1", "Hypothesis 1", model.NodeTypeHypothesis, model.UniformConfidence(0.5))
	mock := &MockDriver{ResultQueue: []neo4j.EagerResult{propsResult(FlattenNode(n))}}
	store := NewStore(mock, zap.NewNop())

	got, err := store.FetchNode(context.Background(), "h1")
	assert.NoError(t, err)
	assert.Equal(t, "h1", got.ID)
	assert.Equal(t, model.NodeTypeHypothesis, got.Type)
}

func TestPruneLowValueNodes(t *testing.T) {
	mock := &MockDriver{ResultQueue: []neo4j.EagerResult{countResult("pruned", 3)}}
	store := NewStore(mock, zap.NewNop())

	pruned, err := store.PruneLowValueNodes(context.Background(),
		[]model.NodeType{model.NodeTypeHypothesis, model.NodeTypeEvidence}, 0.2, 0.3)

	assert.NoError(t, err)
	assert.Equal(t, int64(3), pruned)
	assert.Equal(t, []string{"hypothesis", "evidence"}, mock.ParamsLog[0]["types"])
	assert.Equal(t, 0.2, mock.ParamsLog[0]["min_confidence"])
}

func TestPruneDriverError(t *testing.T) {
	mock := &MockDriver{Err: errors.New("connection reset")}
	store := NewStore(mock, zap.NewNop())

	_, err := store.PruneIsolatedNodes(context.Background())
	assert.Error(t, err)
}

func TestFetchSubgraphBuildsFilters(t *testing.T) {
	gap := true
	mock := &MockDriver{}
	store := NewStore(mock, zap.NewNop())

	_, err := store.FetchSubgraph(context.Background(), SubgraphCriterion{
		Name:             "knowledge_gaps_focus",
		MinAvgConfidence: 0.6,
		MinImpactScore:   0.5,
		NodeTypes:        []model.NodeType{model.NodeTypeHypothesis},
		IsKnowledgeGap:   &gap,
	})

	assert.NoError(t, err)
	q := mock.Queries[0]
	assert.Contains(t, q, "$min_avg_confidence")
	assert.Contains(t, q, "n.type IN $node_types")
	assert.Contains(t, q, "$is_knowledge_gap")
	assert.Equal(t, true, mock.ParamsLog[0]["is_knowledge_gap"])
}

func TestFetchSubgraphExpandsNeighbors(t *testing.T) {
	h := model.NewNode("h1", "Hypothesis 1", model.NodeTypeHypothesis, model.UniformConfidence(0.8))
	ev := model.NewNode("ev1", "Evidence 1", model.NodeTypeEvidence, model.UniformConfidence(0.7))
	mock := &MockDriver{ResultQueue: []neo4j.EagerResult{
		propsResult(FlattenNode(h)),
		{Records: []*neo4j.Record{{Keys: []string{"id"}, Values: []interface{}{"ev1"}}}},
		propsResult(FlattenNode(ev)),
	}}
	store := NewStore(mock, zap.NewNop())

	nodes, err := store.FetchSubgraph(context.Background(), SubgraphCriterion{
		Name:                  "key_hypotheses_and_support",
		NodeTypes:             []model.NodeType{model.NodeTypeHypothesis},
		IncludeNeighborsDepth: 1,
	})

	assert.NoError(t, err)
	assert.Len(t, nodes, 2)
	assert.Equal(t, "h1", nodes[0].ID)
	assert.Equal(t, "ev1", nodes[1].ID)
}
