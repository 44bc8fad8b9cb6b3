package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nexusmind/nexusmind/internal/llm"
	"github.com/nexusmind/nexusmind/internal/model"
)

// DecompositionStage breaks the query into analysis dimensions, each stored
// as a node linked to the root.
type DecompositionStage struct {
	deps *Deps
}

func NewDecompositionStage(deps *Deps) *DecompositionStage {
	return &DecompositionStage{deps: deps}
}

func (s *DecompositionStage) Name() string { return StageNameDecomposition }

type proposedDimensions struct {
	Dimensions []string `json:"dimensions"`
}

func (s *DecompositionStage) Execute(ctx context.Context, session *model.SessionData) (*StageOutput, error) {
	rootID := session.ContextString(StageNameInitialization, "root_node_id")
	if rootID == "" {
		return &StageOutput{
			Summary:      "Decomposition skipped: no root node.",
			ErrorMessage: "missing root_node_id",
		}, nil
	}

	labels := s.dimensionLabels(ctx, session)

	layer := layerAt(s.deps.Params.Layers, 1)
	nodes := make([]*model.Node, 0, len(labels))
	edges := make([]*model.Edge, 0, len(labels))
	ids := make([]string, 0, len(labels))
	results := make([]interface{}, 0, len(labels))

	for i, label := range labels {
		id := fmt.Sprintf("dim_%s_%d", rootID, i)
		n := model.NewNode(id, label, model.NodeTypeDecompositionDimension,
			model.ConfidenceFromList(s.deps.Params.DimensionConfidence))
		n.Metadata.Description = fmt.Sprintf("Dimension '%s' of the query analysis.", label)
		n.Metadata.QueryContext = session.Query
		n.Metadata.EpistemicStatus = model.EpistemicAssumption
		n.Metadata.LayerID = layer
		n.Metadata.ImpactScore = 0.6

		e := model.NewEdge(fmt.Sprintf("edge_%s_%s", id, rootID), id, rootID,
			model.EdgeTypeDecompositionOf, 0.95)
		e.Metadata.Description = fmt.Sprintf("'%s' decomposes the root task.", label)

		nodes = append(nodes, n)
		edges = append(edges, e)
		ids = append(ids, id)
		results = append(results, map[string]interface{}{"id": id, "label": label})
	}

	created, err := s.deps.Store.UpsertNodesBatch(ctx, rootID, nodes, edges)
	if err != nil {
		return nil, fmt.Errorf("create dimension nodes: %w", err)
	}

	s.deps.Log.Info("decomposition complete",
		zap.String("session_id", session.SessionID),
		zap.Int64("dimensions", created))

	return &StageOutput{
		Summary: fmt.Sprintf("Decomposed query into %d dimensions.", len(ids)),
		Metrics: map[string]interface{}{
			"dimensions_created": len(ids),
		},
		ContextUpdate: map[string]interface{}{
			"dimension_node_ids":    ids,
			"decomposition_results": results,
		},
	}, nil
}

// dimensionLabels takes dimensions from operational params first, then an
// LLM proposal, then the configured defaults.
func (s *DecompositionStage) dimensionLabels(ctx context.Context, session *model.SessionData) []string {
	if custom := opParamStrings(session, "decomposition_dimensions"); len(custom) > 0 {
		return custom
	}

	if s.deps.LLM != nil && s.deps.Prompts != nil && s.deps.Prompts.Decomposition.Dimensions != "" {
		prompt := fmt.Sprintf(s.deps.Prompts.Decomposition.Dimensions, session.Query)
		raw, err := s.deps.LLM.Generate(ctx, prompt)
		if err == nil {
			if parsed, perr := llm.ParseJSON[proposedDimensions](raw); perr == nil && len(parsed.Dimensions) > 0 {
				return parsed.Dimensions
			}
		}
		s.deps.Log.Warn("LLM dimension proposal failed, using defaults",
			zap.String("session_id", session.SessionID), zap.Error(err))
	}

	return s.deps.Params.DefaultDimensions
}

func layerAt(layers []string, i int) string {
	if i < len(layers) {
		return layers[i]
	}
	if len(layers) > 0 {
		return layers[len(layers)-1]
	}
	return ""
}
