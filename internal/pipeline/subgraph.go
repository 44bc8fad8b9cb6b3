package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nexusmind/nexusmind/internal/analysis"
	"github.com/nexusmind/nexusmind/internal/graph"
	"github.com/nexusmind/nexusmind/internal/model"
)

// SubgraphExtractionStage pulls focused slices out of the full graph for the
// composition stage: a high-confidence core, the hypothesis/evidence web,
// knowledge gaps, and the densest detected community.
type SubgraphExtractionStage struct {
	deps     *Deps
	detector *analysis.LabelPropagationDetector
}

func NewSubgraphExtractionStage(deps *Deps) *SubgraphExtractionStage {
	return &SubgraphExtractionStage{
		deps:     deps,
		detector: analysis.NewLabelPropagationDetector(),
	}
}

func (s *SubgraphExtractionStage) Name() string { return StageNameSubgraphExtraction }

func (s *SubgraphExtractionStage) defaultCriteria() []graph.SubgraphCriterion {
	gap := true
	return []graph.SubgraphCriterion{
		{
			Name:             "high_confidence_core",
			Description:      "Nodes with high average confidence and impact.",
			MinAvgConfidence: s.deps.Params.SubgraphMinConfidence,
			MinImpactScore:   s.deps.Params.SubgraphMinImpact,
		},
		{
			Name:        "key_hypotheses_and_support",
			Description: "Hypotheses with their supporting evidence and bridges.",
			NodeTypes: []model.NodeType{
				model.NodeTypeHypothesis,
				model.NodeTypeEvidence,
				model.NodeTypeInterdisciplinaryBridge,
			},
			MinAvgConfidence:      0.4,
			IncludeNeighborsDepth: 1,
		},
		{
			Name:           "knowledge_gaps_focus",
			Description:    "Nodes flagged as knowledge gaps, with context.",
			IsKnowledgeGap: &gap,
			NodeTypes: []model.NodeType{
				model.NodeTypePlaceholderGap,
				model.NodeTypeResearchQuestion,
			},
			IncludeNeighborsDepth: 1,
		},
	}
}

func (s *SubgraphExtractionStage) Execute(ctx context.Context, session *model.SessionData) (*StageOutput, error) {
	var results []interface{}
	totalExtracted := 0
	seen := make(map[string]bool)

	for _, criterion := range s.defaultCriteria() {
		nodes, err := s.deps.Store.FetchSubgraph(ctx, criterion)
		if err != nil {
			return nil, fmt.Errorf("extract subgraph %q: %w", criterion.Name, err)
		}
		results = append(results, subgraphResult(criterion.Name, criterion.Description, nodes))
		for _, n := range nodes {
			if !seen[n.ID] {
				seen[n.ID] = true
				totalExtracted++
			}
		}
	}

	if community, err := s.communityFocus(ctx); err != nil {
		s.deps.Log.Warn("community detection failed, skipping community_focus",
			zap.String("session_id", session.SessionID), zap.Error(err))
	} else if len(community) > 0 {
		results = append(results, subgraphResult("community_focus",
			"Largest detected community among hypotheses and evidence.", community))
		for _, n := range community {
			if !seen[n.ID] {
				seen[n.ID] = true
				totalExtracted++
			}
		}
	}

	s.deps.Log.Info("subgraph extraction complete",
		zap.String("session_id", session.SessionID),
		zap.Int("subgraphs", len(results)),
		zap.Int("nodes_extracted", totalExtracted))

	return &StageOutput{
		Summary: fmt.Sprintf("Extracted %d subgraphs covering %d distinct nodes.", len(results), totalExtracted),
		Metrics: map[string]interface{}{
			"subgraphs_extracted": len(results),
			"nodes_extracted":     totalExtracted,
		},
		ContextUpdate: map[string]interface{}{
			"nodes_extracted":             totalExtracted,
			"subgraph_extraction_results": results,
		},
	}, nil
}

// communityFocus runs label propagation over the hypothesis/evidence web and
// returns the largest community of size two or more.
func (s *SubgraphExtractionStage) communityFocus(ctx context.Context) ([]*model.Node, error) {
	var nodes []*model.Node
	for _, t := range []model.NodeType{
		model.NodeTypeHypothesis,
		model.NodeTypeEvidence,
		model.NodeTypeInterdisciplinaryBridge,
	} {
		batch, err := s.deps.Store.FetchNodesByType(ctx, t)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, batch...)
	}
	if len(nodes) < 2 {
		return nil, nil
	}

	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	edges, err := s.deps.Store.FetchEdgesAmong(ctx, ids)
	if err != nil {
		return nil, err
	}

	communities := s.detector.Detect(nodes, edges)
	var largest []*model.Node
	for _, community := range communities {
		if len(community) > len(largest) {
			largest = community
		}
	}
	return largest, nil
}

func subgraphResult(name, description string, nodes []*model.Node) map[string]interface{} {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return map[string]interface{}{
		"name":        name,
		"description": description,
		"node_count":  len(nodes),
		"node_ids":    ids,
	}
}
