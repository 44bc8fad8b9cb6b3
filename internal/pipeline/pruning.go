package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nexusmind/nexusmind/internal/analysis"
	"github.com/nexusmind/nexusmind/internal/model"
)

// mergeSimilarityThreshold is the label similarity above which two
// hypotheses get recorded as merge candidates for a later curation pass.
const mergeSimilarityThreshold = 0.85

// PruningMergingStage removes low-value nodes and weak edges, then flags
// near-duplicate hypotheses as merge candidates. Merging itself is advisory:
// candidates land in the session context rather than mutating the graph.
type PruningMergingStage struct {
	deps *Deps
}

func NewPruningMergingStage(deps *Deps) *PruningMergingStage {
	return &PruningMergingStage{deps: deps}
}

func (s *PruningMergingStage) Name() string { return StageNamePruningMerging }

var prunableTypes = []model.NodeType{
	model.NodeTypeHypothesis,
	model.NodeTypeEvidence,
	model.NodeTypeInterdisciplinaryBridge,
	model.NodeTypePlaceholderGap,
}

func (s *PruningMergingStage) Execute(ctx context.Context, session *model.SessionData) (*StageOutput, error) {
	nodesPruned, err := s.deps.Store.PruneLowValueNodes(ctx, prunableTypes,
		s.deps.Params.PruningConfidenceThreshold, s.deps.Params.PruningImpactThreshold)
	if err != nil {
		return nil, fmt.Errorf("prune low-value nodes: %w", err)
	}

	edgesPruned, err := s.deps.Store.PruneWeakEdges(ctx, 0.2)
	if err != nil {
		return nil, fmt.Errorf("prune weak edges: %w", err)
	}

	isolatedPruned, err := s.deps.Store.PruneIsolatedNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("prune isolated nodes: %w", err)
	}

	mergeCandidates, err := s.findMergeCandidates(ctx, session)
	if err != nil {
		return nil, err
	}

	nodesRemaining, err := s.deps.Store.CountNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("count remaining nodes: %w", err)
	}

	s.deps.Log.Info("pruning complete",
		zap.String("session_id", session.SessionID),
		zap.Int64("nodes_pruned", nodesPruned),
		zap.Int64("edges_pruned", edgesPruned),
		zap.Int64("isolated_pruned", isolatedPruned),
		zap.Int("merge_candidates", len(mergeCandidates)))

	return &StageOutput{
		Summary: fmt.Sprintf("Pruned %d nodes, %d weak edges, %d isolated nodes. Identified %d merge candidate pairs.",
			nodesPruned, edgesPruned, isolatedPruned, len(mergeCandidates)),
		Metrics: map[string]interface{}{
			"nodes_pruned":     nodesPruned,
			"edges_pruned":     edgesPruned,
			"isolated_pruned":  isolatedPruned,
			"merge_candidates": len(mergeCandidates),
		},
		ContextUpdate: map[string]interface{}{
			"nodes_pruned_count":  nodesPruned + isolatedPruned,
			"edges_pruned_count":  edgesPruned,
			"merge_candidates":    mergeCandidates,
			"nodes_after_pruning": nodesRemaining,
		},
	}, nil
}

// findMergeCandidates compares surviving hypothesis labels pairwise, using
// embeddings when an embedder is configured and word overlap otherwise.
func (s *PruningMergingStage) findMergeCandidates(ctx context.Context, session *model.SessionData) ([]interface{}, error) {
	hypotheses, err := s.deps.Store.FetchNodesByType(ctx, model.NodeTypeHypothesis)
	if err != nil {
		return nil, fmt.Errorf("fetch hypotheses for merge scan: %w", err)
	}
	if len(hypotheses) < 2 {
		return nil, nil
	}

	embeddings := s.embedLabels(ctx, session, hypotheses)

	var candidates []interface{}
	for i := 0; i < len(hypotheses); i++ {
		for j := i + 1; j < len(hypotheses); j++ {
			var similarity float64
			if embeddings != nil {
				similarity = analysis.CosineSimilarity(embeddings[i], embeddings[j])
			} else {
				similarity = analysis.LexicalSimilarity(hypotheses[i].Label, hypotheses[j].Label)
			}
			if similarity < mergeSimilarityThreshold {
				continue
			}
			candidates = append(candidates, map[string]interface{}{
				"node_id_1":  hypotheses[i].ID,
				"node_id_2":  hypotheses[j].ID,
				"similarity": similarity,
			})
		}
	}
	return candidates, nil
}

func (s *PruningMergingStage) embedLabels(ctx context.Context, session *model.SessionData, nodes []*model.Node) [][]float32 {
	if s.deps.Embedder == nil {
		return nil
	}
	out := make([][]float32, len(nodes))
	for i, n := range nodes {
		vec, err := s.deps.Embedder.Embed(ctx, n.Label)
		if err != nil {
			s.deps.Log.Warn("embedding failed, falling back to lexical similarity",
				zap.String("session_id", session.SessionID),
				zap.String("node_id", n.ID), zap.Error(err))
			return nil
		}
		out[i] = vec
	}
	return out
}
