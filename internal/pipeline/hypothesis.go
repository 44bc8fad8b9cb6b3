package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nexusmind/nexusmind/internal/llm"
	"github.com/nexusmind/nexusmind/internal/model"
)

// HypothesisStage generates competing hypotheses under each decomposition
// dimension, each carrying a plan and falsification criteria.
type HypothesisStage struct {
	deps *Deps
}

func NewHypothesisStage(deps *Deps) *HypothesisStage {
	return &HypothesisStage{deps: deps}
}

func (s *HypothesisStage) Name() string { return StageNameHypothesis }

type proposedHypothesis struct {
	Text                  string  `json:"text"`
	ImpactScore           float64 `json:"impact_score"`
	FalsificationCriteria string  `json:"falsification_criteria"`
}

type proposedHypotheses struct {
	Hypotheses []proposedHypothesis `json:"hypotheses"`
}

func (s *HypothesisStage) Execute(ctx context.Context, session *model.SessionData) (*StageOutput, error) {
	dimensionIDs := session.ContextStrings(StageNameDecomposition, "dimension_node_ids")
	if len(dimensionIDs) == 0 {
		return &StageOutput{
			Summary:      "Hypothesis generation skipped: no dimensions.",
			ErrorMessage: "missing dimension_node_ids",
		}, nil
	}

	layer := layerAt(s.deps.Params.Layers, 2)
	var hypothesisIDs []string
	var results []interface{}

	for _, dimID := range dimensionIDs {
		dim, err := s.deps.Store.FetchNode(ctx, dimID)
		if err != nil {
			s.deps.Log.Warn("dimension node missing, skipping",
				zap.String("session_id", session.SessionID),
				zap.String("dimension_id", dimID), zap.Error(err))
			continue
		}

		proposals := s.proposeHypotheses(ctx, session, dim)
		for i, proposal := range proposals {
			id := fmt.Sprintf("hypo_%s_%d", dimID, i)
			n := s.buildHypothesisNode(id, proposal, dim, layer)
			if err := s.deps.Store.UpsertNode(ctx, n); err != nil {
				return nil, fmt.Errorf("create hypothesis %s: %w", id, err)
			}

			e := model.NewEdge(fmt.Sprintf("edge_%s_%s", dimID, id), dimID, id,
				model.EdgeTypeGeneratesHypothesis, 0.9)
			e.Metadata.Description = fmt.Sprintf("Dimension '%s' generates this hypothesis.", dim.Label)
			if err := s.deps.Store.UpsertEdge(ctx, e); err != nil {
				return nil, fmt.Errorf("link hypothesis %s: %w", id, err)
			}

			hypothesisIDs = append(hypothesisIDs, id)
			results = append(results, map[string]interface{}{
				"id": id, "label": n.Label, "dimension_id": dimID,
			})
		}
	}

	s.deps.Log.Info("hypothesis generation complete",
		zap.String("session_id", session.SessionID),
		zap.Int("hypotheses", len(hypothesisIDs)))

	return &StageOutput{
		Summary: fmt.Sprintf("Generated %d hypotheses across %d dimensions.", len(hypothesisIDs), len(dimensionIDs)),
		Metrics: map[string]interface{}{
			"hypotheses_created": len(hypothesisIDs),
		},
		ContextUpdate: map[string]interface{}{
			"hypothesis_node_ids": hypothesisIDs,
			"hypotheses_results":  results,
		},
	}, nil
}

func (s *HypothesisStage) proposeHypotheses(ctx context.Context, session *model.SessionData, dim *model.Node) []proposedHypothesis {
	k := s.deps.Params.HypothesesPerDimensionMin
	if spread := s.deps.Params.HypothesesPerDimensionMax - s.deps.Params.HypothesesPerDimensionMin; spread > 0 {
		k += s.deps.Rand.Intn(spread + 1)
	}

	if s.deps.LLM != nil && s.deps.Prompts != nil && s.deps.Prompts.Hypothesis.Generate != "" {
		prompt := fmt.Sprintf(s.deps.Prompts.Hypothesis.Generate, dim.Label, session.Query)
		raw, err := s.deps.LLM.Generate(ctx, prompt)
		if err == nil {
			if parsed, perr := llm.ParseJSON[proposedHypotheses](raw); perr == nil && len(parsed.Hypotheses) > 0 {
				if len(parsed.Hypotheses) > s.deps.Params.HypothesesPerDimensionMax {
					parsed.Hypotheses = parsed.Hypotheses[:s.deps.Params.HypothesesPerDimensionMax]
				}
				return parsed.Hypotheses
			}
		}
		s.deps.Log.Warn("LLM hypothesis proposal failed, using generated placeholders",
			zap.String("session_id", session.SessionID),
			zap.String("dimension", dim.Label), zap.Error(err))
	}

	out := make([]proposedHypothesis, k)
	for i := range out {
		out[i] = proposedHypothesis{
			Text:                  fmt.Sprintf("Hypothesis %d for '%s' (re: '%s')", i+1, dim.Label, truncate(session.Query, 30)),
			ImpactScore:           0.2 + s.deps.Rand.Float64()*0.7,
			FalsificationCriteria: fmt.Sprintf("Refuted if analysis of '%s' contradicts the expected pattern.", dim.Label),
		}
	}
	return out
}

func (s *HypothesisStage) buildHypothesisNode(id string, proposal proposedHypothesis, dim *model.Node, layer string) *model.Node {
	n := model.NewNode(id, proposal.Text, model.NodeTypeHypothesis,
		model.ConfidenceFromList(s.deps.Params.HypothesisConfidence))
	n.Metadata.EpistemicStatus = model.EpistemicHypothesis
	n.Metadata.LayerID = layer
	n.Metadata.ImpactScore = proposal.ImpactScore
	if n.Metadata.ImpactScore == 0 {
		n.Metadata.ImpactScore = 0.2 + s.deps.Rand.Float64()*0.7
	}
	n.Metadata.DisciplinaryTags = sampleTags(s.deps, dim.Metadata.DisciplinaryTags)

	planType := "literature_review"
	if len(s.deps.Params.DefaultPlanTypes) > 0 {
		planType = s.deps.Params.DefaultPlanTypes[s.deps.Rand.Intn(len(s.deps.Params.DefaultPlanTypes))]
	}
	n.Metadata.Plan = &model.Plan{
		Type:        planType,
		Description: fmt.Sprintf("Plan to evaluate '%s'", truncate(proposal.Text, 40)),
	}

	criteria := proposal.FalsificationCriteria
	if criteria == "" {
		criteria = fmt.Sprintf("Refuted if evidence consistently contradicts '%s'.", truncate(proposal.Text, 40))
	}
	n.Metadata.FalsificationCriteria = &model.FalsificationCriteria{Description: criteria}

	// A minority of hypotheses get flagged for later bias review.
	if s.deps.Rand.Float64() < 0.2 {
		n.Metadata.BiasFlags = []model.BiasFlag{{
			BiasType:        "confirmation_bias",
			Description:     "Potential for confirmation bias in plan design.",
			AssessmentStage: StageNameHypothesis,
			Severity:        "low",
		}}
	}

	return n
}

func sampleTags(deps *Deps, dimensionTags []string) []string {
	pool := deps.Params.DefaultDisciplinaryTags
	if len(dimensionTags) > 0 {
		pool = dimensionTags
	}
	if len(pool) == 0 {
		return nil
	}
	count := 1 + deps.Rand.Intn(len(pool))
	picked := make([]string, 0, count)
	for _, i := range deps.Rand.Perm(len(pool))[:count] {
		picked = append(picked, pool[i])
	}
	return picked
}
