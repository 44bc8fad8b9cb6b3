package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nexusmind/nexusmind/internal/analysis"
	"github.com/nexusmind/nexusmind/internal/llm"
	"github.com/nexusmind/nexusmind/internal/model"
)

// EvidenceStage iteratively picks the most promising hypothesis, gathers
// evidence for it, adjusts its confidence, and wires up interdisciplinary
// bridges and hyperedges where the new evidence justifies them.
type EvidenceStage struct {
	deps *Deps
}

func NewEvidenceStage(deps *Deps) *EvidenceStage {
	return &EvidenceStage{deps: deps}
}

func (s *EvidenceStage) Name() string { return StageNameEvidence }

type evidenceItem struct {
	Content          string   `json:"content"`
	Supports         bool     `json:"supports"`
	Strength         float64  `json:"strength"`
	StatisticalPower float64  `json:"statistical_power"`
	DisciplinaryTags []string `json:"disciplinary_tags"`
}

type gatheredEvidence struct {
	Evidence []evidenceItem `json:"evidence"`
}

func (s *EvidenceStage) Execute(ctx context.Context, session *model.SessionData) (*StageOutput, error) {
	hypothesisIDs := session.ContextStrings(StageNameHypothesis, "hypothesis_node_ids")
	if len(hypothesisIDs) == 0 {
		return &StageOutput{
			Summary:      "Evidence skipped: no hypotheses.",
			ErrorMessage: "no hypotheses found",
			ContextUpdate: map[string]interface{}{
				"evidence_nodes_added_count": 0,
			},
		}, nil
	}

	var (
		evidenceCreated   int
		hypothesesUpdated int
		ibnsCreated       int
		hyperedgesCreated int
		evidenceIDs       []string
	)
	processed := make(map[string]bool)

	for iteration := 0; iteration < s.deps.Params.EvidenceMaxIterations; iteration++ {
		hypo := s.selectHypothesis(ctx, session, hypothesisIDs, processed)
		if hypo == nil {
			break
		}
		processed[hypo.ID] = true

		items := s.gatherEvidence(ctx, session, hypo)
		var hyperedgeMembers []string

		for idx, item := range items {
			ev, err := s.createEvidence(ctx, hypo, item, iteration, idx)
			if err != nil {
				return nil, err
			}
			evidenceCreated++
			evidenceIDs = append(evidenceIDs, ev.ID)
			hyperedgeMembers = append(hyperedgeMembers, ev.ID)

			edgeType := model.EdgeTypeSupportive
			if !item.Supports {
				edgeType = model.EdgeTypeContradictory
			}
			power := item.StatisticalPower
			updated := analysis.UpdateConfidence(hypo.Confidence, item.Strength, item.Supports, &power, edgeType)
			gain := analysis.InformationGain(hypo.Confidence.ToList(), updated.ToList())
			if err := s.deps.Store.UpdateNodeConfidence(ctx, hypo.ID, updated); err != nil {
				return nil, err
			}
			hypo.Confidence = updated
			hypothesesUpdated++

			s.deps.Log.Debug("hypothesis confidence updated",
				zap.String("session_id", session.SessionID),
				zap.String("hypothesis_id", hypo.ID),
				zap.Float64("information_gain", gain))

			if created, err := s.maybeCreateIBN(ctx, ev, hypo); err != nil {
				return nil, err
			} else if created {
				ibnsCreated++
			}
		}

		if len(hyperedgeMembers) >= s.deps.Params.MinNodesForHyperedge {
			if err := s.createHyperedge(ctx, hypo, hyperedgeMembers); err != nil {
				return nil, err
			}
			hyperedgesCreated++
		}
	}

	summary := fmt.Sprintf(
		"Evidence integration completed. Evidence created: %d. Hypotheses updated: %d. IBNs created: %d. Hyperedges created: %d.",
		evidenceCreated, hypothesesUpdated, ibnsCreated, hyperedgesCreated)

	return &StageOutput{
		Summary: summary,
		Metrics: map[string]interface{}{
			"evidence_nodes_created": evidenceCreated,
			"hypotheses_updated":     hypothesesUpdated,
			"ibns_created":           ibnsCreated,
			"hyperedges_created":     hyperedgesCreated,
		},
		ContextUpdate: map[string]interface{}{
			"evidence_integration_completed": true,
			"evidence_nodes_added_count":     evidenceCreated,
			"evidence_node_ids":              evidenceIDs,
			"ibns_created_count":             ibnsCreated,
			"hyperedges_created_count":       hyperedgesCreated,
		},
	}, nil
}

// selectHypothesis scores unprocessed hypotheses by impact plus confidence
// variance (favoring important, unsettled claims) and returns the best.
func (s *EvidenceStage) selectHypothesis(ctx context.Context, session *model.SessionData,
	ids []string, processed map[string]bool) *model.Node {

	var best *model.Node
	bestScore := -1.0
	for _, id := range ids {
		if processed[id] {
			continue
		}
		n, err := s.deps.Store.FetchNode(ctx, id)
		if err != nil {
			s.deps.Log.Warn("hypothesis fetch failed",
				zap.String("session_id", session.SessionID),
				zap.String("hypothesis_id", id), zap.Error(err))
			continue
		}
		impact := n.Metadata.ImpactScore
		if impact == 0 {
			impact = 0.1
		}
		score := impact + analysis.ConfidenceVariance(n.Confidence)
		if score > bestScore {
			bestScore = score
			best = n
		}
	}
	return best
}

// gatherEvidence asks the LLM for evidence when configured and otherwise
// simulates plan execution the way an unattended run would.
func (s *EvidenceStage) gatherEvidence(ctx context.Context, session *model.SessionData, hypo *model.Node) []evidenceItem {
	if s.deps.LLM != nil && s.deps.Prompts != nil && s.deps.Prompts.Evidence.Gather != "" {
		prompt := fmt.Sprintf(s.deps.Prompts.Evidence.Gather, hypo.Label, session.Query)
		raw, err := s.deps.LLM.Generate(ctx, prompt)
		if err == nil {
			if parsed, perr := llm.ParseJSON[gatheredEvidence](raw); perr == nil && len(parsed.Evidence) > 0 {
				for i := range parsed.Evidence {
					if parsed.Evidence[i].Strength == 0 {
						parsed.Evidence[i].Strength = 0.5
					}
					if parsed.Evidence[i].StatisticalPower == 0 {
						parsed.Evidence[i].StatisticalPower = 0.5
					}
				}
				return parsed.Evidence
			}
		}
		s.deps.Log.Warn("LLM evidence gathering failed, simulating",
			zap.String("session_id", session.SessionID), zap.Error(err))
	}

	count := 1 + s.deps.Rand.Intn(2)
	items := make([]evidenceItem, count)
	for i := range items {
		supports := s.deps.Rand.Float64() > 0.25
		strength := 0.4 + s.deps.Rand.Float64()*0.5
		verb := "supporting"
		if !supports {
			verb = "contradicting"
		}
		items[i] = evidenceItem{
			Content:          fmt.Sprintf("Evidence piece %d %s hypothesis '%s' (strength: %.2f)", i+1, verb, truncate(hypo.Label, 30), strength),
			Supports:         supports,
			Strength:         strength,
			StatisticalPower: 0.5 + s.deps.Rand.Float64()*0.45,
			DisciplinaryTags: sampleTags(s.deps, nil),
		}
	}
	return items
}

func (s *EvidenceStage) createEvidence(ctx context.Context, hypo *model.Node,
	item evidenceItem, iteration, index int) (*model.Node, error) {

	id := fmt.Sprintf("ev_%s_%d_%d", hypo.ID, iteration, index)
	status := model.EpistemicEvidenceSupported
	if !item.Supports {
		status = model.EpistemicEvidenceContradicted
	}

	power := item.StatisticalPower
	n := model.NewNode(id, fmt.Sprintf("Evidence %d for H: %s", index+1, truncate(hypo.Label, 20)),
		model.NodeTypeEvidence,
		model.NewConfidenceVector(item.Strength, 0.5, item.Strength*0.8, 0.5))
	n.Metadata.Description = item.Content
	n.Metadata.SourceDescription = "Plan execution"
	n.Metadata.EpistemicStatus = status
	n.Metadata.DisciplinaryTags = item.DisciplinaryTags
	n.Metadata.StatisticalPower = &power
	n.Metadata.ImpactScore = item.Strength * power
	n.Metadata.LayerID = hypo.Metadata.LayerID

	if err := s.deps.Store.UpsertNode(ctx, n); err != nil {
		return nil, fmt.Errorf("create evidence %s: %w", id, err)
	}

	edgeType := model.EdgeTypeSupportive
	verb := "supports"
	if !item.Supports {
		edgeType = model.EdgeTypeContradictory
		verb = "contradicts"
	}
	e := model.NewEdge(fmt.Sprintf("edge_%s_%s", id, hypo.ID), id, hypo.ID, edgeType, item.Strength)
	e.Metadata.Description = fmt.Sprintf("Evidence %s hypothesis.", verb)
	if err := s.deps.Store.UpsertEdge(ctx, e); err != nil {
		return nil, fmt.Errorf("link evidence %s: %w", id, err)
	}

	return n, nil
}

// maybeCreateIBN creates an interdisciplinary bridge node when evidence and
// hypothesis come from disjoint disciplines yet read as related.
func (s *EvidenceStage) maybeCreateIBN(ctx context.Context, ev, hypo *model.Node) (bool, error) {
	if !analysis.DisjointTags(hypo.Metadata.DisciplinaryTags, ev.Metadata.DisciplinaryTags) {
		return false, nil
	}
	similarity := analysis.LexicalSimilarity(hypo.Label, ev.Label)
	if similarity < s.deps.Params.IBNSimilarityThreshold {
		return false, nil
	}

	id := fmt.Sprintf("ibn_%s_%s", ev.ID, hypo.ID)
	n := model.NewNode(id,
		fmt.Sprintf("IBN: %s <=> %s", truncate(ev.Label, 20), truncate(hypo.Label, 20)),
		model.NodeTypeInterdisciplinaryBridge,
		model.NewConfidenceVector(similarity, 0.4, 0.5, 0.3))
	n.Metadata.Description = fmt.Sprintf("Interdisciplinary bridge between %v and %v.",
		hypo.Metadata.DisciplinaryTags, ev.Metadata.DisciplinaryTags)
	n.Metadata.SourceDescription = "Evidence integration bridge detection"
	n.Metadata.EpistemicStatus = model.EpistemicInferred
	n.Metadata.DisciplinaryTags = append(append([]string{}, hypo.Metadata.DisciplinaryTags...), ev.Metadata.DisciplinaryTags...)
	n.Metadata.ImpactScore = 0.6
	n.Metadata.LayerID = ev.Metadata.LayerID
	n.Metadata.Interdisciplinary = &model.InterdisciplinaryInfo{
		SourceDisciplines: hypo.Metadata.DisciplinaryTags,
		TargetDisciplines: ev.Metadata.DisciplinaryTags,
		BridgingConcept:   fmt.Sprintf("Connection between '%s' and '%s'", truncate(ev.Label, 20), truncate(hypo.Label, 20)),
	}

	if err := s.deps.Store.UpsertNode(ctx, n); err != nil {
		return false, fmt.Errorf("create IBN %s: %w", id, err)
	}

	links := []*model.Edge{
		model.NewEdge(fmt.Sprintf("edge_%s_%s_%s", ev.ID, model.EdgeTypeIBNSourceLink, id), ev.ID, id, model.EdgeTypeIBNSourceLink, 0.8),
		model.NewEdge(fmt.Sprintf("edge_%s_%s_%s", id, model.EdgeTypeIBNTargetLink, hypo.ID), id, hypo.ID, model.EdgeTypeIBNTargetLink, 0.8),
	}
	for _, link := range links {
		if err := s.deps.Store.UpsertEdge(ctx, link); err != nil {
			return false, fmt.Errorf("link IBN %s: %w", id, err)
		}
	}
	return true, nil
}

// createHyperedge stores a hyperedge as a center node plus member edges.
func (s *EvidenceStage) createHyperedge(ctx context.Context, hypo *model.Node, evidenceIDs []string) error {
	id := fmt.Sprintf("hyper_%s_%d", hypo.ID, s.deps.Rand.Intn(9000)+1000)
	n := model.NewNode(id, fmt.Sprintf("Hyperedge for %s", truncate(hypo.Label, 20)),
		model.NodeTypeHyperedgeCenter,
		model.NewConfidenceVector(hypo.Confidence.EmpiricalSupport, 0.4, 0.5, 0.4))
	n.Metadata.Description = fmt.Sprintf("Joint influence on hypothesis '%s'.", truncate(hypo.Label, 20))
	n.Metadata.LayerID = hypo.Metadata.LayerID

	if err := s.deps.Store.UpsertNode(ctx, n); err != nil {
		return fmt.Errorf("create hyperedge center %s: %w", id, err)
	}

	members := append([]string{hypo.ID}, evidenceIDs...)
	for _, member := range members {
		e := model.NewEdge(fmt.Sprintf("edge_%s_member_%s", id, member), id, member,
			model.EdgeTypeHyperedgeComponent, model.DefaultEdgeConfidence)
		if err := s.deps.Store.UpsertEdge(ctx, e); err != nil {
			return fmt.Errorf("link hyperedge member %s: %w", member, err)
		}
	}
	return nil
}
