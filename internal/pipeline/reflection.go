package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nexusmind/nexusmind/internal/model"
)

// Audit check outcomes.
const (
	CheckPass          = "PASS"
	CheckWarning       = "WARNING"
	CheckFail          = "FAIL"
	CheckNotApplicable = "NOT_APPLICABLE"
	CheckNotRun        = "NOT_RUN"
)

const (
	highConfidenceThreshold = 0.7
	highImpactThreshold     = 0.7
	minFalsifiableRatio     = 0.6
	minPoweredEvidenceRatio = 0.5
	adequatePowerThreshold  = 0.7
)

// ReflectionStage audits the finished analysis and derives the final
// confidence vector from the audit outcomes.
type ReflectionStage struct {
	deps *Deps
}

func NewReflectionStage(deps *Deps) *ReflectionStage {
	return &ReflectionStage{deps: deps}
}

func (s *ReflectionStage) Name() string { return StageNameReflection }

type auditCheck struct {
	Name    string `json:"name"`
	Outcome string `json:"outcome"`
	Detail  string `json:"detail"`
}

func (s *ReflectionStage) Execute(ctx context.Context, session *model.SessionData) (*StageOutput, error) {
	nodes, err := s.fetchAuditNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch nodes for audit: %w", err)
	}

	var hypotheses, evidence, gaps []*model.Node
	for _, n := range nodes {
		switch n.Type {
		case model.NodeTypeHypothesis:
			hypotheses = append(hypotheses, n)
		case model.NodeTypeEvidence:
			evidence = append(evidence, n)
		case model.NodeTypePlaceholderGap, model.NodeTypeResearchQuestion:
			gaps = append(gaps, n)
		}
	}

	checks := []auditCheck{
		s.checkCoverage(nodes),
		s.checkBiasFlags(nodes),
		s.checkKnowledgeGaps(session, gaps),
		s.checkFalsifiability(hypotheses),
		s.checkStatisticalRigor(evidence),
		{Name: "causal_claim_validity", Outcome: CheckNotRun, Detail: "Causal validity auditing is not implemented."},
		{Name: "temporal_consistency", Outcome: CheckNotRun, Detail: "Temporal consistency auditing is not implemented."},
		{Name: "attribution_completeness", Outcome: CheckNotRun, Detail: "Attribution auditing is not implemented."},
	}

	finalConfidence := s.deriveFinalConfidence(checks)

	results := make([]interface{}, len(checks))
	passed := 0
	for i, c := range checks {
		results[i] = map[string]interface{}{
			"name":    c.Name,
			"outcome": c.Outcome,
			"detail":  c.Detail,
		}
		if c.Outcome == CheckPass {
			passed++
		}
	}

	s.deps.Log.Info("reflection complete",
		zap.String("session_id", session.SessionID),
		zap.Int("checks_passed", passed),
		zap.Int("checks_total", len(checks)))

	return &StageOutput{
		Summary: fmt.Sprintf("Reflection complete. %d of %d audit checks passed.", passed, len(checks)),
		Metrics: map[string]interface{}{
			"checks_passed": passed,
			"checks_total":  len(checks),
		},
		ContextUpdate: map[string]interface{}{
			"audit_check_results":                     results,
			"final_confidence_vector_from_reflection": finalConfidence.ToList(),
		},
	}, nil
}

func (s *ReflectionStage) fetchAuditNodes(ctx context.Context) ([]*model.Node, error) {
	var nodes []*model.Node
	for _, t := range []model.NodeType{
		model.NodeTypeRoot,
		model.NodeTypeDecompositionDimension,
		model.NodeTypeHypothesis,
		model.NodeTypeEvidence,
		model.NodeTypeInterdisciplinaryBridge,
		model.NodeTypePlaceholderGap,
		model.NodeTypeResearchQuestion,
	} {
		batch, err := s.deps.Store.FetchNodesByType(ctx, t)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, batch...)
	}
	return nodes, nil
}

// checkCoverage measures what fraction of the graph is both confident and
// impactful.
func (s *ReflectionStage) checkCoverage(nodes []*model.Node) auditCheck {
	check := auditCheck{Name: "high_confidence_impact_coverage"}
	if len(nodes) == 0 {
		check.Outcome = CheckFail
		check.Detail = "Graph is empty."
		return check
	}

	confident, impactful := 0, 0
	for _, n := range nodes {
		if n.Confidence.Average() >= highConfidenceThreshold {
			confident++
		}
		if n.Metadata.ImpactScore >= highImpactThreshold {
			impactful++
		}
	}
	confCov := float64(confident) / float64(len(nodes))
	impactCov := float64(impactful) / float64(len(nodes))
	check.Detail = fmt.Sprintf("Confidence coverage %.2f, impact coverage %.2f over %d nodes.",
		confCov, impactCov, len(nodes))

	switch {
	case confCov >= 0.3 && impactCov >= 0.2:
		check.Outcome = CheckPass
	case confCov >= 0.1 || impactCov >= 0.1:
		check.Outcome = CheckWarning
	default:
		check.Outcome = CheckFail
	}
	return check
}

func (s *ReflectionStage) checkBiasFlags(nodes []*model.Node) auditCheck {
	check := auditCheck{Name: "bias_flags_assessment"}
	flagged, severe := 0, 0
	for _, n := range nodes {
		for _, flag := range n.Metadata.BiasFlags {
			flagged++
			if strings.EqualFold(flag.Severity, "high") {
				severe++
			}
		}
	}
	switch {
	case severe > 0:
		check.Outcome = CheckFail
		check.Detail = fmt.Sprintf("%d high-severity bias flags present.", severe)
	case flagged > 0:
		check.Outcome = CheckWarning
		check.Detail = fmt.Sprintf("%d bias flags present, none high severity.", flagged)
	default:
		check.Outcome = CheckPass
		check.Detail = "No bias flags recorded."
	}
	return check
}

// checkKnowledgeGaps verifies that flagged gaps made it into the report.
func (s *ReflectionStage) checkKnowledgeGaps(session *model.SessionData, gaps []*model.Node) auditCheck {
	check := auditCheck{Name: "knowledge_gaps_addressed"}
	if len(gaps) == 0 {
		check.Outcome = CheckNotApplicable
		check.Detail = "No knowledge gap nodes in the graph."
		return check
	}

	mentioned := false
	if raw, ok := session.ContextValue(StageNameComposition, "final_composed_output"); ok {
		if composed, ok := raw.(map[string]interface{}); ok {
			if sections, ok := composed["sections"].([]interface{}); ok {
				for _, item := range sections {
					sec, ok := item.(map[string]interface{})
					if !ok {
						continue
					}
					if title, ok := sec["title"].(string); ok && strings.Contains(strings.ToLower(title), "gap") {
						mentioned = true
						break
					}
				}
			}
		}
	}

	if mentioned {
		check.Outcome = CheckPass
		check.Detail = fmt.Sprintf("%d knowledge gaps exist and the report covers them.", len(gaps))
	} else {
		check.Outcome = CheckWarning
		check.Detail = fmt.Sprintf("%d knowledge gaps exist but the report does not mention them.", len(gaps))
	}
	return check
}

func (s *ReflectionStage) checkFalsifiability(hypotheses []*model.Node) auditCheck {
	check := auditCheck{Name: "hypothesis_falsifiability"}
	if len(hypotheses) == 0 {
		check.Outcome = CheckFail
		check.Detail = "No hypotheses to audit."
		return check
	}

	falsifiable := 0
	for _, h := range hypotheses {
		if h.Metadata.FalsificationCriteria != nil && h.Metadata.FalsificationCriteria.Description != "" {
			falsifiable++
		}
	}
	ratio := float64(falsifiable) / float64(len(hypotheses))
	check.Detail = fmt.Sprintf("%d of %d hypotheses carry falsification criteria.", falsifiable, len(hypotheses))

	switch {
	case ratio >= minFalsifiableRatio:
		check.Outcome = CheckPass
	case ratio > 0:
		check.Outcome = CheckWarning
	default:
		check.Outcome = CheckFail
	}
	return check
}

func (s *ReflectionStage) checkStatisticalRigor(evidence []*model.Node) auditCheck {
	check := auditCheck{Name: "statistical_rigor"}
	if len(evidence) == 0 {
		check.Outcome = CheckWarning
		check.Detail = "No evidence nodes to audit."
		return check
	}

	powered := 0
	for _, e := range evidence {
		if e.Metadata.StatisticalPower != nil && *e.Metadata.StatisticalPower >= adequatePowerThreshold {
			powered++
		}
	}
	ratio := float64(powered) / float64(len(evidence))
	check.Detail = fmt.Sprintf("%d of %d evidence nodes have adequate statistical power.", powered, len(evidence))

	if ratio >= minPoweredEvidenceRatio {
		check.Outcome = CheckPass
	} else {
		check.Outcome = CheckWarning
	}
	return check
}

// deriveFinalConfidence starts from a neutral vector and adjusts components
// by the audit outcomes.
func (s *ReflectionStage) deriveFinalConfidence(checks []auditCheck) model.ConfidenceVector {
	outcomes := make(map[string]string, len(checks))
	for _, c := range checks {
		outcomes[c.Name] = c.Outcome
	}

	empirical, theoretical, rigor, consensus := 0.5, 0.5, 0.5, 0.5

	switch outcomes["hypothesis_falsifiability"] {
	case CheckPass:
		rigor += 0.2
	case CheckWarning:
		rigor += 0.05
	case CheckFail:
		rigor -= 0.2
	}

	switch outcomes["bias_flags_assessment"] {
	case CheckPass:
		rigor += 0.1
	case CheckFail:
		rigor -= 0.15
	}

	switch outcomes["statistical_rigor"] {
	case CheckPass:
		empirical += 0.2
	case CheckWarning:
		empirical -= 0.1
	}

	return model.NewConfidenceVector(empirical, theoretical, rigor, consensus)
}
