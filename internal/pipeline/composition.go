package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nexusmind/nexusmind/internal/model"
)

const maxKeyClaimsPerSection = 3

// CompositionStage assembles the extracted subgraphs into a structured
// report: an executive summary plus one section per subgraph, with node
// citations and a trace appendix.
type CompositionStage struct {
	deps *Deps
}

func NewCompositionStage(deps *Deps) *CompositionStage {
	return &CompositionStage{deps: deps}
}

func (s *CompositionStage) Name() string { return StageNameComposition }

// ComposedSection is one report section derived from a single subgraph.
type ComposedSection struct {
	Title     string   `json:"title"`
	Summary   string   `json:"summary"`
	KeyClaims []string `json:"key_claims"`
	Citations []string `json:"citations"`
}

// ComposedOutput is the final report structure handed to the caller.
type ComposedOutput struct {
	Title            string            `json:"title"`
	ExecutiveSummary string            `json:"executive_summary"`
	Sections         []ComposedSection `json:"sections"`
	TraceAppendix    string            `json:"trace_appendix"`
}

func (s *CompositionStage) Execute(ctx context.Context, session *model.SessionData) (*StageOutput, error) {
	subgraphs := s.extractedSubgraphs(session)

	output := &ComposedOutput{
		Title: fmt.Sprintf("Analysis Report: %s", truncate(session.Query, 60)),
	}

	for _, sg := range subgraphs {
		if sg.nodeCount == 0 {
			continue
		}
		output.Sections = append(output.Sections, s.composeSection(ctx, session, sg))
	}

	output.ExecutiveSummary = s.executiveSummary(ctx, session, output.Sections)
	output.TraceAppendix = traceAppendix(session)

	s.deps.Log.Info("composition complete",
		zap.String("session_id", session.SessionID),
		zap.Int("sections", len(output.Sections)))

	return &StageOutput{
		Summary: fmt.Sprintf("Composed report with %d sections.", len(output.Sections)),
		Metrics: map[string]interface{}{
			"sections_composed": len(output.Sections),
		},
		ContextUpdate: map[string]interface{}{
			"final_composed_output": composedOutputMap(output),
			"executive_summary":     output.ExecutiveSummary,
		},
	}, nil
}

type extractedSubgraph struct {
	name        string
	description string
	nodeCount   int
	nodeIDs     []string
}

func (s *CompositionStage) extractedSubgraphs(session *model.SessionData) []extractedSubgraph {
	raw, ok := session.ContextValue(StageNameSubgraphExtraction, "subgraph_extraction_results")
	if !ok {
		return nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}

	var out []extractedSubgraph
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		sg := extractedSubgraph{}
		if v, ok := m["name"].(string); ok {
			sg.name = v
		}
		if v, ok := m["description"].(string); ok {
			sg.description = v
		}
		sg.nodeCount = asInt(m["node_count"])
		switch ids := m["node_ids"].(type) {
		case []string:
			sg.nodeIDs = ids
		case []interface{}:
			for _, id := range ids {
				if str, ok := id.(string); ok {
					sg.nodeIDs = append(sg.nodeIDs, str)
				}
			}
		}
		out = append(out, sg)
	}
	return out
}

func (s *CompositionStage) composeSection(ctx context.Context, session *model.SessionData, sg extractedSubgraph) ComposedSection {
	section := ComposedSection{
		Title: titleForSubgraph(sg.name),
	}

	for i, id := range sg.nodeIDs {
		section.Citations = append(section.Citations, "Node-"+id)
		if i < maxKeyClaimsPerSection {
			section.KeyClaims = append(section.KeyClaims, fmt.Sprintf("Claim derived from Node-%s.", id))
		}
	}

	section.Summary = fmt.Sprintf("%s This view covers %d nodes of the reasoning graph.", sg.description, sg.nodeCount)
	if s.deps.LLM != nil && s.deps.Prompts != nil && s.deps.Prompts.Composition.SectionSummary != "" {
		prompt := fmt.Sprintf(s.deps.Prompts.Composition.SectionSummary,
			sg.name, sg.description, strings.Join(sg.nodeIDs, ", "), session.Query)
		if generated, err := s.deps.LLM.Generate(ctx, prompt); err == nil && strings.TrimSpace(generated) != "" {
			section.Summary = strings.TrimSpace(generated)
		} else if err != nil {
			s.deps.Log.Warn("LLM section summary failed, using template",
				zap.String("session_id", session.SessionID),
				zap.String("subgraph", sg.name), zap.Error(err))
		}
	}
	return section
}

func (s *CompositionStage) executiveSummary(ctx context.Context, session *model.SessionData, sections []ComposedSection) string {
	if len(sections) == 0 {
		return fmt.Sprintf("The analysis of '%s' did not yield enough high-confidence findings for a detailed report.",
			truncate(session.Query, 60))
	}

	fallback := fmt.Sprintf("The analysis of '%s' produced %d focused views of the reasoning graph, "+
		"covering the high-confidence core, key hypotheses with their evidence, and open knowledge gaps.",
		truncate(session.Query, 60), len(sections))

	if s.deps.LLM == nil || s.deps.Prompts == nil || s.deps.Prompts.Composition.ExecutiveSummary == "" {
		return fallback
	}

	titles := make([]string, len(sections))
	for i, sec := range sections {
		titles[i] = sec.Title
	}
	prompt := fmt.Sprintf(s.deps.Prompts.Composition.ExecutiveSummary, session.Query, strings.Join(titles, "; "))
	generated, err := s.deps.LLM.Generate(ctx, prompt)
	if err != nil || strings.TrimSpace(generated) == "" {
		s.deps.Log.Warn("LLM executive summary failed, using template",
			zap.String("session_id", session.SessionID), zap.Error(err))
		return fallback
	}
	return strings.TrimSpace(generated)
}

func titleForSubgraph(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func traceAppendix(session *model.SessionData) string {
	var b strings.Builder
	for _, entry := range session.StageTrace {
		fmt.Fprintf(&b, "Stage %d (%s): %s\n", entry.StageNumber, entry.StageName, entry.Summary)
	}
	return strings.TrimRight(b.String(), "\n")
}

func composedOutputMap(o *ComposedOutput) map[string]interface{} {
	sections := make([]interface{}, len(o.Sections))
	for i, sec := range o.Sections {
		sections[i] = map[string]interface{}{
			"title":      sec.Title,
			"summary":    sec.Summary,
			"key_claims": sec.KeyClaims,
			"citations":  sec.Citations,
		}
	}
	return map[string]interface{}{
		"title":             o.Title,
		"executive_summary": o.ExecutiveSummary,
		"sections":          sections,
		"trace_appendix":    o.TraceAppendix,
	}
}
