package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nexusmind/nexusmind/internal/config"
	"github.com/nexusmind/nexusmind/internal/events"
	"github.com/nexusmind/nexusmind/internal/model"
)

// Processor runs the eight reasoning stages in order, threading session
// state through them and enforcing the halting rules.
type Processor struct {
	stages []Stage
	deps   *Deps
	pub    events.Publisher
	log    *zap.Logger
}

func NewProcessor(deps *Deps, cfg *config.Config, pub events.Publisher) *Processor {
	if pub == nil {
		pub = events.NopPublisher{}
	}

	all := []Stage{
		NewInitializationStage(deps),
		NewDecompositionStage(deps),
		NewHypothesisStage(deps),
		NewEvidenceStage(deps),
		NewPruningMergingStage(deps),
		NewSubgraphExtractionStage(deps),
		NewCompositionStage(deps),
		NewReflectionStage(deps),
	}

	var enabled []Stage
	for _, s := range all {
		if cfg.StageEnabled(s.Name()) {
			enabled = append(enabled, s)
		} else {
			deps.Log.Info("stage disabled by config", zap.String("stage", s.Name()))
		}
	}

	return &Processor{stages: enabled, deps: deps, pub: pub, log: deps.Log}
}

// GraphCounts reports current node and edge totals, used for the optional
// graph-state section of query responses.
func (p *Processor) GraphCounts(ctx context.Context) (nodes, edges int64, err error) {
	nodes, err = p.deps.Store.CountNodes(ctx)
	if err != nil {
		return 0, 0, err
	}
	edges, err = p.deps.Store.CountEdges(ctx)
	if err != nil {
		return 0, 0, err
	}
	return nodes, edges, nil
}

// ProcessQuery drives one query through the pipeline and returns the final
// session state. Stage failures halt processing but never return an error;
// the halting reason lands in the session's answer and trace.
func (p *Processor) ProcessQuery(ctx context.Context, query, sessionID string,
	operationalParams, initialContext map[string]interface{}) *model.SessionData {

	if sessionID == "" {
		sessionID = "session-" + uuid.NewString()
	}
	session := model.NewSessionData(sessionID, query)
	if len(initialContext) > 0 {
		session.SetStageContext("initial_context", initialContext)
	}
	if len(operationalParams) > 0 {
		session.SetStageContext(operationalParamsKey, operationalParams)
	}

	p.log.Info("processing query",
		zap.String("session_id", sessionID),
		zap.Int("stages", len(p.stages)))

	halted := false
	for i, stage := range p.stages {
		stageStart := time.Now()
		output, err := stage.Execute(ctx, session)
		duration := time.Since(stageStart)

		entry := model.TraceEntry{
			StageNumber: i + 1,
			StageName:   stage.Name(),
			DurationMs:  duration.Milliseconds(),
		}

		if err != nil {
			haltMsg := fmt.Sprintf("A critical error occurred during the '%s' stage. Processing cannot continue.", stage.Name())
			p.log.Error("stage failed", zap.String("session_id", sessionID),
				zap.String("stage", stage.Name()), zap.Error(err))
			entry.Summary = haltMsg
			entry.Error = err.Error()
			session.StageTrace = append(session.StageTrace, entry)
			session.FinalAnswer = haltMsg
			halted = true
			p.publish(ctx, session, entry)
			break
		}

		entry.Summary = output.Summary
		entry.Error = output.ErrorMessage
		session.StageTrace = append(session.StageTrace, entry)
		session.SetStageContext(stage.Name(), output.ContextUpdate)
		p.publish(ctx, session, entry)

		if reason := p.haltReason(stage.Name(), output, session); reason != "" {
			haltMsg := "Processing halted: " + reason
			p.log.Warn("halting pipeline", zap.String("session_id", sessionID),
				zap.String("stage", stage.Name()), zap.String("reason", reason))
			session.StageTrace[len(session.StageTrace)-1].Summary = haltMsg
			session.StageTrace[len(session.StageTrace)-1].Error = reason
			session.FinalAnswer = haltMsg
			halted = true
			break
		}
	}

	p.finalize(session, halted)
	return session
}

// haltReason implements the per-stage halting rules. Empty means continue.
func (p *Processor) haltReason(stageName string, output *StageOutput, session *model.SessionData) string {
	switch stageName {
	case StageNameInitialization:
		if output.ErrorMessage != "" {
			return fmt.Sprintf("%s failed: %s", stageName, output.ErrorMessage)
		}
		if session.ContextString(stageName, "root_node_id") == "" {
			return fmt.Sprintf("%s did not provide root_node_id.", stageName)
		}

	case StageNameDecomposition:
		if len(session.ContextStrings(stageName, "dimension_node_ids")) == 0 {
			return "The query could not be broken down into actionable components."
		}

	case StageNameHypothesis:
		if len(session.ContextStrings(stageName, "hypothesis_node_ids")) == 0 {
			return "No hypotheses could be generated."
		}

	case StageNameEvidence:
		if v, ok := session.ContextValue(stageName, "evidence_nodes_added_count"); ok {
			if asInt(v) == 0 {
				p.log.Warn("no evidence integrated, proceeding with caution",
					zap.String("session_id", session.SessionID))
				session.SetStageContext("flags", map[string]interface{}{"no_evidence_found": true})
			}
		}

	case StageNameSubgraphExtraction:
		if v, ok := session.ContextValue(stageName, "nodes_extracted"); ok {
			if asInt(v) == 0 {
				p.log.Warn("no subgraph extracted, proceeding with caution",
					zap.String("session_id", session.SessionID))
				session.SetStageContext("flags", map[string]interface{}{"no_subgraph_extracted": true})
			}
		}
	}
	return ""
}

func (p *Processor) finalize(session *model.SessionData, halted bool) {
	if session.FinalAnswer == "" {
		if summary := session.ContextString(StageNameComposition, "executive_summary"); summary != "" {
			session.FinalAnswer = summary + "\n\n(Full report details generated)"
		} else {
			session.FinalAnswer = StageNameComposition + " did not produce a valid final output structure."
		}
	}

	if halted {
		session.FinalConfidenceVector = model.ConfidenceVector{}
		return
	}

	if v, ok := session.ContextValue(StageNameReflection, "final_confidence_vector_from_reflection"); ok {
		session.FinalConfidenceVector = model.ConfidenceFromList(asFloats(v))
	} else {
		session.FinalConfidenceVector = model.UniformConfidence(0.1)
	}
}

func (p *Processor) publish(ctx context.Context, session *model.SessionData, entry model.TraceEntry) {
	p.pub.PublishStage(ctx, events.StageEvent{
		SessionID:   session.SessionID,
		StageNumber: entry.StageNumber,
		StageName:   entry.StageName,
		DurationMs:  entry.DurationMs,
		Summary:     entry.Summary,
		Error:       entry.Error,
		Timestamp:   time.Now().UTC(),
	})
}

func asInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return -1
}

func asFloats(v interface{}) []float64 {
	switch vals := v.(type) {
	case []float64:
		return vals
	case []interface{}:
		out := make([]float64, 0, len(vals))
		for _, item := range vals {
			if f, ok := item.(float64); ok {
				out = append(out, f)
			}
		}
		return out
	}
	return nil
}
