package graph

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/nexusmind/nexusmind/internal/model"
)

// Property flattening for Neo4j. Scalars go in directly, confidence
// components get a confidence_ prefix, metadata scalars a metadata_ prefix,
// and structured metadata is serialized to JSON under metadata_<field>_json.
// Nil and empty values are omitted. This is the only place in the codebase
// that knows the on-graph property layout.

func FlattenNode(n *model.Node) map[string]interface{} {
	props := map[string]interface{}{
		"id":         n.ID,
		"label":      n.Label,
		"type":       string(n.Type),
		"created_at": n.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at": n.UpdatedAt.UTC().Format(time.RFC3339Nano),

		"confidence_empirical_support":    n.Confidence.EmpiricalSupport,
		"confidence_theoretical_basis":    n.Confidence.TheoreticalBasis,
		"confidence_methodological_rigor": n.Confidence.MethodologicalRigor,
		"confidence_consensus_alignment":  n.Confidence.ConsensusAlignment,
	}

	m := n.Metadata
	setString(props, "metadata_description", m.Description)
	setString(props, "metadata_query_context", m.QueryContext)
	setString(props, "metadata_source_description", m.SourceDescription)
	setString(props, "metadata_epistemic_status", string(m.EpistemicStatus))
	setString(props, "metadata_layer_id", m.LayerID)
	if len(m.DisciplinaryTags) > 0 {
		props["metadata_disciplinary_tags"] = m.DisciplinaryTags
	}
	if m.ImpactScore != 0 {
		props["metadata_impact_score"] = m.ImpactScore
	}
	if m.IsKnowledgeGap {
		props["metadata_is_knowledge_gap"] = true
	}
	if m.StatisticalPower != nil {
		props["metadata_statistical_power"] = *m.StatisticalPower
	}

	setJSON(props, "metadata_falsification_criteria_json", m.FalsificationCriteria)
	if len(m.BiasFlags) > 0 {
		setJSON(props, "metadata_bias_flags_json", m.BiasFlags)
	}
	setJSON(props, "metadata_plan_json", m.Plan)
	setJSON(props, "metadata_information_metrics_json", m.InfoMetrics)
	setJSON(props, "metadata_interdisciplinary_info_json", m.Interdisciplinary)
	if len(m.RevisionHistory) > 0 {
		setJSON(props, "metadata_revision_history_json", m.RevisionHistory)
	}

	return props
}

func FlattenEdge(e *model.Edge) map[string]interface{} {
	props := map[string]interface{}{
		"id":         e.ID,
		"type":       string(e.Type),
		"confidence": e.Confidence,
		"created_at": e.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at": e.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	setString(props, "metadata_description", e.Metadata.Description)
	if e.Metadata.Weight != 0 {
		props["metadata_weight"] = e.Metadata.Weight
	}
	setJSON(props, "metadata_causal_json", e.Metadata.CausalMetadata)
	setJSON(props, "metadata_temporal_json", e.Metadata.TemporalMetadata)
	return props
}

// NodeFromProps rebuilds a Node from a flattened property map as returned by
// `RETURN properties(n)`. Unknown properties are ignored.
func NodeFromProps(props map[string]interface{}) *model.Node {
	n := &model.Node{
		ID:    asString(props["id"]),
		Label: asString(props["label"]),
		Type:  model.NodeType(asString(props["type"])),
		Confidence: model.NewConfidenceVector(
			asFloat(props["confidence_empirical_support"], 0.5),
			asFloat(props["confidence_theoretical_basis"], 0.5),
			asFloat(props["confidence_methodological_rigor"], 0.5),
			asFloat(props["confidence_consensus_alignment"], 0.5),
		),
		CreatedAt: asTime(props["created_at"]),
		UpdatedAt: asTime(props["updated_at"]),
	}

	n.Metadata.Description = asString(props["metadata_description"])
	n.Metadata.QueryContext = asString(props["metadata_query_context"])
	n.Metadata.SourceDescription = asString(props["metadata_source_description"])
	n.Metadata.EpistemicStatus = model.EpistemicStatus(asString(props["metadata_epistemic_status"]))
	n.Metadata.LayerID = asString(props["metadata_layer_id"])
	n.Metadata.DisciplinaryTags = asStrings(props["metadata_disciplinary_tags"])
	n.Metadata.ImpactScore = asFloat(props["metadata_impact_score"], 0)
	if b, ok := props["metadata_is_knowledge_gap"].(bool); ok {
		n.Metadata.IsKnowledgeGap = b
	}
	if v, ok := props["metadata_statistical_power"]; ok {
		power := asFloat(v, 0.5)
		n.Metadata.StatisticalPower = &power
	}

	unmarshalJSON(props, "metadata_falsification_criteria_json", &n.Metadata.FalsificationCriteria)
	unmarshalJSON(props, "metadata_bias_flags_json", &n.Metadata.BiasFlags)
	unmarshalJSON(props, "metadata_plan_json", &n.Metadata.Plan)
	unmarshalJSON(props, "metadata_information_metrics_json", &n.Metadata.InfoMetrics)
	unmarshalJSON(props, "metadata_interdisciplinary_info_json", &n.Metadata.Interdisciplinary)
	unmarshalJSON(props, "metadata_revision_history_json", &n.Metadata.RevisionHistory)

	return n
}

func setString(props map[string]interface{}, key, value string) {
	if value != "" {
		props[key] = value
	}
}

func setJSON(props map[string]interface{}, key string, value interface{}) {
	if value == nil || isNilPointer(value) {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	props[key] = string(data)
}

func isNilPointer(v interface{}) bool {
	switch p := v.(type) {
	case *model.FalsificationCriteria:
		return p == nil
	case *model.Plan:
		return p == nil
	case *model.InformationMetrics:
		return p == nil
	case *model.InterdisciplinaryInfo:
		return p == nil
	case *model.CausalMetadata:
		return p == nil
	case *model.TemporalMetadata:
		return p == nil
	}
	return false
}

func unmarshalJSON(props map[string]interface{}, key string, dest interface{}) {
	raw, ok := props[key].(string)
	if !ok || raw == "" {
		return
	}
	_ = json.Unmarshal([]byte(raw), dest)
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asFloat(v interface{}, fallback float64) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	return fallback
}

func asStrings(v interface{}) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []interface{}:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func asTime(v interface{}) time.Time {
	s, ok := v.(string)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t
}
