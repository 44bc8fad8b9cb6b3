package model

import "time"

type FalsificationCriteria struct {
	Description        string   `json:"description"`
	TestableConditions []string `json:"testable_conditions,omitempty"`
}

type BiasFlag struct {
	BiasType            string `json:"bias_type"`
	Description         string `json:"description,omitempty"`
	AssessmentStage     string `json:"assessment_stage,omitempty"`
	MitigationSuggested string `json:"mitigation_suggested,omitempty"`
	Severity            string `json:"severity,omitempty"`
}

type Plan struct {
	Type              string   `json:"type"`
	Description       string   `json:"description"`
	EstimatedCost     float64  `json:"estimated_cost,omitempty"`
	EstimatedDuration float64  `json:"estimated_duration,omitempty"`
	RequiredResources []string `json:"required_resources,omitempty"`
}

type InterdisciplinaryInfo struct {
	SourceDisciplines []string `json:"source_disciplines,omitempty"`
	TargetDisciplines []string `json:"target_disciplines,omitempty"`
	BridgingConcept   string   `json:"bridging_concept,omitempty"`
}

type InformationMetrics struct {
	Entropy              float64 `json:"entropy,omitempty"`
	InformationGain      float64 `json:"information_gain,omitempty"`
	MinDescriptionLength float64 `json:"min_description_length,omitempty"`
}

type RevisionRecord struct {
	Timestamp     time.Time              `json:"timestamp"`
	UserOrProcess string                 `json:"user_or_process,omitempty"`
	Action        string                 `json:"action"`
	ChangesMade   map[string]interface{} `json:"changes_made,omitempty"`
	Reason        string                 `json:"reason,omitempty"`
}

type NodeMetadata struct {
	Description           string                 `json:"description,omitempty"`
	QueryContext          string                 `json:"query_context,omitempty"`
	SourceDescription     string                 `json:"source_description,omitempty"`
	EpistemicStatus       EpistemicStatus        `json:"epistemic_status,omitempty"`
	DisciplinaryTags      []string               `json:"disciplinary_tags,omitempty"`
	LayerID               string                 `json:"layer_id,omitempty"`
	ImpactScore           float64                `json:"impact_score,omitempty"`
	IsKnowledgeGap        bool                   `json:"is_knowledge_gap,omitempty"`
	FalsificationCriteria *FalsificationCriteria `json:"falsification_criteria,omitempty"`
	BiasFlags             []BiasFlag             `json:"bias_flags,omitempty"`
	Plan                  *Plan                  `json:"plan,omitempty"`
	StatisticalPower      *float64               `json:"statistical_power,omitempty"`
	InfoMetrics           *InformationMetrics    `json:"information_metrics,omitempty"`
	Interdisciplinary     *InterdisciplinaryInfo `json:"interdisciplinary_info,omitempty"`
	RevisionHistory       []RevisionRecord       `json:"revision_history,omitempty"`
}

// Node is a single element of the reasoning graph.
type Node struct {
	ID         string           `json:"id"`
	Label      string           `json:"label"`
	Type       NodeType         `json:"type"`
	Confidence ConfidenceVector `json:"confidence"`
	Metadata   NodeMetadata     `json:"metadata"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func NewNode(id, label string, typ NodeType, confidence ConfidenceVector) *Node {
	now := time.Now().UTC()
	return &Node{
		ID:         id,
		Label:      label,
		Type:       typ,
		Confidence: confidence,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Hyperedge relates two or more nodes at once. Persisted as a
// hyperedge_center node with a member edge per participant.
type Hyperedge struct {
	ID          string           `json:"id"`
	NodeIDs     []string         `json:"node_ids"`
	Confidence  ConfidenceVector `json:"confidence"`
	Description string           `json:"description,omitempty"`
	LayerID     string           `json:"layer_id,omitempty"`
}
