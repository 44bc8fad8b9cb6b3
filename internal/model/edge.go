package model

import "time"

type CausalMetadata struct {
	Mechanism           string   `json:"mechanism,omitempty"`
	Confounders         []string `json:"confounders,omitempty"`
	ExperimentalSupport bool     `json:"experimental_support,omitempty"`
}

type TemporalMetadata struct {
	DelayDuration string `json:"delay_duration,omitempty"`
	Pattern       string `json:"pattern,omitempty"`
}

type EdgeMetadata struct {
	Description      string            `json:"description,omitempty"`
	Weight           float64           `json:"weight,omitempty"`
	CausalMetadata   *CausalMetadata   `json:"causal_metadata,omitempty"`
	TemporalMetadata *TemporalMetadata `json:"temporal_metadata,omitempty"`
}

// Edge is a directed, typed relationship with a scalar confidence.
type Edge struct {
	ID         string       `json:"id"`
	SourceID   string       `json:"source_id"`
	TargetID   string       `json:"target_id"`
	Type       EdgeType     `json:"type"`
	Confidence float64      `json:"confidence"`
	Metadata   EdgeMetadata `json:"metadata"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

const DefaultEdgeConfidence = 0.7

func NewEdge(id, sourceID, targetID string, typ EdgeType, confidence float64) *Edge {
	now := time.Now().UTC()
	return &Edge{
		ID:         id,
		SourceID:   sourceID,
		TargetID:   targetID,
		Type:       typ,
		Confidence: clamp01(confidence),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
