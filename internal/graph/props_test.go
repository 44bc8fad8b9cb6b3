package graph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nexusmind/nexusmind/internal/model"
)

func TestFlattenNodeScalarsAndConfidence(t *testing.T) {
	n := model.NewNode("n0", "Task Understanding", model.NodeTypeRoot, model.UniformConfidence(0.9))
	n.Metadata.QueryContext = "why is the sky blue"
	n.Metadata.ImpactScore = 0.9
	n.Metadata.EpistemicStatus = model.EpistemicAssumption
	n.Metadata.DisciplinaryTags = []string{"physics"}

	props := FlattenNode(n)

	assert.Equal(t, "n0", props["id"])
	assert.Equal(t, "root", props["type"])
	assert.Equal(t, 0.9, props["confidence_empirical_support"])
	assert.Equal(t, 0.9, props["confidence_consensus_alignment"])
	assert.Equal(t, "why is the sky blue", props["metadata_query_context"])
	assert.Equal(t, 0.9, props["metadata_impact_score"])
	assert.Equal(t, "assumption", props["metadata_epistemic_status"])
	assert.Equal(t, []string{"physics"}, props["metadata_disciplinary_tags"])
}

func TestFlattenNodeOmitsEmpty(t *testing.T) {
	n := model.NewNode("h1", "Hypothesis 1", model.NodeTypeHypothesis, model.UniformConfidence(0.5))
	props := FlattenNode(n)

	_, hasDesc := props["metadata_description"]
	assert.False(t, hasDesc)
	_, hasGap := props["metadata_is_knowledge_gap"]
	assert.False(t, hasGap)
	_, hasPlan := props["metadata_plan_json"]
	assert.False(t, hasPlan)
	_, hasFals := props["metadata_falsification_criteria_json"]
	assert.False(t, hasFals)
}

func TestFlattenNodeStructuredMetadataAsJSON(t *testing.T) {
	n := model.NewNode("h1", "Hypothesis 1", model.NodeTypeHypothesis, model.UniformConfidence(0.5))
	n.Metadata.Plan = &model.Plan{Type: "literature_review", Description: "survey prior work"}
	n.Metadata.FalsificationCriteria = &model.FalsificationCriteria{Description: "fails if X"}
	n.Metadata.BiasFlags = []model.BiasFlag{{BiasType: "confirmation_bias"}}

	props := FlattenNode(n)

	assert.Contains(t, props["metadata_plan_json"], "literature_review")
	assert.Contains(t, props["metadata_falsification_criteria_json"], "fails if X")
	assert.Contains(t, props["metadata_bias_flags_json"], "confirmation_bias")
}

func TestNodePropsRoundTrip(t *testing.T) {
	power := 0.8
	n := model.NewNode("ev1", "Evidence 1", model.NodeTypeEvidence, model.NewConfidenceVector(0.7, 0.6, 0.5, 0.4))
	n.Metadata.Description = "simulated finding"
	n.Metadata.DisciplinaryTags = []string{"biology", "statistics"}
	n.Metadata.ImpactScore = 0.6
	n.Metadata.IsKnowledgeGap = true
	n.Metadata.StatisticalPower = &power
	n.Metadata.Plan = &model.Plan{Type: "experiment", Description: "run trial"}

	back := NodeFromProps(FlattenNode(n))

	assert.Equal(t, n.ID, back.ID)
	assert.Equal(t, n.Type, back.Type)
	assert.Equal(t, n.Confidence, back.Confidence)
	assert.Equal(t, n.Metadata.Description, back.Metadata.Description)
	assert.Equal(t, n.Metadata.DisciplinaryTags, back.Metadata.DisciplinaryTags)
	assert.True(t, back.Metadata.IsKnowledgeGap)
	assert.NotNil(t, back.Metadata.StatisticalPower)
	assert.Equal(t, power, *back.Metadata.StatisticalPower)
	assert.NotNil(t, back.Metadata.Plan)
	assert.Equal(t, "experiment", back.Metadata.Plan.Type)
	assert.WithinDuration(t, n.CreatedAt, back.CreatedAt, time.Millisecond)
}

func TestNodeFromPropsDefaults(t *testing.T) {
	back := NodeFromProps(map[string]interface{}{"id": "x"})
	assert.Equal(t, "x", back.ID)
	assert.Equal(t, model.UniformConfidence(0.5), back.Confidence)
	assert.Nil(t, back.Metadata.StatisticalPower)
}

func TestFlattenEdge(t *testing.T) {
	e := model.NewEdge("e1", "ev1", "h1", model.EdgeTypeSupportive, 0.85)
	e.Metadata.Description = "evidence supports hypothesis"

	props := FlattenEdge(e)

	assert.Equal(t, "supportive", props["type"])
	assert.Equal(t, 0.85, props["confidence"])
	assert.Equal(t, "evidence supports hypothesis", props["metadata_description"])
	_, hasCausal := props["metadata_causal_json"]
	assert.False(t, hasCausal)
}
