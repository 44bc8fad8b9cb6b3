package model

// NodeType classifies a node's role in the reasoning graph.
type NodeType string

const (
	NodeTypeRoot                    NodeType = "root"
	NodeTypeTaskUnderstanding       NodeType = "task_understanding"
	NodeTypeDecompositionDimension  NodeType = "decomposition_dimension"
	NodeTypeHypothesis              NodeType = "hypothesis"
	NodeTypeEvidence                NodeType = "evidence"
	NodeTypePlaceholderGap          NodeType = "placeholder_gap"
	NodeTypeInterdisciplinaryBridge NodeType = "interdisciplinary_bridge"
	NodeTypeResearchQuestion        NodeType = "research_question"
	NodeTypeHyperedgeCenter         NodeType = "hyperedge_center"
)

// EdgeType classifies the relationship between two nodes.
type EdgeType string

const (
	EdgeTypeDecompositionOf     EdgeType = "decomposition_of"
	EdgeTypeGeneratesHypothesis EdgeType = "generates_hypothesis"
	EdgeTypeHasSubquestion      EdgeType = "has_subquestion"

	EdgeTypeCorrelative    EdgeType = "correlative"
	EdgeTypeSupportive     EdgeType = "supportive"
	EdgeTypeContradictory  EdgeType = "contradictory"
	EdgeTypePrerequisite   EdgeType = "prerequisite"
	EdgeTypeGeneralization EdgeType = "generalization"
	EdgeTypeSpecialization EdgeType = "specialization"
	EdgeTypeAssociative    EdgeType = "associative"
	EdgeTypeExampleOf      EdgeType = "example_of"
	EdgeTypeRelevantTo     EdgeType = "relevant_to"

	EdgeTypeCauses               EdgeType = "causes"
	EdgeTypeCausedBy             EdgeType = "caused_by"
	EdgeTypeEnables              EdgeType = "enables"
	EdgeTypePrevents             EdgeType = "prevents"
	EdgeTypeInfluencesPositively EdgeType = "influences_positively"
	EdgeTypeInfluencesNegatively EdgeType = "influences_negatively"
	EdgeTypeCounterfactualTo     EdgeType = "counterfactual_to"
	EdgeTypeConfoundedBy         EdgeType = "confounded_by"

	EdgeTypeTemporalPrecedes     EdgeType = "temporal_precedes"
	EdgeTypeTemporalFollows      EdgeType = "temporal_follows"
	EdgeTypeCooccursWith         EdgeType = "cooccurs_with"
	EdgeTypeOverlapsWith         EdgeType = "overlaps_with"
	EdgeTypeCyclicRelationship   EdgeType = "cyclic_relationship"
	EdgeTypeDelayedEffectOf      EdgeType = "delayed_effect_of"
	EdgeTypeSequentialDependency EdgeType = "sequential_dependency"

	EdgeTypeIBNSourceLink      EdgeType = "ibn_source_link"
	EdgeTypeIBNTargetLink      EdgeType = "ibn_target_link"
	EdgeTypeHyperedgeComponent EdgeType = "hyperedge_component"
	EdgeTypeOther              EdgeType = "other"
)

// RelName returns the Cypher relationship type for the edge (upper-cased).
// Kept alongside the enum so Cypher construction never re-derives it.
func (t EdgeType) RelName() string {
	out := make([]byte, len(t))
	for i := 0; i < len(t); i++ {
		c := t[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

// EpistemicStatus describes how well-grounded a piece of knowledge is.
type EpistemicStatus string

const (
	EpistemicAssumption           EpistemicStatus = "assumption"
	EpistemicHypothesis           EpistemicStatus = "hypothesis"
	EpistemicEvidenceSupported    EpistemicStatus = "evidence_supported"
	EpistemicEvidenceContradicted EpistemicStatus = "evidence_contradicted"
	EpistemicTheoreticallyDerived EpistemicStatus = "theoretically_derived"
	EpistemicWidelyAccepted       EpistemicStatus = "widely_accepted"
	EpistemicDisputed             EpistemicStatus = "disputed"
	EpistemicUnknown              EpistemicStatus = "unknown"
	EpistemicInferred             EpistemicStatus = "inferred"
	EpistemicSpeculation          EpistemicStatus = "speculation"
)
