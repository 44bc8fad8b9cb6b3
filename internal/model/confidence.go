package model

// ConfidenceVector holds the four confidence components tracked for every
// reasoning node. Components are always kept within [0, 1].
type ConfidenceVector struct {
	EmpiricalSupport    float64 `json:"empirical_support"`
	TheoreticalBasis    float64 `json:"theoretical_basis"`
	MethodologicalRigor float64 `json:"methodological_rigor"`
	ConsensusAlignment  float64 `json:"consensus_alignment"`
}

func NewConfidenceVector(empirical, theoretical, rigor, consensus float64) ConfidenceVector {
	return ConfidenceVector{
		EmpiricalSupport:    clamp01(empirical),
		TheoreticalBasis:    clamp01(theoretical),
		MethodologicalRigor: clamp01(rigor),
		ConsensusAlignment:  clamp01(consensus),
	}
}

// UniformConfidence returns a vector with every component set to v.
func UniformConfidence(v float64) ConfidenceVector {
	return NewConfidenceVector(v, v, v, v)
}

func (c ConfidenceVector) ToList() []float64 {
	return []float64{c.EmpiricalSupport, c.TheoreticalBasis, c.MethodologicalRigor, c.ConsensusAlignment}
}

// ConfidenceFromList builds a vector from up to four values; missing
// components default to 0.5 and out-of-range values are clamped.
func ConfidenceFromList(values []float64) ConfidenceVector {
	filled := []float64{0.5, 0.5, 0.5, 0.5}
	for i := 0; i < len(values) && i < 4; i++ {
		filled[i] = values[i]
	}
	return NewConfidenceVector(filled[0], filled[1], filled[2], filled[3])
}

func (c ConfidenceVector) Average() float64 {
	return (c.EmpiricalSupport + c.TheoreticalBasis + c.MethodologicalRigor + c.ConsensusAlignment) / 4.0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
