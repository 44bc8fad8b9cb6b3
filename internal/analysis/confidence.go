package analysis

import (
	"math"

	"github.com/nexusmind/nexusmind/internal/model"
)

// UpdateConfidence applies an evidence-weighted adjustment to a confidence
// vector. Despite the Bayesian framing this is a linear interpolation toward
// 1.0 (supportive) or 0.0 (contradictory): each component moves by
// weight * (target - current), where weight combines evidence strength,
// statistical power and an edge-type factor.
func UpdateConfidence(prior model.ConfidenceVector, evidenceStrength float64, supports bool,
	statisticalPower *float64, edgeType model.EdgeType) model.ConfidenceVector {

	power := 0.5
	if statisticalPower != nil {
		power = *statisticalPower
	}
	weight := evidenceStrength * power

	switch edgeType {
	case model.EdgeTypeCauses, model.EdgeTypeSupportive:
		weight *= 1.1
	case model.EdgeTypeCorrelative:
		weight *= 0.9
	}
	weight = math.Max(0, math.Min(weight, 1.0))

	target := 0.0
	if supports {
		target = 1.0
	}

	values := prior.ToList()
	for i, v := range values {
		values[i] = v + weight*(target-v)
	}
	return model.ConfidenceFromList(values)
}

// InformationGain is the mean absolute component change between two
// confidence distributions. Returns 0 for mismatched lengths.
func InformationGain(prior, posterior []float64) float64 {
	if len(prior) != len(posterior) || len(prior) == 0 {
		return 0
	}
	var sum float64
	for i := range prior {
		sum += math.Abs(prior[i] - posterior[i])
	}
	return sum / float64(len(prior))
}

// ConfidenceVariance is the population variance of the four components.
// Used to favor hypotheses whose evidence picture is still unsettled.
func ConfidenceVariance(c model.ConfidenceVector) float64 {
	values := c.ToList()
	mean := c.Average()
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(values))
}
