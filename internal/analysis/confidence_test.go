package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nexusmind/nexusmind/internal/model"
)

func TestUpdateConfidenceSupportiveMovesUp(t *testing.T) {
	prior := model.UniformConfidence(0.5)
	power := 0.8

	updated := UpdateConfidence(prior, 0.9, true, &power, model.EdgeTypeSupportive)

	for _, v := range updated.ToList() {
		assert.Greater(t, v, 0.5)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestUpdateConfidenceContradictoryMovesDown(t *testing.T) {
	prior := model.UniformConfidence(0.5)
	power := 0.8

	updated := UpdateConfidence(prior, 0.9, false, &power, model.EdgeTypeContradictory)

	for _, v := range updated.ToList() {
		assert.Less(t, v, 0.5)
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

func TestUpdateConfidenceExactValue(t *testing.T) {
	prior := model.UniformConfidence(0.5)
	power := 0.5

	// weight = 0.8 * 0.5 * 1.1 = 0.44; 0.5 + 0.44*(1-0.5) = 0.72
	updated := UpdateConfidence(prior, 0.8, true, &power, model.EdgeTypeSupportive)
	assert.InDelta(t, 0.72, updated.EmpiricalSupport, 1e-9)
}

func TestUpdateConfidenceDefaultPower(t *testing.T) {
	prior := model.UniformConfidence(0.4)

	// nil power defaults to 0.5: weight = 0.6*0.5 = 0.3 (no edge factor for "other")
	updated := UpdateConfidence(prior, 0.6, true, nil, model.EdgeTypeOther)
	assert.InDelta(t, 0.4+0.3*0.6, updated.EmpiricalSupport, 1e-9)
}

func TestUpdateConfidenceCorrelativeDampens(t *testing.T) {
	prior := model.UniformConfidence(0.5)
	power := 1.0

	supportive := UpdateConfidence(prior, 0.5, true, &power, model.EdgeTypeSupportive)
	correlative := UpdateConfidence(prior, 0.5, true, &power, model.EdgeTypeCorrelative)
	assert.Greater(t, supportive.EmpiricalSupport, correlative.EmpiricalSupport)
}

func TestInformationGain(t *testing.T) {
	assert.InDelta(t, 0.1, InformationGain([]float64{0.5, 0.5}, []float64{0.6, 0.4}), 1e-9)
	assert.Equal(t, 0.0, InformationGain([]float64{0.5}, []float64{0.5, 0.5}))
	assert.Equal(t, 0.0, InformationGain(nil, nil))
}

func TestConfidenceVariance(t *testing.T) {
	assert.Equal(t, 0.0, ConfidenceVariance(model.UniformConfidence(0.7)))
	spread := model.NewConfidenceVector(0.0, 1.0, 0.0, 1.0)
	assert.InDelta(t, 0.25, ConfidenceVariance(spread), 1e-9)
}
