package pipeline

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexusmind/nexusmind/internal/model"
)

func TestInitializationCreatesRoot(t *testing.T) {
	d := newFakeDriver()
	stage := NewInitializationStage(newTestDeps(d))
	session := model.NewSessionData("s1", "Why do neurons die in Parkinson's disease?")

	out, err := stage.Execute(context.Background(), session)
	require.NoError(t, err)
	assert.Empty(t, out.ErrorMessage)
	assert.Equal(t, "n0", out.ContextUpdate["root_node_id"])

	props := d.nodes["n0"]
	require.NotNil(t, props)
	assert.Equal(t, string(model.NodeTypeRoot), props["type"])
	assert.Equal(t, "Task Understanding", props["label"])
	assert.Equal(t, 0.9, props["confidence_empirical_support"])
	assert.Equal(t, 0.9, props["metadata_impact_score"])
	assert.Equal(t, "root_layer", props["metadata_layer_id"])
}

func TestInitializationEmptyQuery(t *testing.T) {
	d := newFakeDriver()
	stage := NewInitializationStage(newTestDeps(d))
	session := model.NewSessionData("s1", "  ")

	out, err := stage.Execute(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, "query must not be empty", out.ErrorMessage)
	assert.Empty(t, d.nodes)
}

func TestTruncateKeepsRuneBoundaries(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))

	out := truncate(strings.Repeat("é", 8), 5)
	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, "ééééé...", out)

	out = truncate("なぜ空は青いのか", 3)
	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, "なぜ空...", out)
}

func TestInitializationMultibyteQueryDescription(t *testing.T) {
	d := newFakeDriver()
	stage := NewInitializationStage(newTestDeps(d))
	session := model.NewSessionData("s1", strings.Repeat("青", 120))

	_, err := stage.Execute(context.Background(), session)
	require.NoError(t, err)

	desc, _ := d.nodes["n0"]["metadata_description"].(string)
	assert.True(t, utf8.ValidString(desc))
}

func TestInitializationTagOverride(t *testing.T) {
	d := newFakeDriver()
	stage := NewInitializationStage(newTestDeps(d))
	session := model.NewSessionData("s1", "a question")
	session.SetStageContext(operationalParamsKey, map[string]interface{}{
		"initial_disciplinary_tags": []string{"neuroscience", "genetics"},
	})

	out, err := stage.Execute(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, []string{"neuroscience", "genetics"}, out.ContextUpdate["initial_disciplinary_tags"])
}
