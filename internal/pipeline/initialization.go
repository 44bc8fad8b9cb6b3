package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nexusmind/nexusmind/internal/model"
)

const rootNodeID = "n0"

// InitializationStage validates the query and plants the root node the rest
// of the pipeline hangs off.
type InitializationStage struct {
	deps *Deps
}

func NewInitializationStage(deps *Deps) *InitializationStage {
	return &InitializationStage{deps: deps}
}

func (s *InitializationStage) Name() string { return StageNameInitialization }

func (s *InitializationStage) Execute(ctx context.Context, session *model.SessionData) (*StageOutput, error) {
	query := strings.TrimSpace(session.Query)
	if query == "" {
		return &StageOutput{
			Summary:      "Initialization skipped: empty query.",
			ErrorMessage: "query must not be empty",
			ContextUpdate: map[string]interface{}{
				"error": "query must not be empty",
			},
		}, nil
	}

	tags := opParamStrings(session, "initial_disciplinary_tags")
	if len(tags) == 0 {
		tags = s.deps.Params.DefaultDisciplinaryTags
	}

	root := model.NewNode(rootNodeID, "Task Understanding", model.NodeTypeRoot,
		model.ConfidenceFromList(s.deps.Params.InitialConfidence))
	root.Metadata.QueryContext = query
	root.Metadata.Description = fmt.Sprintf("Initial understanding of the task: '%s'", truncate(query, 100))
	root.Metadata.EpistemicStatus = model.EpistemicAssumption
	root.Metadata.DisciplinaryTags = tags
	root.Metadata.ImpactScore = 0.9
	root.Metadata.LayerID = firstLayer(s.deps.Params.Layers)

	if err := s.deps.Store.UpsertNode(ctx, root); err != nil {
		return nil, fmt.Errorf("create root node: %w", err)
	}

	s.deps.Log.Info("root node created",
		zap.String("session_id", session.SessionID),
		zap.String("node_id", root.ID))

	return &StageOutput{
		Summary: fmt.Sprintf("Initialized root node '%s' for query analysis.", root.ID),
		Metrics: map[string]interface{}{
			"nodes_created": 1,
		},
		ContextUpdate: map[string]interface{}{
			"root_node_id":              root.ID,
			"initial_disciplinary_tags": tags,
		},
	}, nil
}

// truncate cuts on rune boundaries so multibyte queries stay valid UTF-8.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

func firstLayer(layers []string) string {
	if len(layers) == 0 {
		return "root_layer"
	}
	return layers[0]
}
