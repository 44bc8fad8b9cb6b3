package pipeline

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/nexusmind/nexusmind/internal/config"
	"github.com/nexusmind/nexusmind/internal/graph"
	"github.com/nexusmind/nexusmind/internal/llm"
	"github.com/nexusmind/nexusmind/internal/model"
)

const (
	StageNameInitialization     = "InitializationStage"
	StageNameDecomposition      = "DecompositionStage"
	StageNameHypothesis         = "HypothesisStage"
	StageNameEvidence           = "EvidenceStage"
	StageNamePruningMerging     = "PruningMergingStage"
	StageNameSubgraphExtraction = "SubgraphExtractionStage"
	StageNameComposition        = "CompositionStage"
	StageNameReflection         = "ReflectionStage"
)

// operationalParamsKey is the accumulated-context slot holding per-query
// parameter overrides.
const operationalParamsKey = "operational_params"

// StageOutput is what a stage hands back to the processor. ContextUpdate is
// merged into the session's accumulated context under the stage's name.
type StageOutput struct {
	Summary       string
	Metrics       map[string]interface{}
	ErrorMessage  string
	ContextUpdate map[string]interface{}
}

type Stage interface {
	Name() string
	Execute(ctx context.Context, session *model.SessionData) (*StageOutput, error)
}

// Deps bundles what every stage needs. LLM, Embedder and Prompts may be nil;
// stages then use their deterministic fallbacks.
type Deps struct {
	Store    *graph.Store
	LLM      llm.LLMClient
	Embedder llm.EmbedderClient
	Prompts  *config.Prompts
	Params   config.Parameters
	Log      *zap.Logger
	Rand     *rand.Rand
}

func NewDeps(store *graph.Store, client llm.LLMClient, embedder llm.EmbedderClient,
	prompts *config.Prompts, params config.Parameters, log *zap.Logger) *Deps {
	return &Deps{
		Store:    store,
		LLM:      client,
		Embedder: embedder,
		Prompts:  prompts,
		Params:   params,
		Log:      log,
		Rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func opParamStrings(session *model.SessionData, key string) []string {
	return session.ContextStrings(operationalParamsKey, key)
}
