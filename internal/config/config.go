package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`
}

type Neo4jConfig struct {
	URI      string `yaml:"uri"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type LLMConfig struct {
	Provider       string `yaml:"provider"`
	Model          string `yaml:"model"`
	EmbeddingModel string `yaml:"embedding_model"`
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// Session TTL in seconds. Zero means keep forever.
	SessionTTLSeconds int `yaml:"session_ttl_seconds"`
}

type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

type StageConfig struct {
	Name    string `yaml:"name"`
	Enabled bool   `yaml:"enabled"`
}

// Parameters are the reasoning defaults; operational parameters on a query
// may override the per-query ones.
type Parameters struct {
	InitialConfidence          []float64 `yaml:"initial_confidence"`
	DimensionConfidence        []float64 `yaml:"dimension_confidence"`
	HypothesisConfidence       []float64 `yaml:"hypothesis_confidence"`
	HypothesesPerDimensionMin  int       `yaml:"hypotheses_per_dimension_min"`
	HypothesesPerDimensionMax  int       `yaml:"hypotheses_per_dimension_max"`
	EvidenceMaxIterations      int       `yaml:"evidence_max_iterations"`
	IBNSimilarityThreshold     float64   `yaml:"ibn_similarity_threshold"`
	MinNodesForHyperedge       int       `yaml:"min_nodes_for_hyperedge"`
	PruningConfidenceThreshold float64   `yaml:"pruning_confidence_threshold"`
	PruningImpactThreshold     float64   `yaml:"pruning_impact_threshold"`
	SubgraphMinConfidence      float64   `yaml:"subgraph_min_confidence"`
	SubgraphMinImpact          float64   `yaml:"subgraph_min_impact"`
	DefaultDisciplinaryTags    []string  `yaml:"default_disciplinary_tags"`
	DefaultDimensions          []string  `yaml:"default_decomposition_dimensions"`
	DefaultPlanTypes           []string  `yaml:"default_plan_types"`
	Layers                     []string  `yaml:"layers"`
}

type Config struct {
	App        AppConfig     `yaml:"app"`
	Neo4j      Neo4jConfig   `yaml:"neo4j"`
	LLM        LLMConfig     `yaml:"llm"`
	Redis      RedisConfig   `yaml:"redis"`
	NATS       NATSConfig    `yaml:"nats"`
	Stages     []StageConfig `yaml:"stages"`
	Parameters Parameters    `yaml:"parameters"`
}

// Load reads settings from a YAML file, fills in defaults for anything the
// file leaves out and applies environment overrides last.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.fillDefaults()
	cfg.applyEnv()
	return cfg, nil
}

// Default returns a config usable without any settings file.
func Default() *Config {
	cfg := &Config{
		App: AppConfig{Host: "0.0.0.0", Port: "8000", LogLevel: "info"},
		Neo4j: Neo4jConfig{
			URI:      "bolt://localhost:7687",
			User:     "neo4j",
			Database: "neo4j",
		},
		NATS: NATSConfig{Subject: "nexusmind.stage"},
	}
	cfg.fillDefaults()
	return cfg
}

func (c *Config) fillDefaults() {
	p := &c.Parameters
	if len(p.InitialConfidence) == 0 {
		p.InitialConfidence = []float64{0.9, 0.9, 0.9, 0.9}
	}
	if len(p.DimensionConfidence) == 0 {
		p.DimensionConfidence = []float64{0.8, 0.8, 0.8, 0.8}
	}
	if len(p.HypothesisConfidence) == 0 {
		p.HypothesisConfidence = []float64{0.5, 0.5, 0.5, 0.5}
	}
	if p.HypothesesPerDimensionMin == 0 {
		p.HypothesesPerDimensionMin = 2
	}
	if p.HypothesesPerDimensionMax == 0 {
		p.HypothesesPerDimensionMax = 4
	}
	if p.EvidenceMaxIterations == 0 {
		p.EvidenceMaxIterations = 5
	}
	if p.IBNSimilarityThreshold == 0 {
		p.IBNSimilarityThreshold = 0.5
	}
	if p.MinNodesForHyperedge == 0 {
		p.MinNodesForHyperedge = 2
	}
	if p.PruningConfidenceThreshold == 0 {
		p.PruningConfidenceThreshold = 0.2
	}
	if p.PruningImpactThreshold == 0 {
		p.PruningImpactThreshold = 0.3
	}
	if p.SubgraphMinConfidence == 0 {
		p.SubgraphMinConfidence = 0.6
	}
	if p.SubgraphMinImpact == 0 {
		p.SubgraphMinImpact = 0.5
	}
	if len(p.DefaultDisciplinaryTags) == 0 {
		p.DefaultDisciplinaryTags = []string{"general_science"}
	}
	if len(p.DefaultDimensions) == 0 {
		p.DefaultDimensions = []string{
			"Scope", "Objectives", "Constraints", "Data Needs",
			"Use Cases", "Potential Biases", "Knowledge Gaps",
		}
	}
	if len(p.DefaultPlanTypes) == 0 {
		p.DefaultPlanTypes = []string{
			"literature_review", "simulation", "data_analysis", "experiment_design",
		}
	}
	if len(p.Layers) == 0 {
		p.Layers = []string{"root_layer", "decomposition_layer", "hypothesis_layer", "evidence_layer"}
	}
	if len(c.Stages) == 0 {
		for _, name := range []string{
			"InitializationStage", "DecompositionStage", "HypothesisStage",
			"EvidenceStage", "PruningMergingStage", "SubgraphExtractionStage",
			"CompositionStage", "ReflectionStage",
		} {
			c.Stages = append(c.Stages, StageConfig{Name: name, Enabled: true})
		}
	}
}

func (c *Config) applyEnv() {
	setFromEnv(&c.App.Host, "HOST")
	setFromEnv(&c.App.Port, "PORT")
	setFromEnv(&c.App.LogLevel, "LOG_LEVEL")
	setFromEnv(&c.Neo4j.URI, "NEO4J_URI")
	setFromEnv(&c.Neo4j.User, "NEO4J_USER")
	setFromEnv(&c.Neo4j.Password, "NEO4J_PASSWORD")
	setFromEnv(&c.Neo4j.Database, "NEO4J_DATABASE")
	setFromEnv(&c.LLM.Provider, "LLM_PROVIDER")
	setFromEnv(&c.LLM.Model, "LLM_MODEL")
	setFromEnv(&c.LLM.EmbeddingModel, "LLM_EMBEDDING_MODEL")
	setFromEnv(&c.LLM.APIKey, "LLM_API_KEY")
	setFromEnv(&c.LLM.BaseURL, "LLM_BASE_URL")
	setFromEnv(&c.Redis.Addr, "REDIS_ADDR")
	setFromEnv(&c.Redis.Password, "REDIS_PASSWORD")
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = db
		}
	}
	setFromEnv(&c.NATS.URL, "NATS_URL")
	setFromEnv(&c.NATS.Subject, "NATS_SUBJECT")
}

func setFromEnv(dest *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dest = v
	}
}

// StageEnabled reports whether the named stage is switched on. Stages
// missing from the list default to enabled.
func (c *Config) StageEnabled(name string) bool {
	for _, s := range c.Stages {
		if s.Name == name {
			return s.Enabled
		}
	}
	return true
}
