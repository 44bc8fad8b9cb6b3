package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type DecompositionPrompts struct {
	Dimensions string `toml:"dimensions"`
}

type HypothesisPrompts struct {
	Generate string `toml:"generate"`
}

type EvidencePrompts struct {
	Gather string `toml:"gather"`
}

type CompositionPrompts struct {
	ExecutiveSummary string `toml:"executive_summary"`
	SectionSummary   string `toml:"section_summary"`
}

// Prompts holds the LLM prompt templates, kept out of settings so they can
// be tuned without touching deployment config. Each template is a
// fmt.Sprintf format string.
type Prompts struct {
	Decomposition DecompositionPrompts `toml:"decomposition"`
	Hypothesis    HypothesisPrompts    `toml:"hypothesis"`
	Evidence      EvidencePrompts      `toml:"evidence"`
	Composition   CompositionPrompts   `toml:"composition"`
}

func LoadPrompts(path string) (*Prompts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file '%s': %w", path, err)
	}

	var p Prompts
	if err := toml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	return &p, nil
}
