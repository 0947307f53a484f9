// Package config loads and validates research pipeline configuration.
// Config is read from .pesquisa/config.json or .pesquisa/config.yaml inside
// the workspace; environment variables override API keys so secrets stay out
// of the file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all pipeline configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name" json:"name"`
	Version string `yaml:"version" json:"version"`

	// Search pipeline configuration
	Search SearchConfig `yaml:"search" json:"search"`

	// LLM gateway configuration (translation, deep analysis)
	LLM LLMConfig `yaml:"llm" json:"llm"`

	// Worker pool and rate limits
	Limits LimitsConfig `yaml:"limits" json:"limits"`

	// RAG / embedding / vector store
	RAG RAGConfig `yaml:"rag" json:"rag"`

	// Persistence
	DatabasePath string `yaml:"database_path" json:"database_path"`

	// Logging
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// LoggingConfig configures the category file logger.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode" json:"debug_mode"`
	Categories map[string]bool `yaml:"categories" json:"categories"`
	Level      string          `yaml:"level" json:"level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "pesquisa",
		Version: "1.0.0",

		Search:       DefaultSearchConfig(),
		LLM:          DefaultLLMConfig(),
		Limits:       DefaultLimitsConfig(),
		RAG:          DefaultRAGConfig(),
		DatabasePath: filepath.Join(".pesquisa", "pesquisa.db"),

		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
	}
}

// Load reads configuration from the workspace, falling back to defaults
// when no config file exists. Env overrides are applied last.
func Load(workspace string) (*Config, error) {
	cfg := DefaultConfig()

	jsonPath := filepath.Join(workspace, ".pesquisa", "config.json")
	yamlPath := filepath.Join(workspace, ".pesquisa", "config.yaml")

	if data, err := os.ReadFile(jsonPath); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", jsonPath, err)
		}
	} else if data, err := os.ReadFile(yamlPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", yamlPath, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as JSON to the workspace.
func (c *Config) Save(workspace string) error {
	dir := filepath.Join(workspace, ".pesquisa")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// applyEnvOverrides pulls API keys and endpoints from the environment.
// Environment always wins over the config file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PESQUISA_LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("PESQUISA_LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("PESQUISA_GENAI_API_KEY"); v != "" {
		c.RAG.GenAIAPIKey = v
	}
	for i := range c.Search.Providers {
		envKey := "PESQUISA_PROVIDER_" + strings.ToUpper(c.Search.Providers[i].Name) + "_API_KEY"
		if v := os.Getenv(envKey); v != "" {
			c.Search.Providers[i].APIKey = v
		}
	}
}

// Validate checks cross-field constraints that would otherwise surface as
// runtime misbehavior deep inside the worker pool.
func (c *Config) Validate() error {
	if c.Search.MinCallsPerQuery < 1 {
		return fmt.Errorf("search.min_calls_per_query must be >= 1, got %d", c.Search.MinCallsPerQuery)
	}
	if c.Search.MaxCallsPerQuery < c.Search.MinCallsPerQuery {
		return fmt.Errorf("search.max_calls_per_query (%d) < min_calls_per_query (%d)",
			c.Search.MaxCallsPerQuery, c.Search.MinCallsPerQuery)
	}
	if c.Search.MinQualityToStop < 0 || c.Search.MinQualityToStop > 1 {
		return fmt.Errorf("search.min_quality_to_stop must be in [0,1], got %f", c.Search.MinQualityToStop)
	}
	if c.Limits.MaxWorkers < 1 {
		return fmt.Errorf("limits.max_workers must be >= 1, got %d", c.Limits.MaxWorkers)
	}
	if c.RAG.DedupJaccardThreshold <= 0 || c.RAG.DedupJaccardThreshold > 1 {
		return fmt.Errorf("rag.dedup_jaccard_threshold must be in (0,1], got %f", c.RAG.DedupJaccardThreshold)
	}
	if len(c.Search.Languages) == 0 {
		return fmt.Errorf("search.languages must not be empty")
	}
	return nil
}
