package config

// ProviderConfig identifies one search provider in the ordered chain.
type ProviderConfig struct {
	Name    string `yaml:"name" json:"name"`
	Enabled bool   `yaml:"enabled" json:"enabled"`
	APIKey  string `yaml:"api_key,omitempty" json:"api_key,omitempty"`
}

// TestModeConfig caps how many queue items populate creates, so a full
// catalog can be exercised cheaply during development.
type TestModeConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	Limit   int  `yaml:"limit" json:"limit"`
}

// SearchConfig configures query generation and the adaptive search loop.
type SearchConfig struct {
	// Ordered target language codes. The first entry is the canonical
	// language results are translated into.
	Languages []string `yaml:"languages" json:"languages"`

	// Ordered provider chain. Order matters: the adaptive executor walks
	// providers in this order and the populate phase rotates assignments
	// round-robin through it.
	Providers []ProviderConfig `yaml:"providers" json:"providers"`

	// Adaptive search loop knobs
	AdaptiveSearchEnabled bool    `yaml:"adaptive_search_enabled" json:"adaptive_search_enabled"`
	MinCallsPerQuery      int     `yaml:"min_calls_per_query" json:"min_calls_per_query"`
	MaxCallsPerQuery      int     `yaml:"max_calls_per_query" json:"max_calls_per_query"`
	MinQualityToStop      float64 `yaml:"min_quality_to_stop" json:"min_quality_to_stop"`

	// Max results requested per provider call and snippet truncation cap
	MaxResultsPerCall int `yaml:"max_results_per_call" json:"max_results_per_call"`
	DescriptionCap    int `yaml:"description_cap" json:"description_cap"`

	// Per-provider trust weights used by the scorer; unknown providers
	// fall back to the scorer's default weight.
	ProviderTrustWeights map[string]float64 `yaml:"provider_trust_weights" json:"provider_trust_weights"`

	TestMode TestModeConfig `yaml:"test_mode" json:"test_mode"`
}

// DefaultSearchConfig returns the default search configuration.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		Languages: []string{"pt", "en", "es"},
		Providers: []ProviderConfig{
			{Name: "serper", Enabled: true},
			{Name: "brave", Enabled: true},
			{Name: "tavily", Enabled: true},
			{Name: "duckduckgo", Enabled: true},
		},
		AdaptiveSearchEnabled: true,
		MinCallsPerQuery:      2,
		MaxCallsPerQuery:      5,
		MinQualityToStop:      0.75,
		MaxResultsPerCall:     10,
		DescriptionCap:        500,
		ProviderTrustWeights: map[string]float64{
			"serper":     0.90,
			"brave":      0.80,
			"tavily":     0.75,
			"duckduckgo": 0.50,
		},
		TestMode: TestModeConfig{Enabled: false, Limit: 20},
	}
}

// EnabledProviders returns the names of enabled providers in chain order.
func (s SearchConfig) EnabledProviders() []string {
	names := make([]string, 0, len(s.Providers))
	for _, p := range s.Providers {
		if p.Enabled {
			names = append(names, p.Name)
		}
	}
	return names
}
