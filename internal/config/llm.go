package config

import "time"

// LLMConfig configures the chat-completion gateway used for translation and
// deep analysis. Model identifiers are opaque strings grouped into tiers;
// the gateway tries models within a tier in order until one answers.
type LLMConfig struct {
	BaseURL string `yaml:"base_url" json:"base_url"`
	APIKey  string `yaml:"api_key,omitempty" json:"api_key,omitempty"`

	// Free/cheap models tried in order for routine translation.
	TranslationModelsFree []string `yaml:"translation_models_free" json:"translation_models_free"`

	// Premium models used only when the caller requests deep analysis.
	TranslationModelsPremium []string `yaml:"translation_models_premium" json:"translation_models_premium"`

	Temperature float64 `yaml:"temperature" json:"temperature"`
	MaxTokens   int     `yaml:"max_tokens" json:"max_tokens"`
	Timeout     string  `yaml:"timeout" json:"timeout"`
}

// DefaultLLMConfig returns the default gateway configuration.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		BaseURL: "https://openrouter.ai/api/v1",
		TranslationModelsFree: []string{
			"meta-llama/llama-3.3-70b-instruct:free",
			"google/gemini-2.0-flash-exp:free",
			"mistralai/mistral-small-3.1:free",
		},
		TranslationModelsPremium: []string{
			"anthropic/claude-sonnet-4",
			"openai/gpt-4o",
		},
		Temperature: 0.2,
		MaxTokens:   1024,
		Timeout:     "60s",
	}
}

// TimeoutDuration parses the configured timeout, defaulting to 60s.
func (l LLMConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(l.Timeout)
	if err != nil || d <= 0 {
		return 60 * time.Second
	}
	return d
}
