package config

import (
	"github.com/jackzampolin/courseforge/internal/course"
	"github.com/jackzampolin/courseforge/internal/generation"
	"github.com/jackzampolin/courseforge/internal/metrics"
)

// Config holds courseforge configuration.
// Stored at: {home}/config.yaml
type Config struct {
	LLMProviders map[string]LLMProviderCfg `mapstructure:"llm_providers" yaml:"llm_providers"`
	Defaults     DefaultsCfg               `mapstructure:"defaults" yaml:"defaults"`
	Generation   GenerationCfg             `mapstructure:"generation" yaml:"generation"`
	Prompts      []PromptOverride          `mapstructure:"prompts" yaml:"prompts,omitempty"`
	Server       ServerCfg                 `mapstructure:"server" yaml:"server"`
	LogLevel     string                    `mapstructure:"log_level" yaml:"log_level"`
}

// LLMProviderCfg configures an LLM provider.
type LLMProviderCfg struct {
	Type      string  `mapstructure:"type" yaml:"type"`                   // "openai", "openrouter", "gemini"
	Model     string  `mapstructure:"model" yaml:"model"`                 // Model name
	APIKey    string  `mapstructure:"api_key" yaml:"api_key"`             // API key (supports ${ENV_VAR} syntax)
	BaseURL   string  `mapstructure:"base_url" yaml:"base_url,omitempty"` // Optional endpoint override
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`       // Requests per second
	Enabled   bool    `mapstructure:"enabled" yaml:"enabled"`
}

// PromptOverride replaces the template of an embedded prompt. Overrides are a
// list because prompt keys contain dots, which viper treats as nesting.
type PromptOverride struct {
	Key  string `mapstructure:"key" yaml:"key"`
	Text string `mapstructure:"text" yaml:"text"`
}

// DefaultsCfg specifies default provider selections.
type DefaultsCfg struct {
	LLMProvider string `mapstructure:"llm_provider" yaml:"llm_provider"` // Provider used for every course call
}

// GenerationCfg controls the course domain, validation thresholds and
// sampling parameters.
type GenerationCfg struct {
	Domain         string `mapstructure:"domain" yaml:"domain"`
	DomainExamples string `mapstructure:"domain_examples" yaml:"domain_examples"`
	ClassifierKey  string `mapstructure:"classifier_key" yaml:"classifier_key"` // JSON key of the classifier verdict
	Model          string `mapstructure:"model" yaml:"model,omitempty"`         // Overrides the provider model

	MinWords          int  `mapstructure:"min_words" yaml:"min_words"`
	MaxWords          int  `mapstructure:"max_words" yaml:"max_words"`
	MinParagraphWords int  `mapstructure:"min_paragraph_words" yaml:"min_paragraph_words"`
	MaxParagraphWords int  `mapstructure:"max_paragraph_words" yaml:"max_paragraph_words"`
	TargetWords       int  `mapstructure:"target_words" yaml:"target_words"`
	MaxRetries        int  `mapstructure:"max_retries" yaml:"max_retries"`
	StrictStructure   bool `mapstructure:"strict_structure" yaml:"strict_structure"`

	MinSections          int `mapstructure:"min_sections" yaml:"min_sections"`
	MaxSections          int `mapstructure:"max_sections" yaml:"max_sections"`
	ParagraphsPerSection int `mapstructure:"paragraphs_per_section" yaml:"paragraphs_per_section"`

	Classify generation.CallSettings `mapstructure:"classify" yaml:"classify"`
	Generate generation.CallSettings `mapstructure:"generate" yaml:"generate"`
	Expand   generation.CallSettings `mapstructure:"expand" yaml:"expand"`
}

// ServerCfg configures the HTTP server.
type ServerCfg struct {
	Host            string   `mapstructure:"host" yaml:"host"`
	Port            string   `mapstructure:"port" yaml:"port"`
	CORSOrigins     []string `mapstructure:"cors_origins" yaml:"cors_origins"`
	MetricsCapacity int      `mapstructure:"metrics_capacity" yaml:"metrics_capacity"` // Model calls kept for /metrics
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	settings := generation.DefaultSettings()
	return &Config{
		LLMProviders: map[string]LLMProviderCfg{
			"openai": {
				Type:      "openai",
				Model:     "gpt-4o-mini",
				APIKey:    "${OPENAI_API_KEY}",
				RateLimit: 5,
				Enabled:   true,
			},
			"openrouter": {
				Type:      "openrouter",
				Model:     "openai/gpt-4o-mini",
				APIKey:    "${OPENROUTER_API_KEY}",
				RateLimit: 5,
				Enabled:   false,
			},
			"gemini": {
				Type:      "gemini",
				Model:     "gemini-1.5-flash",
				APIKey:    "${GEMINI_API_KEY}",
				RateLimit: 0.25,
				Enabled:   false,
			},
		},
		Defaults: DefaultsCfg{
			LLMProvider: "openai",
		},
		Generation: GenerationCfg{
			Domain:               settings.Domain,
			DomainExamples:       settings.DomainExamples,
			ClassifierKey:        settings.ClassifierKey,
			MinWords:             settings.Thresholds.MinWords,
			MaxWords:             settings.MaxWords,
			MinParagraphWords:    settings.Thresholds.MinParagraphWords,
			MaxParagraphWords:    settings.MaxParagraphWords,
			TargetWords:          settings.TargetWords,
			MaxRetries:           settings.MaxRetries,
			MinSections:          settings.Structure.MinSections,
			MaxSections:          settings.Structure.MaxSections,
			ParagraphsPerSection: settings.Structure.ParagraphsPerSection,
			Classify:             settings.Classify,
			Generate:             settings.Generate,
			Expand:               settings.Expand,
		},
		Server: ServerCfg{
			Host:            "127.0.0.1",
			Port:            "5000",
			CORSOrigins:     []string{"*"},
			MetricsCapacity: metrics.DefaultCapacity,
		},
		LogLevel: "info",
	}
}

// GetLLMProvider returns an LLM provider config by name.
func (c *Config) GetLLMProvider(name string) (LLMProviderCfg, bool) {
	cfg, ok := c.LLMProviders[name]
	return cfg, ok
}

// EnabledLLMProviders returns all enabled LLM providers.
func (c *Config) EnabledLLMProviders() map[string]LLMProviderCfg {
	result := make(map[string]LLMProviderCfg)
	for name, cfg := range c.LLMProviders {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}

// PromptOverrides returns the configured overrides keyed by prompt key.
func (c *Config) PromptOverrides() map[string]string {
	out := make(map[string]string, len(c.Prompts))
	for _, p := range c.Prompts {
		out[p.Key] = p.Text
	}
	return out
}

// ToGenerationSettings converts the generation section into settings for the
// course pipeline.
func (c *Config) ToGenerationSettings() generation.Settings {
	g := c.Generation
	return generation.Settings{
		Domain:         g.Domain,
		DomainExamples: g.DomainExamples,
		ClassifierKey:  g.ClassifierKey,
		Model:          g.Model,
		Thresholds: course.Thresholds{
			MinWords:          g.MinWords,
			MinParagraphWords: g.MinParagraphWords,
		},
		Structure: course.Structure{
			MinSections:          g.MinSections,
			MaxSections:          g.MaxSections,
			ParagraphsPerSection: g.ParagraphsPerSection,
		},
		MaxWords:          g.MaxWords,
		MaxParagraphWords: g.MaxParagraphWords,
		TargetWords:       g.TargetWords,
		MaxRetries:        g.MaxRetries,
		StrictStructure:   g.StrictStructure,
		Classify:          g.Classify,
		Generate:          g.Generate,
		Expand:            g.Expand,
	}
}
