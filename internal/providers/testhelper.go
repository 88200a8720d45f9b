package providers

import (
	"os"
)

// TestConfig holds provider API keys loaded from environment variables, so
// live tests use the same configuration path as production.
type TestConfig struct {
	OpenAIAPIKey     string
	OpenRouterAPIKey string
	GeminiAPIKey     string
}

// LoadTestConfig loads provider API keys from environment variables.
func LoadTestConfig() TestConfig {
	return TestConfig{
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenRouterAPIKey: os.Getenv("OPENROUTER_API_KEY"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
	}
}

// HasAnyLLM returns true if any LLM provider is configured.
func (c TestConfig) HasAnyLLM() bool {
	return c.OpenAIAPIKey != "" || c.OpenRouterAPIKey != "" || c.GeminiAPIKey != ""
}

// ToRegistryConfig converts test config to a RegistryConfig. Only providers
// with API keys are included.
func (c TestConfig) ToRegistryConfig() RegistryConfig {
	cfg := RegistryConfig{
		LLMProviders: make(map[string]LLMProviderConfig),
	}
	add := func(name, key string) {
		if key == "" {
			return
		}
		cfg.LLMProviders[name] = LLMProviderConfig{
			Type:      name,
			APIKey:    key,
			RateLimit: 1,
			Enabled:   true,
		}
	}
	add(OpenAIName, c.OpenAIAPIKey)
	add(OpenRouterName, c.OpenRouterAPIKey)
	add(GeminiName, c.GeminiAPIKey)
	return cfg
}
