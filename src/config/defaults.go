package config

import (
	"time"

	"github.com/elee1766/lenschat/src/aisdk"
	"github.com/elee1766/lenschat/src/assembler"
	"github.com/elee1766/lenschat/src/registry"
)

const (
	DefaultMaxContextMessages = 10
	DefaultMaxContextImages   = 3

	// DefaultMaxTokens is the output limit of models configured without one.
	DefaultMaxTokens = 4096
)

// DefaultConfig returns a default configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Version:      "1.0",
		SystemPrompt: assembler.DefaultSystemPrompt,
		Context: ContextConfig{
			MaxContextMessages: ptr(DefaultMaxContextMessages),
			MaxContextImages:   ptr(DefaultMaxContextImages),
			Strategy:           string(assembler.StrategySmart),
		},
		Providers:    map[string]ProviderConfig{},
		Models:       DefaultModels(),
		DefaultModel: "gpt-4o",
		OpenRouter: OpenRouterConfig{
			SiteName: "lenschat",
			CacheTTL: time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
		Data: DataConfig{
			Persist: ptr(true),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			BurstSize:         5,
		},
		Timeout: 120 * time.Second,
	}
}

// DefaultModels returns one model entry per catalog model of the major providers.
func DefaultModels() []aisdk.ModelConfig {
	pick := []struct {
		provider string
		model    string
	}{
		{registry.ProviderOpenAI, "gpt-4o"},
		{registry.ProviderOpenAI, "gpt-4o-mini"},
		{registry.ProviderAnthropic, "claude-3-5-sonnet-20241022"},
		{registry.ProviderGoogle, "gemini-1.5-flash"},
		{registry.ProviderCohere, "command-r-plus"},
	}

	models := make([]aisdk.ModelConfig, 0, len(pick))
	for _, p := range pick {
		info, ok := registry.LookupModel(p.provider, p.model)
		if !ok {
			continue
		}
		models = append(models, aisdk.ModelConfig{
			ID:              info.ID,
			Name:            info.Name,
			ProviderID:      p.provider,
			ModelID:         info.ID,
			IsVisionCapable: info.HasVision,
			Settings: aisdk.ModelSettings{
				MaxTokens:   DefaultMaxTokens,
				Temperature: 0.7,
			},
		})
	}
	return models
}

// MergeWithDefaults merges a partial configuration with defaults
func MergeWithDefaults(partial *Config) *Config {
	defaults := DefaultConfig()
	loader := &Loader{}
	return loader.mergeConfigs(defaults, partial)
}

// withModelDefaults fills settings a configured model left unset. An unset
// max_tokens would otherwise let the budget request the whole context window,
// which providers reject above their output limit.
func withModelDefaults(m aisdk.ModelConfig) aisdk.ModelConfig {
	if m.Settings.MaxTokens == 0 {
		m.Settings.MaxTokens = DefaultMaxTokens
	}
	return m
}

func ptr[T any](v T) *T {
	return &v
}
