package config

import (
	"time"

	"github.com/elee1766/lenschat/src/aisdk"
)

// Config represents the complete configuration for lenschat
type Config struct {
	// Version of the configuration format
	Version string `json:"version"`

	// SystemPrompt is the global system prompt sent at the head of every context
	SystemPrompt string `json:"system_prompt,omitempty"`

	// Context selection settings
	Context ContextConfig `json:"context"`

	// Providers holds credentials keyed by provider id
	Providers map[string]ProviderConfig `json:"providers,omitempty" validate:"dive,keys,provider,endkeys"`

	// Models are the configured model entries
	Models []aisdk.ModelConfig `json:"models,omitempty" validate:"dive"`

	// DefaultModel is the id of the model selected at startup
	DefaultModel string `json:"default_model,omitempty"`

	// Modes are user-defined modes added to the built-in ones
	Modes []ModeConfig `json:"modes,omitempty" validate:"dive"`

	// OpenRouter specific settings
	OpenRouter OpenRouterConfig `json:"openrouter,omitempty"`

	// Logging configuration
	Logging LoggingConfig `json:"logging,omitempty"`

	// Data directory configuration
	Data DataConfig `json:"data,omitempty"`

	// RateLimit paces outbound provider requests
	RateLimit RateLimitConfig `json:"rate_limit,omitempty"`

	// Timeout for provider requests
	Timeout time.Duration `json:"timeout,omitempty" validate:"min=0"`
}

// ContextConfig controls how much history enters a request
type ContextConfig struct {
	// The limits are pointers so that an explicit 0 survives merging
	MaxContextMessages *int `json:"max_context_messages,omitempty" validate:"omitempty,min=0"`
	MaxContextImages   *int `json:"max_context_images,omitempty" validate:"omitempty,min=0"`

	// IncludeSystemPrompt is a pointer so that an explicit false survives merging
	IncludeSystemPrompt *bool `json:"include_system_prompt,omitempty"`

	// Strategy is "recent" or "smart"
	Strategy string `json:"context_strategy,omitempty" validate:"context_strategy"`
}

// SystemPromptEnabled reports whether the system prompt is sent.
func (c ContextConfig) SystemPromptEnabled() bool {
	return c.IncludeSystemPrompt == nil || *c.IncludeSystemPrompt
}

// MessageLimit returns max_context_messages, or the default when unset.
func (c ContextConfig) MessageLimit() int {
	if c.MaxContextMessages == nil {
		return DefaultMaxContextMessages
	}
	return *c.MaxContextMessages
}

// ImageLimit returns max_context_images, or the default when unset.
func (c ContextConfig) ImageLimit() int {
	if c.MaxContextImages == nil {
		return DefaultMaxContextImages
	}
	return *c.MaxContextImages
}

// ProviderConfig defines credentials for a model provider
type ProviderConfig struct {
	// APIKey for the provider
	APIKey string `json:"api_key,omitempty"`

	// BaseURL overrides the provider endpoint
	BaseURL string `json:"base_url,omitempty" validate:"omitempty,url"`

	// APIPath is appended to BaseURL by custom providers
	APIPath string `json:"api_path,omitempty"`

	// Verified is set once the key has been checked against the provider
	Verified bool `json:"verified"`
}

// ModeConfig defines a user mode
type ModeConfig struct {
	ID            string `json:"id" validate:"required"`
	Name          string `json:"name,omitempty"`
	Prompt        string `json:"prompt"`
	ImageOriented bool   `json:"image_oriented,omitempty"`
}

// OpenRouterConfig holds the OpenRouter ranking headers and model list settings
type OpenRouterConfig struct {
	SiteURL  string `json:"site_url,omitempty" validate:"omitempty,url"`
	SiteName string `json:"site_name,omitempty"`

	// RemoteCatalog enables fetching the OpenRouter model list
	RemoteCatalog bool          `json:"remote_catalog"`
	CacheTTL      time.Duration `json:"cache_ttl,omitempty" validate:"min=0"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level string `json:"level,omitempty" validate:"log_level"`

	// Format is the output format (text, json)
	Format string `json:"format,omitempty" validate:"log_format"`

	// File is an optional log file path
	File string `json:"file,omitempty"`
}

// DataConfig defines data directory configuration
type DataConfig struct {
	// Directory where application data is stored
	Directory string `json:"directory,omitempty"`

	// VaultDirectory is where image paths in messages are resolved from
	VaultDirectory string `json:"vault_directory,omitempty"`

	// Persist enables saving conversations to the database. Unset means enabled.
	Persist *bool `json:"persist,omitempty"`
}

// PersistEnabled reports whether conversations are saved.
func (d DataConfig) PersistEnabled() bool {
	return d.Persist == nil || *d.Persist
}

// RateLimitConfig defines rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `json:"requests_per_minute" validate:"min=0"`
	BurstSize         int `json:"burst_size" validate:"min=0"`
}

// ConfigPrecedence defines the order of configuration loading
type ConfigPrecedence struct {
	// SystemConfig path
	SystemConfig string

	// UserConfig path
	UserConfig string

	// ProjectConfig path
	ProjectConfig string

	// EnvironmentPrefix for env var overrides
	EnvironmentPrefix string
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ConfigSource indicates where a configuration value came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceSystem      ConfigSource = "system"
	SourceUser        ConfigSource = "user"
	SourceProject     ConfigSource = "project"
	SourceEnvironment ConfigSource = "environment"
)
