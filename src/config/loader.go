package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/adrg/xdg"

	"github.com/elee1766/lenschat/src/registry"
)

const appName = "lenschat"

// nativeKeyEnv lists the provider-native API key variables honoured when no
// prefixed variable is set.
var nativeKeyEnv = map[string][]string{
	registry.ProviderOpenAI:     {"OPENAI_API_KEY"},
	registry.ProviderAnthropic:  {"ANTHROPIC_API_KEY"},
	registry.ProviderGoogle:     {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	registry.ProviderCohere:     {"COHERE_API_KEY", "CO_API_KEY"},
	registry.ProviderOpenRouter: {"OPENROUTER_API_KEY"},
}

// Loader handles loading and merging configurations from multiple sources
type Loader struct {
	precedence ConfigPrecedence
	validator  *Validator
}

// NewLoader creates a new configuration loader
func NewLoader(precedence ConfigPrecedence) *Loader {
	return &Loader{
		precedence: precedence,
		validator:  NewValidator(),
	}
}

// Load loads configuration from all sources and merges them
func (l *Loader) Load() (*Config, error) {
	config := DefaultConfig()

	sources := []struct {
		path   string
		source ConfigSource
	}{
		{l.precedence.SystemConfig, SourceSystem},
		{l.precedence.UserConfig, SourceUser},
		{l.precedence.ProjectConfig, SourceProject},
	}

	for _, src := range sources {
		if src.path == "" {
			continue
		}

		if cfg, err := l.loadFile(src.path); err == nil {
			config = l.mergeConfigs(config, cfg)
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load %s config from %s: %w", src.source, src.path, err)
		}
	}

	if l.precedence.EnvironmentPrefix != "" {
		l.applyEnvironmentOverrides(config)
	}

	if err := l.validator.Validate(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// loadFile loads a single configuration file
func (l *Loader) loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	return &config, nil
}

// SaveFile saves configuration to a file
func (l *Loader) SaveFile(config *Config, path string) error {
	if err := l.validator.Validate(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// the file holds API keys
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// mergeConfigs merges two configurations with the second taking precedence
func (l *Loader) mergeConfigs(base, override *Config) *Config {
	result := *base

	if override.Version != "" {
		result.Version = override.Version
	}
	if override.SystemPrompt != "" {
		result.SystemPrompt = override.SystemPrompt
	}

	// Merge context settings
	if override.Context.MaxContextMessages != nil {
		result.Context.MaxContextMessages = ptr(*override.Context.MaxContextMessages)
	}
	if override.Context.MaxContextImages != nil {
		result.Context.MaxContextImages = ptr(*override.Context.MaxContextImages)
	}
	if override.Context.IncludeSystemPrompt != nil {
		include := *override.Context.IncludeSystemPrompt
		result.Context.IncludeSystemPrompt = &include
	}
	if override.Context.Strategy != "" {
		result.Context.Strategy = override.Context.Strategy
	}

	// Merge providers
	result.Providers = make(map[string]ProviderConfig, len(base.Providers)+len(override.Providers))
	for k, v := range base.Providers {
		result.Providers[k] = v
	}
	for k, v := range override.Providers {
		result.Providers[k] = l.mergeProvider(result.Providers[k], v)
	}

	// Models merge by id so that a file can retune a default model
	result.Models = append(result.Models[:0:0], base.Models...)
	for _, m := range override.Models {
		m = withModelDefaults(m)
		replaced := false
		for i := range result.Models {
			if result.Models[i].ID == m.ID {
				result.Models[i] = m
				replaced = true
				break
			}
		}
		if !replaced {
			result.Models = append(result.Models, m)
		}
	}
	if override.DefaultModel != "" {
		result.DefaultModel = override.DefaultModel
	}
	if len(override.Modes) > 0 {
		result.Modes = override.Modes
	}

	// Merge OpenRouter
	if override.OpenRouter.SiteURL != "" {
		result.OpenRouter.SiteURL = override.OpenRouter.SiteURL
	}
	if override.OpenRouter.SiteName != "" {
		result.OpenRouter.SiteName = override.OpenRouter.SiteName
	}
	if override.OpenRouter.RemoteCatalog {
		result.OpenRouter.RemoteCatalog = true
	}
	if override.OpenRouter.CacheTTL != 0 {
		result.OpenRouter.CacheTTL = override.OpenRouter.CacheTTL
	}

	// Merge Logging
	if override.Logging.Level != "" {
		result.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		result.Logging.Format = override.Logging.Format
	}
	if override.Logging.File != "" {
		result.Logging.File = override.Logging.File
	}

	// Merge Data
	if override.Data.Directory != "" {
		result.Data.Directory = override.Data.Directory
	}
	if override.Data.VaultDirectory != "" {
		result.Data.VaultDirectory = override.Data.VaultDirectory
	}
	if override.Data.Persist != nil {
		result.Data.Persist = ptr(*override.Data.Persist)
	}

	if override.RateLimit.RequestsPerMinute != 0 {
		result.RateLimit.RequestsPerMinute = override.RateLimit.RequestsPerMinute
	}
	if override.RateLimit.BurstSize != 0 {
		result.RateLimit.BurstSize = override.RateLimit.BurstSize
	}
	if override.Timeout != 0 {
		result.Timeout = override.Timeout
	}

	return &result
}

// mergeProvider merges provider credentials
func (l *Loader) mergeProvider(base, override ProviderConfig) ProviderConfig {
	result := base

	if override.APIKey != "" {
		result.APIKey = override.APIKey
		result.Verified = override.Verified
	}
	if override.BaseURL != "" {
		result.BaseURL = override.BaseURL
	}
	if override.APIPath != "" {
		result.APIPath = override.APIPath
	}
	if override.Verified {
		result.Verified = true
	}

	return result
}

// applyEnvironmentOverrides applies environment variable overrides to config.
// A key supplied through the environment counts as verified.
func (l *Loader) applyEnvironmentOverrides(config *Config) {
	prefix := l.precedence.EnvironmentPrefix

	if config.Providers == nil {
		config.Providers = make(map[string]ProviderConfig)
	}
	for _, id := range registry.ProviderIDs() {
		envID := strings.ToUpper(id)
		pc := config.Providers[id]

		keyVars := append([]string{prefix + "_" + envID + "_API_KEY"}, nativeKeyEnv[id]...)
		for _, name := range keyVars {
			if key := os.Getenv(name); key != "" {
				pc.APIKey = key
				pc.Verified = true
				break
			}
		}
		if baseURL := os.Getenv(prefix + "_" + envID + "_BASE_URL"); baseURL != "" {
			pc.BaseURL = baseURL
		}

		if pc != (ProviderConfig{}) {
			config.Providers[id] = pc
		}
	}

	if model := os.Getenv(prefix + "_MODEL"); model != "" {
		config.DefaultModel = model
	}
	if prompt := os.Getenv(prefix + "_SYSTEM_PROMPT"); prompt != "" {
		config.SystemPrompt = prompt
	}
	if strategy := os.Getenv(prefix + "_CONTEXT_STRATEGY"); strategy != "" {
		config.Context.Strategy = strategy
	}
	if level := os.Getenv(prefix + "_LOG_LEVEL"); level != "" {
		config.Logging.Level = strings.ToLower(level)
	}
	if dir := os.Getenv(prefix + "_VAULT"); dir != "" {
		config.Data.VaultDirectory = dir
	}
}

// GetConfigPaths returns the configuration file paths to check
func GetConfigPaths() ConfigPrecedence {
	userConfigPath := filepath.Join(xdg.ConfigHome, appName, "config.json")

	systemConfigPath := filepath.Join("/etc", appName, "config.json")
	if runtime.GOOS == "windows" {
		systemConfigPath = filepath.Join(os.Getenv("PROGRAMDATA"), appName, "config.json")
	}

	projectConfigPath, err := FindProjectConfig("")
	if err != nil {
		projectConfigPath = filepath.Join("."+appName, "config.json")
	}

	return ConfigPrecedence{
		SystemConfig:      systemConfigPath,
		UserConfig:        userConfigPath,
		ProjectConfig:     projectConfigPath,
		EnvironmentPrefix: "LENSCHAT",
	}
}

// FindProjectConfig walks up from startDir looking for .lenschat/config.json.
// The search stops at the home directory.
func FindProjectConfig(startDir string) (string, error) {
	if startDir == "" {
		var err error
		startDir, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
	}

	home, _ := os.UserHomeDir()
	currentDir := startDir
	for {
		configPath := filepath.Join(currentDir, "."+appName, "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir || currentDir == home {
			break
		}
		currentDir = parentDir
	}

	return "", fmt.Errorf("no project configuration found")
}

// FindConfigFile returns the highest-precedence configuration file that exists
func FindConfigFile() (string, error) {
	paths := GetConfigPaths()

	for _, path := range []string{paths.ProjectConfig, paths.UserConfig, paths.SystemConfig} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no configuration file found")
}
