package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/elee1766/lenschat/src/aisdk"
	"github.com/elee1766/lenschat/src/assembler"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Version != "1.0" {
		t.Errorf("Expected version 1.0, got %s", config.Version)
	}
	if config.Context.MessageLimit() != 10 {
		t.Errorf("Expected 10 context messages, got %d", config.Context.MessageLimit())
	}
	if config.Context.ImageLimit() != 3 {
		t.Errorf("Expected 3 context images, got %d", config.Context.ImageLimit())
	}
	if !config.Data.PersistEnabled() {
		t.Error("Expected persistence to be enabled by default")
	}
	if !config.Context.SystemPromptEnabled() {
		t.Error("Expected system prompt to be enabled by default")
	}
	if config.Context.Strategy != "smart" {
		t.Errorf("Expected smart strategy, got %s", config.Context.Strategy)
	}
	if !hasModel(config, config.DefaultModel) {
		t.Errorf("Default model %q is not among the default models", config.DefaultModel)
	}
	if err := NewValidator().Validate(config); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	validator := NewValidator()

	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name:    "valid config",
			config:  DefaultConfig(),
			wantErr: false,
		},
		{
			name: "invalid strategy",
			config: func() *Config {
				c := DefaultConfig()
				c.Context.Strategy = "oldest"
				return c
			}(),
			wantErr: true,
		},
		{
			name: "negative image limit",
			config: func() *Config {
				c := DefaultConfig()
				c.Context.MaxContextImages = ptr(-1)
				return c
			}(),
			wantErr: true,
		},
		{
			name: "unknown provider key",
			config: func() *Config {
				c := DefaultConfig()
				c.Providers["acme"] = ProviderConfig{APIKey: "k"}
				return c
			}(),
			wantErr: true,
		},
		{
			name: "model with unknown provider",
			config: func() *Config {
				c := DefaultConfig()
				c.Models = append(c.Models, aisdk.ModelConfig{ID: "x", ProviderID: "acme", ModelID: "x"})
				return c
			}(),
			wantErr: true,
		},
		{
			name: "model with invalid temperature",
			config: func() *Config {
				c := DefaultConfig()
				c.Models[0].Settings.Temperature = 3
				return c
			}(),
			wantErr: true,
		},
		{
			name: "missing default model",
			config: func() *Config {
				c := DefaultConfig()
				c.DefaultModel = "nope"
				return c
			}(),
			wantErr: true,
		},
		{
			name: "invalid log format",
			config: func() *Config {
				c := DefaultConfig()
				c.Logging.Format = "xml"
				return c
			}(),
			wantErr: true,
		},
		{
			name: "custom provider with base url",
			config: func() *Config {
				c := DefaultConfig()
				c.Providers["custom"] = ProviderConfig{APIKey: "k", BaseURL: "http://localhost:11434", APIPath: "/v1/chat/completions"}
				return c
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.Validate(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigLoader(t *testing.T) {
	tempDir := t.TempDir()

	userConfig := filepath.Join(tempDir, "user.json")
	projectConfig := filepath.Join(tempDir, "project.json")

	writeFile(t, userConfig, `{
		"system_prompt": "You describe images.",
		"context": {"max_context_images": 5, "include_system_prompt": false},
		"providers": {"openai": {"api_key": "sk-user", "verified": true}},
		"timeout": 60000000000
	}`)
	writeFile(t, projectConfig, `{
		"context": {"context_strategy": "recent"},
		"providers": {"openai": {"base_url": "https://proxy.example.com/v1"}},
		"models": [{"id": "gpt-4o", "provider_id": "openai", "model_id": "gpt-4o", "is_vision_capable": true, "settings": {"max_tokens": 256}}],
		"modes": [{"id": "haiku", "prompt": "Answer in a haiku."}]
	}`)

	loader := NewLoader(ConfigPrecedence{
		UserConfig:    userConfig,
		ProjectConfig: projectConfig,
	})

	config, err := loader.Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.SystemPrompt != "You describe images." {
		t.Errorf("Expected system prompt from user config, got %q", config.SystemPrompt)
	}
	if config.Context.SystemPromptEnabled() {
		t.Error("Expected include_system_prompt=false to survive merging")
	}
	if config.Context.ImageLimit() != 5 {
		t.Errorf("Expected 5 images, got %d", config.Context.ImageLimit())
	}
	if config.Context.MessageLimit() != 10 {
		t.Errorf("Expected default 10 messages, got %d", config.Context.MessageLimit())
	}
	if config.Context.Strategy != "recent" {
		t.Errorf("Expected recent strategy from project config, got %s", config.Context.Strategy)
	}
	if config.Timeout != time.Minute {
		t.Errorf("Expected 1m timeout, got %s", config.Timeout)
	}

	openai := config.Providers["openai"]
	if openai.APIKey != "sk-user" || !openai.Verified {
		t.Errorf("Expected user key to be kept, got %+v", openai)
	}
	if openai.BaseURL != "https://proxy.example.com/v1" {
		t.Errorf("Expected project base url, got %s", openai.BaseURL)
	}

	count := 0
	for _, m := range config.Models {
		if m.ID == "gpt-4o" {
			count++
			if m.Settings.MaxTokens != 256 {
				t.Errorf("Expected project model override, got max_tokens=%d", m.Settings.MaxTokens)
			}
		}
	}
	if count != 1 {
		t.Errorf("Expected gpt-4o exactly once, got %d", count)
	}
	if len(config.Modes) != 1 || config.Modes[0].ID != "haiku" {
		t.Errorf("Expected haiku mode, got %+v", config.Modes)
	}
}

func TestLoaderKeepsExplicitZeroAndFalse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeFile(t, path, `{
		"data": {"persist": false},
		"context": {"max_context_images": 0, "max_context_messages": 0},
		"models": [{"id": "local", "provider_id": "custom", "model_id": "llava"}]
	}`)

	config, err := NewLoader(ConfigPrecedence{UserConfig: path}).Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.Data.PersistEnabled() {
		t.Error("Expected persist=false to survive merging")
	}
	if config.Context.ImageLimit() != 0 {
		t.Errorf("Expected 0 history images, got %d", config.Context.ImageLimit())
	}
	if config.Context.MessageLimit() != 0 {
		t.Errorf("Expected 0 history messages, got %d", config.Context.MessageLimit())
	}

	manager, err := NewManagerWithConfig(config)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	if settings := manager.AssemblerSettings(); settings.MaxContextImages != 0 || settings.MaxContextMessages != 0 {
		t.Errorf("Expected zero limits in assembler settings, got %+v", settings)
	}

	model, err := manager.Model("local")
	if err != nil {
		t.Fatalf("Expected configured model: %v", err)
	}
	if model.Settings.MaxTokens != DefaultMaxTokens {
		t.Errorf("Expected unset max_tokens to default to %d, got %d", DefaultMaxTokens, model.Settings.MaxTokens)
	}
}

func TestUpsertModelDefaultsMaxTokens(t *testing.T) {
	manager, err := NewManagerWithConfig(DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	if err := manager.UpsertModel(aisdk.ModelConfig{ID: "mini", ProviderID: "openai", ModelID: "gpt-4o-mini"}); err != nil {
		t.Fatalf("Failed to upsert model: %v", err)
	}
	model, err := manager.Model("mini")
	if err != nil {
		t.Fatalf("Expected model: %v", err)
	}
	if model.Settings.MaxTokens != DefaultMaxTokens {
		t.Errorf("Expected max_tokens %d, got %d", DefaultMaxTokens, model.Settings.MaxTokens)
	}
}

func TestLoaderRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	writeFile(t, path, `{"context": {"context_strategy": "oldest"}}`)

	_, err := NewLoader(ConfigPrecedence{UserConfig: path}).Load()
	if err == nil {
		t.Fatal("Expected validation error")
	}
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("Expected ValidationError, got %T", err)
	}

	writeFile(t, path, `{not json`)
	if _, err := NewLoader(ConfigPrecedence{UserConfig: path}).Load(); err == nil {
		t.Fatal("Expected parse error")
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("LENSCHAT_ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("OPENAI_API_KEY", "sk-native")
	t.Setenv("LENSCHAT_CUSTOM_BASE_URL", "http://localhost:8080")
	t.Setenv("LENSCHAT_MODEL", "gpt-4o-mini")
	t.Setenv("LENSCHAT_LOG_LEVEL", "DEBUG")

	config, err := NewLoader(ConfigPrecedence{EnvironmentPrefix: "LENSCHAT"}).Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if pc := config.Providers["anthropic"]; pc.APIKey != "sk-ant" || !pc.Verified {
		t.Errorf("Expected prefixed anthropic key, got %+v", pc)
	}
	if pc := config.Providers["openai"]; pc.APIKey != "sk-native" {
		t.Errorf("Expected native openai key, got %+v", pc)
	}
	if pc := config.Providers["custom"]; pc.BaseURL != "http://localhost:8080" || pc.APIKey != "" {
		t.Errorf("Expected custom base url only, got %+v", pc)
	}
	if config.DefaultModel != "gpt-4o-mini" {
		t.Errorf("Expected model override, got %s", config.DefaultModel)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("Expected debug log level, got %s", config.Logging.Level)
	}
}

func TestSaveFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	loader := NewLoader(ConfigPrecedence{UserConfig: path})

	config := DefaultConfig()
	config.Providers["cohere"] = ProviderConfig{APIKey: "co", Verified: true}
	if err := loader.SaveFile(config, path); err != nil {
		t.Fatalf("SaveFile() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected 0600 permissions, got %v", info.Mode().Perm())
	}

	reloaded, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if reloaded.Providers["cohere"].APIKey != "co" {
		t.Errorf("Expected cohere key after reload, got %+v", reloaded.Providers["cohere"])
	}
}

func TestManager(t *testing.T) {
	config := DefaultConfig()
	config.Providers["openai"] = ProviderConfig{APIKey: "sk", Verified: false}
	config.Modes = []ModeConfig{{ID: "haiku", Prompt: "Answer in a haiku."}}

	m, err := NewManagerWithConfig(config)
	if err != nil {
		t.Fatalf("NewManagerWithConfig() error = %v", err)
	}

	model, err := m.DefaultModel()
	if err != nil {
		t.Fatalf("DefaultModel() error = %v", err)
	}
	if model.ID != "gpt-4o" || !model.IsVisionCapable {
		t.Errorf("Unexpected default model %+v", model)
	}
	if _, err := m.Model("missing"); !errors.Is(err, ErrModelNotFound) {
		t.Errorf("Expected ErrModelNotFound, got %v", err)
	}

	creds := m.Credentials()
	if c := creds.GetCredentials("openai"); c == nil || c.Usable() {
		t.Errorf("Expected unverified openai credentials, got %+v", c)
	}
	creds.SetVerified("openai", true)
	if c := creds.GetCredentials("openai"); !c.Usable() {
		t.Errorf("Expected usable credentials after verification, got %+v", c)
	}
	if c := creds.GetCredentials("google"); c != nil {
		t.Errorf("Expected nil credentials for unconfigured provider, got %+v", c)
	}

	if err := m.SetProviderCredentials("acme", ProviderConfig{}); err == nil {
		t.Error("Expected error for unknown provider")
	}

	custom := aisdk.ModelConfig{
		ID:              "local-llava",
		ProviderID:      "custom",
		ModelID:         "llava",
		IsVisionCapable: true,
		CustomProvider:  &aisdk.CustomProvider{Name: "ollama", BaseURL: "http://localhost:11434"},
	}
	if err := m.UpsertModel(custom); err != nil {
		t.Fatalf("UpsertModel() error = %v", err)
	}
	if err := m.UpsertModel(aisdk.ModelConfig{ID: "bad"}); err == nil {
		t.Error("Expected invalid model to be rejected")
	}

	when := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m.TouchModel("local-llava", when)
	got, err := m.Model("local-llava")
	if err != nil {
		t.Fatalf("Model() error = %v", err)
	}
	if !got.LastUsed.Equal(when) {
		t.Errorf("Expected LastUsed %v, got %v", when, got.LastUsed)
	}

	settings := m.AssemblerSettings()
	if settings.Strategy != assembler.StrategySmart || !settings.IncludeSystemPrompt || settings.MaxContextImages != 3 {
		t.Errorf("Unexpected assembler settings %+v", settings)
	}

	catalog := m.ModeCatalog()
	if !catalog.Has("haiku") || !catalog.Has("ocr") {
		t.Error("Expected catalog to contain built-in and configured modes")
	}
}

func TestFindProjectConfig(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(root, ".lenschat", "config.json")
	writeFile(t, want, `{}`)

	got, err := FindProjectConfig(nested)
	if err != nil {
		t.Fatalf("FindProjectConfig() error = %v", err)
	}
	if got != want {
		t.Errorf("FindProjectConfig() = %s, want %s", got, want)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
