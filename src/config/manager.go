package config

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/elee1766/lenschat/src/aisdk"
	"github.com/elee1766/lenschat/src/assembler"
	"github.com/elee1766/lenschat/src/modes"
)

// ErrModelNotFound indicates no model entry has the requested id
var ErrModelNotFound = errors.New("model not found")

// Manager manages configuration loading, validation, and access
type Manager struct {
	config     *Config
	loader     *Loader
	validator  *Validator
	configPath string
	mu         sync.RWMutex
}

// NewManager loads the configuration from the standard locations
func NewManager() (*Manager, error) {
	precedence := GetConfigPaths()
	loader := NewLoader(precedence)

	config, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// writes go to the file that was loaded, or the user config
	configPath, err := FindConfigFile()
	if err != nil {
		configPath = precedence.UserConfig
	}

	return &Manager{
		config:     config,
		loader:     loader,
		validator:  NewValidator(),
		configPath: configPath,
	}, nil
}

// NewManagerWithConfig creates a manager with a specific configuration
func NewManagerWithConfig(config *Config) (*Manager, error) {
	validator := NewValidator()
	if err := validator.Validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &Manager{
		config:    config,
		loader:    NewLoader(GetConfigPaths()),
		validator: validator,
	}, nil
}

// GetConfig returns the current configuration
func (m *Manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Reload reloads the configuration from disk
func (m *Manager) Reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	config, err := m.loader.Load()
	if err != nil {
		return fmt.Errorf("failed to reload configuration: %w", err)
	}

	m.config = config
	return nil
}

// Save saves the current configuration to disk
func (m *Manager) Save() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.configPath == "" {
		return fmt.Errorf("no configuration file path set")
	}

	return m.loader.SaveFile(m.config, m.configPath)
}

// SaveTo saves the configuration to a specific path
func (m *Manager) SaveTo(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.loader.SaveFile(m.config, path)
}

// GetConfigPath returns the path Save writes to
func (m *Manager) GetConfigPath() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.configPath
}

// SetConfigPath sets the path Save writes to
func (m *Manager) SetConfigPath(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configPath = path
}

// Model returns a copy of the model entry with id.
func (m *Manager) Model(id string) (*aisdk.ModelConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, mc := range m.config.Models {
		if mc.ID == id {
			cp := mc
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrModelNotFound, id)
}

// DefaultModel returns the configured default model.
func (m *Manager) DefaultModel() (*aisdk.ModelConfig, error) {
	m.mu.RLock()
	id := m.config.DefaultModel
	m.mu.RUnlock()
	if id == "" {
		return nil, fmt.Errorf("%w: no default model set", ErrModelNotFound)
	}
	return m.Model(id)
}

// UpsertModel adds or replaces a model entry after validating it.
func (m *Manager) UpsertModel(model aisdk.ModelConfig) error {
	model = withModelDefaults(model)
	if err := m.validator.validate.Struct(model); err != nil {
		return fmt.Errorf("invalid model: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.config.Models {
		if m.config.Models[i].ID == model.ID {
			m.config.Models[i] = model
			return nil
		}
	}
	m.config.Models = append(m.config.Models, model)
	return nil
}

// TouchModel records the last time a model was used.
func (m *Manager) TouchModel(id string, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.config.Models {
		if m.config.Models[i].ID == id {
			m.config.Models[i].LastUsed = at
			return
		}
	}
}

// SetProviderCredentials stores credentials for a provider.
func (m *Manager) SetProviderCredentials(providerID string, pc ProviderConfig) error {
	if !validateProviderID(providerID) {
		return ValidationError{Field: "Providers", Message: fmt.Sprintf("unknown provider %q", providerID), Value: providerID}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.config.Providers == nil {
		m.config.Providers = make(map[string]ProviderConfig)
	}
	m.config.Providers[providerID] = pc
	return nil
}

// Credentials returns a credential source backed by this manager.
func (m *Manager) Credentials() *CredentialStore {
	return &CredentialStore{manager: m}
}

// AssemblerSettings converts the context section into assembler settings.
func (m *Manager) AssemblerSettings() assembler.Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c := m.config
	return assembler.Settings{
		SystemPrompt:        c.SystemPrompt,
		IncludeSystemPrompt: c.Context.SystemPromptEnabled(),
		MaxContextMessages:  c.Context.MessageLimit(),
		MaxContextImages:    c.Context.ImageLimit(),
		Strategy:            assembler.Strategy(c.Context.Strategy),
	}
}

// ModeCatalog returns the built-in modes plus the configured ones.
func (m *Manager) ModeCatalog() *modes.Catalog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	extra := make([]modes.Mode, 0, len(m.config.Modes))
	for _, mc := range m.config.Modes {
		extra = append(extra, modes.Mode{
			ID:            mc.ID,
			Name:          mc.Name,
			Prompt:        mc.Prompt,
			ImageOriented: mc.ImageOriented,
		})
	}
	return modes.NewCatalog(extra...)
}

// WorkingDirectory returns the current working directory
func WorkingDirectory() string {
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}
