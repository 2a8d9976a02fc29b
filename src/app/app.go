// Package app wires configuration, stores, providers and the chat manager together.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/elee1766/lenschat/src/aisdk"
	"github.com/elee1766/lenschat/src/assembler"
	"github.com/elee1766/lenschat/src/config"
	"github.com/elee1766/lenschat/src/conversation"
	"github.com/elee1766/lenschat/src/imagestore"
	"github.com/elee1766/lenschat/src/manager"
	"github.com/elee1766/lenschat/src/modes"
	"github.com/elee1766/lenschat/src/providers"
	"github.com/elee1766/lenschat/src/registry"
	"github.com/elee1766/lenschat/src/storage"
	"github.com/elee1766/lenschat/src/tokens"
	"github.com/elee1766/lenschat/src/vault"
)

// ErrPersistenceDisabled indicates data.persist is off, so nothing is stored
var ErrPersistenceDisabled = errors.New("conversation persistence is disabled")

// App holds every service of a chat session.
type App struct {
	Config        *config.Manager
	Images        *imagestore.Store
	Conversations *conversation.Store
	Vault         *vault.Loader
	Modes         *modes.Catalog
	Assembler     *assembler.Assembler
	Budget        *tokens.Budget
	Adapters      *providers.Registry
	Client        *providers.Client
	Remote        *registry.RemoteCatalog
	Manager       *manager.Manager

	// Storage is nil when persistence is disabled.
	Storage *storage.Store
	db      *storage.DB

	Logger *slog.Logger
}

// Options configures New.
type Options struct {
	// Config is required.
	Config *config.Manager
	Logger *slog.Logger

	// HTTPClient replaces the provider and catalog HTTP client.
	HTTPClient *http.Client

	// DatabasePath overrides the configured database location.
	DatabasePath string

	// ModelID selects a model instead of the configured default.
	ModelID string
	Mode    string
}

// New creates an App from opts.
func New(ctx context.Context, opts Options) (*App, error) {
	if opts.Config == nil {
		return nil, errors.New("app: config manager is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	cm := opts.Config
	cfg := cm.GetConfig()

	a := &App{
		Config: cm,
		Logger: logger,
	}

	a.Images = imagestore.New(logger)
	a.Conversations = conversation.NewStore(a.Images, logger)

	vaultRoot := cfg.Data.VaultDirectory
	if vaultRoot == "" {
		vaultRoot = config.WorkingDirectory()
	}
	a.Vault = vault.NewOS(vaultRoot, logger)
	a.Modes = cm.ModeCatalog()
	a.Assembler = assembler.New(cm.AssemblerSettings(), a.Images, a.Vault, a.Modes, logger)

	credentials := cm.Credentials()
	var remote registry.ModelSource
	if cfg.OpenRouter.RemoteCatalog {
		rc := registry.RemoteConfig{
			TTL:        cfg.OpenRouter.CacheTTL,
			HTTPClient: opts.HTTPClient,
			Logger:     logger,
		}
		if creds := credentials.GetCredentials(registry.ProviderOpenRouter); creds != nil {
			rc.APIKey = creds.APIKey
			rc.BaseURL = creds.BaseURL
		}
		a.Remote = registry.NewRemoteCatalog(rc)
		remote = a.Remote
	}
	a.Budget = tokens.NewBudget(registry.NewResolver(remote), logger)

	a.Adapters = providers.DefaultRegistry()
	a.Adapters.Register(providers.NewOpenRouter(providers.OpenRouterOptions{
		SiteURL:  cfg.OpenRouter.SiteURL,
		SiteName: cfg.OpenRouter.SiteName,
	}))
	a.Client = providers.NewClient(providers.Config{
		HTTPClient:        opts.HTTPClient,
		Timeout:           cfg.Timeout,
		Logger:            logger,
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		BurstSize:         cfg.RateLimit.BurstSize,
	})

	var saver manager.Saver
	if cfg.Data.PersistEnabled() {
		dbPath := opts.DatabasePath
		if dbPath == "" {
			dbPath = cfg.StoragePaths().DatabasePath
		}
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
		db, err := storage.Open(ctx, dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open storage: %w", err)
		}
		a.db = db
		a.Storage = storage.NewStore(db, logger)
		saver = a.Storage
	}

	model, err := a.selectModel(opts.ModelID)
	if err != nil {
		// a missing model is reported by Send, not at startup
		logger.Warn("no model selected", "error", err)
	}

	a.Manager = manager.New(manager.Config{
		Conversations: a.Conversations,
		Images:        a.Images,
		Assembler:     a.Assembler,
		Budget:        a.Budget,
		Adapters:      a.Adapters,
		Client:        a.Client,
		Credentials:   credentials,
		Modes:         a.Modes,
		Saver:         saver,
		OnModelUsed:   a.touchModel,
		Model:         model,
		Logger:        logger,
	})
	if opts.Mode != "" {
		if err := a.Manager.SetMode(opts.Mode); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

func (a *App) selectModel(id string) (*aisdk.ModelConfig, error) {
	if id == "" {
		return a.Config.DefaultModel()
	}
	return a.Config.Model(id)
}

func (a *App) touchModel(model *aisdk.ModelConfig) {
	a.Config.TouchModel(model.ID, time.Now())
}

// ResumeConversation loads a stored conversation and makes it current.
func (a *App) ResumeConversation(ctx context.Context, id string) (*conversation.Conversation, error) {
	if a.Storage == nil {
		return nil, ErrPersistenceDisabled
	}
	return a.Storage.RestoreInto(ctx, a.Conversations, id)
}

// Close closes all resources held by the app
func (a *App) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
