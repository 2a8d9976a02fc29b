package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/elee1766/lenschat/src/app"
	"github.com/elee1766/lenschat/src/config"
)

// loadConfig loads the configuration from cli.Config or the default locations.
func loadConfig(cli *CLI) (*config.Manager, error) {
	if cli.Config == "" {
		return config.NewManager()
	}

	precedence := config.GetConfigPaths()
	precedence.UserConfig = cli.Config
	precedence.ProjectConfig = ""
	cfg, err := config.NewLoader(precedence).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	cm, err := config.NewManagerWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	cm.SetConfigPath(cli.Config)
	return cm, nil
}

// openApp loads the configuration, builds the logger and wires the app.
func openApp(ctx context.Context, cli *CLI, opts app.Options) (*app.App, *slog.Logger, error) {
	cm, err := loadConfig(cli)
	if err != nil {
		return nil, nil, err
	}
	logger := createLogger(cm.GetConfig().Logging, cli.LogLevel)

	opts.Config = cm
	opts.Logger = logger
	if opts.DatabasePath == "" {
		opts.DatabasePath = cli.Database
	}
	a, err := app.New(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	return a, logger, nil
}

// requireStorage fails when conversation persistence is disabled.
func requireStorage(a *app.App) error {
	if a.Storage == nil {
		return fmt.Errorf("%w (set data.persist in the config file)", app.ErrPersistenceDisabled)
	}
	return nil
}
