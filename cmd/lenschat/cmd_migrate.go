package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/elee1766/lenschat/src/storage"
)

// MigrateCmd opens the conversation database, applying pending migrations
type MigrateCmd struct{}

// Run executes the migrate command
func (c *MigrateCmd) Run(kctx *kong.Context, cli *CLI) error {
	dbPath := cli.Database
	if dbPath == "" {
		cm, err := loadConfig(cli)
		if err != nil {
			return err
		}
		dbPath = cm.GetConfig().StoragePaths().DatabasePath
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	db, err := storage.Open(context.Background(), dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	_, err = fmt.Fprintf(kctx.Stdout, "database ready: %s\n", dbPath)
	return err
}
