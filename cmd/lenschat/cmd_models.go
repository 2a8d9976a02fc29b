package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/elee1766/lenschat/src/aisdk"
	"github.com/elee1766/lenschat/src/config"
	"github.com/elee1766/lenschat/src/providers"
	"github.com/elee1766/lenschat/src/registry"
)

// ModelsCmd lists configured models or providers
type ModelsCmd struct {
	Format    string `enum:"table,json" default:"table" help:"Output format (table, json)"`
	Providers bool   `help:"List providers and their credential state instead"`
}

// modelRow is a configured model with its resolved limits.
type modelRow struct {
	aisdk.ModelConfig
	ContextWindow int  `json:"context_window"`
	Default       bool `json:"default"`
}

// Run executes the models command
func (c *ModelsCmd) Run(kctx *kong.Context, cli *CLI) error {
	cm, err := loadConfig(cli)
	if err != nil {
		return err
	}
	if c.Providers {
		return c.printProviders(kctx, cm)
	}

	cfg := cm.GetConfig()
	rows := make([]modelRow, 0, len(cfg.Models))
	for _, m := range cfg.Models {
		rows = append(rows, modelRow{
			ModelConfig:   m,
			ContextWindow: registry.ContextWindow(m.ProviderID, m.ModelID),
			Default:       m.ID == cfg.DefaultModel,
		})
	}

	if c.Format == "json" {
		enc := json.NewEncoder(kctx.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	t := newTable("", "ID", "PROVIDER", "MODEL", "VISION", "CONTEXT", "MAX TOKENS", "LAST USED")
	for _, r := range rows {
		marker := ""
		if r.Default {
			marker = "*"
		}
		lastUsed := "never"
		if !r.LastUsed.IsZero() {
			lastUsed = r.LastUsed.Format("2006-01-02 15:04")
		}
		t.Row(marker, r.ID, r.ProviderID, r.ModelID, yesNo(r.IsVisionCapable),
			strconv.Itoa(r.ContextWindow), strconv.Itoa(r.Settings.MaxTokens), lastUsed)
	}
	_, err = fmt.Fprintln(kctx.Stdout, t.Render())
	return err
}

func (c *ModelsCmd) printProviders(kctx *kong.Context, cm *config.Manager) error {
	creds := cm.Credentials()
	adapters := providers.DefaultRegistry()
	t := newTable("PROVIDER", "NAME", "VISION", "MODELS", "API KEY", "VERIFIED")
	for _, p := range registry.ListProviders() {
		vision := false
		if a, err := adapters.Get(p.ID); err == nil {
			vision = a.SupportsVision()
		}
		key, verified := "not set", false
		if cr := creds.GetCredentials(p.ID); cr != nil && cr.APIKey != "" {
			key = maskAPIKey(cr.APIKey)
			verified = cr.Verified
		}
		t.Row(p.ID, p.Name, yesNo(vision), strconv.Itoa(len(p.Models)), key, yesNo(verified))
	}
	_, err := fmt.Fprintln(kctx.Stdout, t.Render())
	return err
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// maskAPIKey masks an API key for display
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
