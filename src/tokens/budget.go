package tokens

import (
	"context"
	"log/slog"

	"github.com/elee1766/lenschat/src/aisdk"
	"github.com/elee1766/lenschat/src/registry"
)

// WindowResolver returns the context window of a provider model.
type WindowResolver interface {
	ContextWindow(ctx context.Context, providerID, modelID string) int
}

// Budget computes output limits for model configurations.
type Budget struct {
	windows WindowResolver
	logger  *slog.Logger
}

// NewBudget creates a budget. A nil resolver uses the static registry.
func NewBudget(windows WindowResolver, logger *slog.Logger) *Budget {
	if windows == nil {
		windows = registry.NewResolver(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Budget{windows: windows, logger: logger.With("component", "token_budget")}
}

// CalculateSafeMaxTokens returns the output limit to send for model. The user's
// configured max tokens is lowered silently when the window requires it.
func (b *Budget) CalculateSafeMaxTokens(ctx context.Context, messages []*aisdk.Message, model *aisdk.ModelConfig) int {
	window := b.windows.ContextWindow(ctx, model.ProviderID, model.ModelID)
	safe := CalculateSafeMaxTokens(messages, window, model.Settings.MaxTokens)

	b.logger.Debug("token budget",
		"model", model.ModelID,
		"context_window", window,
		"estimated_input", EstimateTokens(messages),
		"configured_max", model.Settings.MaxTokens,
		"safe_max", safe)
	return safe
}
