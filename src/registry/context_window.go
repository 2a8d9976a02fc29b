package registry

import (
	"context"
	"strings"
)

// DefaultContextWindow is used when a model is unknown and no heuristic matches.
const DefaultContextWindow = 16000

// windowHints are checked in order against the lowercased model id.
var windowHints = []struct {
	substr string
	window int
}{
	{"gpt-4", 128000},
	{"gpt-3.5", 16385},
	{"claude", 200000},
	{"gemini", 1048576},
	{"command-r", 128000},
	{"mistral", 32000},
	{"llama", 8192},
	{"qwen", 32768},
}

// InferContextWindow guesses a context window from a model id.
func InferContextWindow(modelID string) int {
	id := strings.ToLower(modelID)
	for _, h := range windowHints {
		if strings.Contains(id, h.substr) {
			return h.window
		}
	}
	return DefaultContextWindow
}

// ModelSource provides model metadata beyond the static catalog.
type ModelSource interface {
	LookupModel(ctx context.Context, modelID string) (*ModelInfo, bool)
}

// Resolver resolves context windows from the static catalog, an optional remote
// source, and finally substring inference.
type Resolver struct {
	remote ModelSource
}

// NewResolver creates a resolver. remote may be nil.
func NewResolver(remote ModelSource) *Resolver {
	return &Resolver{remote: remote}
}

// ContextWindow returns the context window for a provider model.
func (r *Resolver) ContextWindow(ctx context.Context, providerID, modelID string) int {
	if m, ok := LookupModel(providerID, modelID); ok && m.ContextWindow > 0 {
		return m.ContextWindow
	}
	if r != nil && r.remote != nil && providerID == ProviderOpenRouter {
		if m, ok := r.remote.LookupModel(ctx, modelID); ok && m.ContextWindow > 0 {
			return m.ContextWindow
		}
	}
	return InferContextWindow(modelID)
}

// ContextWindow returns the context window for a provider model using only the
// static catalog and inference.
func ContextWindow(providerID, modelID string) int {
	return (*Resolver)(nil).ContextWindow(context.Background(), providerID, modelID)
}
