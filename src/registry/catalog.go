// Package registry is the static catalog of providers and models known to lenschat,
// with their vision capability and context window sizes.
package registry

import (
	"sort"
	"strings"
)

// Provider identifiers.
const (
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderGoogle     = "google"
	ProviderCohere     = "cohere"
	ProviderOpenRouter = "openrouter"
	ProviderCustom     = "custom"
)

// ModelInfo describes a single model offered by a provider.
type ModelInfo struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	HasVision     bool   `json:"has_vision"`
	ContextWindow int    `json:"context_window"`
}

// ProviderInfo describes a provider and its models.
type ProviderInfo struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	BaseURL string       `json:"base_url"`
	Models  []*ModelInfo `json:"models"`
}

var providers = []*ProviderInfo{
	{
		ID:      ProviderOpenAI,
		Name:    "OpenAI",
		BaseURL: "https://api.openai.com/v1",
		Models: []*ModelInfo{
			{ID: "gpt-4o", Name: "GPT-4o", HasVision: true, ContextWindow: 128000},
			{ID: "gpt-4o-mini", Name: "GPT-4o mini", HasVision: true, ContextWindow: 128000},
			{ID: "gpt-4-turbo", Name: "GPT-4 Turbo", HasVision: true, ContextWindow: 128000},
			{ID: "gpt-4.1", Name: "GPT-4.1", HasVision: true, ContextWindow: 1047576},
			{ID: "gpt-4.1-mini", Name: "GPT-4.1 mini", HasVision: true, ContextWindow: 1047576},
			{ID: "gpt-3.5-turbo", Name: "GPT-3.5 Turbo", HasVision: false, ContextWindow: 16385},
		},
	},
	{
		ID:      ProviderAnthropic,
		Name:    "Anthropic",
		BaseURL: "https://api.anthropic.com",
		Models: []*ModelInfo{
			{ID: "claude-3-5-sonnet-20241022", Name: "Claude 3.5 Sonnet", HasVision: true, ContextWindow: 200000},
			{ID: "claude-3-5-haiku-20241022", Name: "Claude 3.5 Haiku", HasVision: true, ContextWindow: 200000},
			{ID: "claude-3-opus-20240229", Name: "Claude 3 Opus", HasVision: true, ContextWindow: 200000},
			{ID: "claude-3-haiku-20240307", Name: "Claude 3 Haiku", HasVision: true, ContextWindow: 200000},
		},
	},
	{
		ID:      ProviderGoogle,
		Name:    "Google",
		BaseURL: "https://generativelanguage.googleapis.com/v1beta",
		Models: []*ModelInfo{
			{ID: "gemini-1.5-pro", Name: "Gemini 1.5 Pro", HasVision: true, ContextWindow: 2097152},
			{ID: "gemini-1.5-flash", Name: "Gemini 1.5 Flash", HasVision: true, ContextWindow: 1048576},
			{ID: "gemini-2.0-flash", Name: "Gemini 2.0 Flash", HasVision: true, ContextWindow: 1048576},
			{ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash", HasVision: true, ContextWindow: 1048576},
		},
	},
	{
		ID:      ProviderCohere,
		Name:    "Cohere",
		BaseURL: "https://api.cohere.ai",
		Models: []*ModelInfo{
			{ID: "command-r-plus", Name: "Command R+", HasVision: false, ContextWindow: 128000},
			{ID: "command-r", Name: "Command R", HasVision: false, ContextWindow: 128000},
			{ID: "command", Name: "Command", HasVision: false, ContextWindow: 4096},
		},
	},
	{
		ID:      ProviderOpenRouter,
		Name:    "OpenRouter",
		BaseURL: "https://openrouter.ai/api/v1",
		Models: []*ModelInfo{
			{ID: "openai/gpt-4o", Name: "GPT-4o (OpenRouter)", HasVision: true, ContextWindow: 128000},
			{ID: "anthropic/claude-3.5-sonnet", Name: "Claude 3.5 Sonnet (OpenRouter)", HasVision: true, ContextWindow: 200000},
			{ID: "google/gemini-2.5-flash", Name: "Gemini 2.5 Flash (OpenRouter)", HasVision: true, ContextWindow: 1048576},
			{ID: "meta-llama/llama-3.2-90b-vision-instruct", Name: "Llama 3.2 90B Vision", HasVision: true, ContextWindow: 131072},
			{ID: "qwen/qwen-2.5-vl-72b-instruct", Name: "Qwen 2.5 VL 72B", HasVision: true, ContextWindow: 32768},
			{ID: "deepseek/deepseek-r1", Name: "DeepSeek R1", HasVision: false, ContextWindow: 163840},
		},
	},
	{
		ID:     ProviderCustom,
		Name:   "Custom (OpenAI-compatible)",
		Models: nil,
	},
}

// ListProviders returns the provider catalog ordered by provider id.
func ListProviders() []*ProviderInfo {
	out := make([]*ProviderInfo, len(providers))
	copy(out, providers)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GetProvider returns a provider by id.
func GetProvider(providerID string) (*ProviderInfo, bool) {
	for _, p := range providers {
		if p.ID == providerID {
			return p, true
		}
	}
	return nil, false
}

// IsKnownProvider reports whether providerID is part of the catalog.
func IsKnownProvider(providerID string) bool {
	_, ok := GetProvider(providerID)
	return ok
}

// ProviderIDs returns the ids of every catalog provider.
func ProviderIDs() []string {
	ids := make([]string, 0, len(providers))
	for _, p := range providers {
		ids = append(ids, p.ID)
	}
	return ids
}

// LookupModel finds a model in the static catalog. When providerID is empty every
// provider is searched. Model ids are compared case-insensitively.
func LookupModel(providerID, modelID string) (*ModelInfo, bool) {
	for _, p := range providers {
		if providerID != "" && p.ID != providerID {
			continue
		}
		for _, m := range p.Models {
			if strings.EqualFold(m.ID, modelID) {
				return m, true
			}
		}
	}
	return nil, false
}
