package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupModel(t *testing.T) {
	m, ok := LookupModel(ProviderOpenAI, "GPT-4o")
	require.True(t, ok)
	assert.True(t, m.HasVision)
	assert.Equal(t, 128000, m.ContextWindow)

	_, ok = LookupModel(ProviderCohere, "gpt-4o")
	assert.False(t, ok)

	m, ok = LookupModel("", "command-r")
	require.True(t, ok)
	assert.False(t, m.HasVision)
}

func TestListProvidersSorted(t *testing.T) {
	ps := ListProviders()
	require.Len(t, ps, 6)
	for i := 1; i < len(ps); i++ {
		assert.Less(t, ps[i-1].ID, ps[i].ID)
	}
}

func TestInferContextWindow(t *testing.T) {
	tests := []struct {
		model string
		want  int
	}{
		{"my-claude-finetune", 200000},
		{"CLAUDE-next", 200000},
		{"gpt-4-preview-x", 128000},
		{"qwen2-72b", 32768},
		{"totally-unknown", DefaultContextWindow},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, InferContextWindow(tt.model))
		})
	}
}

func TestContextWindowPrefersCatalog(t *testing.T) {
	assert.Equal(t, 16385, ContextWindow(ProviderOpenAI, "gpt-3.5-turbo"))
	assert.Equal(t, 200000, ContextWindow(ProviderCustom, "some-claude-model"))
}

func TestRemoteCatalog(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/models", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data":[
			{"id":"vendor/big-model","name":"Big","context_length":65536,
			 "architecture":{"input_modalities":["text","image"]}},
			{"id":"vendor/text-model","name":"Text","context_length":4096}
		]}`))
	}))
	defer srv.Close()

	rc := NewRemoteCatalog(RemoteConfig{BaseURL: srv.URL, APIKey: "key"})
	ctx := context.Background()

	m, ok := rc.LookupModel(ctx, "vendor/big-model")
	require.True(t, ok)
	assert.True(t, m.HasVision)
	assert.Equal(t, 65536, m.ContextWindow)

	m, ok = rc.LookupModel(ctx, "VENDOR/text-model")
	require.True(t, ok)
	assert.False(t, m.HasVision)

	assert.Equal(t, int32(1), hits.Load(), "listing should be cached")

	resolver := NewResolver(rc)
	assert.Equal(t, 65536, resolver.ContextWindow(ctx, ProviderOpenRouter, "vendor/big-model"))
	assert.Equal(t, 200000, resolver.ContextWindow(ctx, ProviderOpenRouter, "anthropic/claude-3.5-sonnet"))
	assert.Equal(t, DefaultContextWindow, resolver.ContextWindow(ctx, ProviderOpenRouter, "vendor/missing"))

	rc.ClearCache()
	_, _ = rc.Models(ctx)
	assert.Equal(t, int32(2), hits.Load())
}

func TestRemoteCatalogFailureIsMiss(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	rc := NewRemoteCatalog(RemoteConfig{BaseURL: srv.URL})
	_, ok := rc.LookupModel(context.Background(), "anything")
	assert.False(t, ok)
}
