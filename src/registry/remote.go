package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"
)

const (
	defaultRemoteBaseURL = "https://openrouter.ai/api/v1"
	defaultRemoteTTL     = time.Hour
)

// remoteModel is an entry of OpenRouter's /models listing.
type remoteModel struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ContextLength int    `json:"context_length"`
	Architecture  *struct {
		InputModalities []string `json:"input_modalities,omitempty"`
		Modality        string   `json:"modality,omitempty"`
	} `json:"architecture,omitempty"`
}

type modelsResponse struct {
	Data []*remoteModel `json:"data"`
}

func (m *remoteModel) toModelInfo() *ModelInfo {
	info := &ModelInfo{ID: m.ID, Name: m.Name, ContextWindow: m.ContextLength}
	if m.Architecture != nil {
		info.HasVision = slices.Contains(m.Architecture.InputModalities, "image") ||
			strings.Contains(m.Architecture.Modality, "image")
	}
	return info
}

// RemoteConfig configures a RemoteCatalog.
type RemoteConfig struct {
	BaseURL    string
	APIKey     string
	TTL        time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// RemoteCatalog fetches the OpenRouter model listing and caches it for TTL.
type RemoteCatalog struct {
	baseURL    string
	apiKey     string
	ttl        time.Duration
	httpClient *http.Client
	logger     *slog.Logger

	mu        sync.RWMutex
	models    map[string]*ModelInfo
	fetchedAt time.Time
}

var _ ModelSource = (*RemoteCatalog)(nil)

// NewRemoteCatalog creates a new remote catalog.
func NewRemoteCatalog(cfg RemoteConfig) *RemoteCatalog {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultRemoteBaseURL
	}
	if cfg.TTL == 0 {
		cfg.TTL = defaultRemoteTTL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoteCatalog{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		ttl:        cfg.TTL,
		httpClient: cfg.HTTPClient,
		logger:     logger.With("component", "remote_catalog"),
	}
}

// LookupModel returns remote metadata for a model. Fetch failures are logged and
// reported as a miss.
func (rc *RemoteCatalog) LookupModel(ctx context.Context, modelID string) (*ModelInfo, bool) {
	models, err := rc.Models(ctx)
	if err != nil {
		rc.logger.Warn("failed to fetch model list", "error", err)
		return nil, false
	}
	m, ok := models[strings.ToLower(modelID)]
	return m, ok
}

// Models returns the cached model listing, refreshing it when expired.
func (rc *RemoteCatalog) Models(ctx context.Context) (map[string]*ModelInfo, error) {
	rc.mu.RLock()
	models, fetchedAt := rc.models, rc.fetchedAt
	rc.mu.RUnlock()

	if models != nil && time.Since(fetchedAt) < rc.ttl {
		return models, nil
	}

	fetched, err := rc.fetch(ctx)
	if err != nil {
		return nil, err
	}

	rc.mu.Lock()
	rc.models = fetched
	rc.fetchedAt = time.Now()
	rc.mu.Unlock()

	rc.logger.Debug("model list refreshed", "count", len(fetched))
	return fetched, nil
}

// ClearCache drops the cached listing.
func (rc *RemoteCatalog) ClearCache() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.models = nil
	rc.fetchedAt = time.Time{}
}

func (rc *RemoteCatalog) fetch(ctx context.Context) (map[string]*ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rc.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if rc.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+rc.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := rc.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d", resp.StatusCode)
	}

	var modelsResp modelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&modelsResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	out := make(map[string]*ModelInfo, len(modelsResp.Data))
	for _, m := range modelsResp.Data {
		if m == nil || m.ID == "" {
			continue
		}
		out[strings.ToLower(m.ID)] = m.toModelInfo()
	}
	return out, nil
}
