package providers

import (
	"net/http"

	"github.com/elee1766/lenschat/src/aisdk"
	"github.com/elee1766/lenschat/src/registry"
)

// DefaultCustomAPIPath is appended to a custom base URL when no path is configured.
const DefaultCustomAPIPath = "/v1/chat/completions"

// Custom is the adapter for user-configured OpenAI-compatible endpoints.
type Custom struct{}

var _ Adapter = (*Custom)(nil)

// NewCustom creates a custom endpoint adapter.
func NewCustom() *Custom {
	return &Custom{}
}

// ID implements Adapter.
func (a *Custom) ID() string { return registry.ProviderCustom }

// SupportsVision implements Adapter.
func (a *Custom) SupportsVision() bool { return true }

// BuildRequest implements Adapter. The endpoint comes from the model's custom
// provider settings, falling back to the credentials.
func (a *Custom) BuildRequest(messages []*aisdk.Message, model *aisdk.ModelConfig, creds *aisdk.Credentials, opts Options) (*HTTPRequest, error) {
	baseURL, apiPath := creds.BaseURL, creds.APIPath
	if cp := model.CustomProvider; cp != nil {
		if cp.BaseURL != "" {
			baseURL = cp.BaseURL
		}
		if cp.APIPath != "" {
			apiPath = cp.APIPath
		}
	}
	if baseURL == "" {
		return nil, ErrMissingBaseURL
	}
	if apiPath == "" {
		apiPath = DefaultCustomAPIPath
	}

	body, err := buildOpenAIBody(messages, model, opts)
	if err != nil {
		return nil, err
	}
	return &HTTPRequest{
		Method:  http.MethodPost,
		URL:     joinURL(baseURL, apiPath),
		Headers: bearerHeaders(creds.APIKey),
		Body:    body,
	}, nil
}

// ParseResponse implements Adapter.
func (a *Custom) ParseResponse(body []byte) (string, error) {
	return parseOpenAIResponse(a.ID(), body)
}
