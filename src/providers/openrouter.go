package providers

import (
	"net/http"

	"github.com/elee1766/lenschat/src/aisdk"
	"github.com/elee1766/lenschat/src/registry"
)

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterOptions are the optional ranking headers sent to OpenRouter.
type OpenRouterOptions struct {
	SiteURL  string
	SiteName string
}

// OpenRouter is the adapter for openrouter.ai. It speaks the OpenAI format.
type OpenRouter struct {
	opts OpenRouterOptions
}

var _ Adapter = (*OpenRouter)(nil)

// NewOpenRouter creates an OpenRouter adapter.
func NewOpenRouter(opts OpenRouterOptions) *OpenRouter {
	return &OpenRouter{opts: opts}
}

// ID implements Adapter.
func (a *OpenRouter) ID() string { return registry.ProviderOpenRouter }

// SupportsVision implements Adapter.
func (a *OpenRouter) SupportsVision() bool { return true }

// BuildRequest implements Adapter.
func (a *OpenRouter) BuildRequest(messages []*aisdk.Message, model *aisdk.ModelConfig, creds *aisdk.Credentials, opts Options) (*HTTPRequest, error) {
	body, err := buildOpenAIBody(messages, model, opts)
	if err != nil {
		return nil, err
	}
	base := defaultOpenRouterBaseURL
	if creds.BaseURL != "" {
		base = creds.BaseURL
	}

	headers := bearerHeaders(creds.APIKey)
	if a.opts.SiteURL != "" {
		headers["HTTP-Referer"] = a.opts.SiteURL
	}
	if a.opts.SiteName != "" {
		headers["X-Title"] = a.opts.SiteName
	}

	return &HTTPRequest{
		Method:  http.MethodPost,
		URL:     joinURL(base, "/chat/completions"),
		Headers: headers,
		Body:    body,
	}, nil
}

// ParseResponse implements Adapter.
func (a *OpenRouter) ParseResponse(body []byte) (string, error) {
	return parseOpenAIResponse(a.ID(), body)
}
