package providers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/elee1766/lenschat/src/aisdk"
	"github.com/elee1766/lenschat/src/registry"
)

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion        = "2023-06-01"
	// Anthropic rejects requests without max_tokens.
	anthropicDefaultMaxTokens = 4096
)

type anthropicRequest struct {
	Model       string             `json:"model"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	TopP        *float64           `json:"top_p,omitempty"`
}

type anthropicMessage struct {
	Role    string           `json:"role"`
	Content []anthropicBlock `json:"content"`
}

type anthropicBlock struct {
	Type   string                `json:"type"`
	Text   string                `json:"text,omitempty"`
	Source *anthropicImageSource `json:"source,omitempty"`
}

type anthropicImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicResponse struct {
	Content []struct {
		Type     string `json:"type"`
		Text     string `json:"text"`
		Thinking string `json:"thinking"`
	} `json:"content"`
}

// Anthropic is the adapter for the Messages API.
type Anthropic struct{}

var _ Adapter = (*Anthropic)(nil)

// NewAnthropic creates an Anthropic adapter.
func NewAnthropic() *Anthropic {
	return &Anthropic{}
}

// ID implements Adapter.
func (a *Anthropic) ID() string { return registry.ProviderAnthropic }

// SupportsVision implements Adapter.
func (a *Anthropic) SupportsVision() bool { return true }

// BuildRequest implements Adapter. System messages are joined into the
// top-level system field.
func (a *Anthropic) BuildRequest(messages []*aisdk.Message, model *aisdk.ModelConfig, creds *aisdk.Credentials, opts Options) (*HTTPRequest, error) {
	system, turns := splitSystem(messages)

	req := anthropicRequest{
		Model:       model.ModelID,
		System:      strings.Join(system, "\n\n"),
		Messages:    make([]anthropicMessage, 0, len(turns)),
		MaxTokens:   maxTokensFor(model, opts),
		Temperature: model.Settings.Temperature,
		TopP:        optionalFloat(model.Settings.TopP),
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = anthropicDefaultMaxTokens
	}

	for _, m := range turns {
		msg := anthropicMessage{Role: string(m.Role)}
		if !m.IsMultimodal() {
			msg.Content = []anthropicBlock{{Type: "text", Text: m.Content}}
		} else {
			for _, p := range m.Parts {
				switch p.Type {
				case aisdk.ContentTypeText:
					msg.Content = append(msg.Content, anthropicBlock{Type: "text", Text: p.Text})
				case aisdk.ContentTypeImage:
					msg.Content = append(msg.Content, anthropicBlock{
						Type: "image",
						Source: &anthropicImageSource{
							Type:      "base64",
							MediaType: p.Image.MediaType,
							Data:      p.Image.Data,
						},
					})
				}
			}
		}
		req.Messages = append(req.Messages, msg)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	base := defaultAnthropicBaseURL
	if creds.BaseURL != "" {
		base = creds.BaseURL
	}
	headers := jsonHeaders()
	headers["x-api-key"] = creds.APIKey
	headers["anthropic-version"] = anthropicVersion

	return &HTTPRequest{
		Method:  http.MethodPost,
		URL:     joinURL(base, "/v1/messages"),
		Headers: headers,
		Body:    body,
	}, nil
}

// ParseResponse implements Adapter. The first text block is the reply; any
// thinking blocks are prepended.
func (a *Anthropic) ParseResponse(body []byte) (string, error) {
	var resp anthropicResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", newInvalidJSONError(a.ID(), body, err)
	}

	var thinking []string
	for _, block := range resp.Content {
		switch block.Type {
		case "thinking":
			thinking = append(thinking, block.Thinking)
		case "text":
			return withThinking(strings.Join(thinking, "\n"), block.Text), nil
		}
	}
	return "", newMissingFieldError(a.ID(), body, "content[0].text")
}
