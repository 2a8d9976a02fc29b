package providers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/elee1766/lenschat/src/aisdk"
	"github.com/elee1766/lenschat/src/registry"
)

const defaultGoogleBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type googleRequest struct {
	Contents          []googleContent         `json:"contents"`
	SystemInstruction *googleContent          `json:"system_instruction,omitempty"`
	GenerationConfig  *googleGenerationConfig `json:"generationConfig,omitempty"`
}

type googleContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []googlePart `json:"parts"`
}

type googlePart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *googleInlineData `json:"inline_data,omitempty"`
	Thought    bool              `json:"thought,omitempty"`
}

type googleInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type googleGenerationConfig struct {
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64  `json:"temperature"`
	TopP            *float64 `json:"topP,omitempty"`
}

type googleResponse struct {
	Candidates []struct {
		Content *googleContent `json:"content"`
	} `json:"candidates"`
}

// Google is the adapter for the Gemini generateContent API.
type Google struct{}

var _ Adapter = (*Google)(nil)

// NewGoogle creates a Gemini adapter.
func NewGoogle() *Google {
	return &Google{}
}

// ID implements Adapter.
func (a *Google) ID() string { return registry.ProviderGoogle }

// SupportsVision implements Adapter.
func (a *Google) SupportsVision() bool { return true }

// BuildRequest implements Adapter. The assistant role is sent as "model" and
// the API key travels in the query string.
func (a *Google) BuildRequest(messages []*aisdk.Message, model *aisdk.ModelConfig, creds *aisdk.Credentials, opts Options) (*HTTPRequest, error) {
	system, turns := splitSystem(messages)

	req := googleRequest{
		Contents: make([]googleContent, 0, len(turns)),
		GenerationConfig: &googleGenerationConfig{
			MaxOutputTokens: optionalInt(maxTokensFor(model, opts)),
			Temperature:     model.Settings.Temperature,
			TopP:            optionalFloat(model.Settings.TopP),
		},
	}
	if len(system) > 0 {
		req.SystemInstruction = &googleContent{
			Parts: []googlePart{{Text: strings.Join(system, "\n\n")}},
		}
	}

	for _, m := range turns {
		role := "user"
		if m.Role == aisdk.RoleAssistant {
			role = "model"
		}
		content := googleContent{Role: role}
		if !m.IsMultimodal() {
			content.Parts = []googlePart{{Text: m.Content}}
		} else {
			for _, p := range m.Parts {
				switch p.Type {
				case aisdk.ContentTypeText:
					content.Parts = append(content.Parts, googlePart{Text: p.Text})
				case aisdk.ContentTypeImage:
					content.Parts = append(content.Parts, googlePart{
						InlineData: &googleInlineData{MimeType: p.Image.MediaType, Data: p.Image.Data},
					})
				}
			}
		}
		req.Contents = append(req.Contents, content)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	base := defaultGoogleBaseURL
	if creds.BaseURL != "" {
		base = creds.BaseURL
	}
	endpoint := joinURL(base, "/models/"+url.PathEscape(model.ModelID)+":generateContent") +
		"?key=" + url.QueryEscape(creds.APIKey)

	return &HTTPRequest{
		Method:  http.MethodPost,
		URL:     endpoint,
		Headers: jsonHeaders(),
		Body:    body,
	}, nil
}

// ParseResponse implements Adapter. Thought parts are prepended to the first
// answer part.
func (a *Google) ParseResponse(body []byte) (string, error) {
	var resp googleResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", newInvalidJSONError(a.ID(), body, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", newMissingFieldError(a.ID(), body, "candidates[0].content.parts[0].text")
	}

	var thoughts []string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Thought {
			thoughts = append(thoughts, part.Text)
			continue
		}
		return withThinking(strings.Join(thoughts, "\n"), part.Text), nil
	}
	return "", newMissingFieldError(a.ID(), body, "candidates[0].content.parts[0].text")
}
