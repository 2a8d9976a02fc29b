package providers

import (
	"encoding/json"
	"net/http"

	"github.com/elee1766/lenschat/src/aisdk"
	"github.com/elee1766/lenschat/src/registry"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// openAIRequest is the chat completions request body shared by OpenAI,
// OpenRouter and custom OpenAI-compatible endpoints.
type openAIRequest struct {
	Model            string          `json:"model"`
	Messages         []openAIMessage `json:"messages"`
	MaxTokens        *int            `json:"max_tokens,omitempty"`
	Temperature      float64         `json:"temperature"`
	TopP             *float64        `json:"top_p,omitempty"`
	FrequencyPenalty *float64        `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float64        `json:"presence_penalty,omitempty"`
	Stream           bool            `json:"stream"`
}

type openAIMessage struct {
	Role    string        `json:"role"`
	Content openAIContent `json:"content"`
}

// openAIContent is either a plain string or a list of typed parts.
type openAIContent struct {
	Text  string
	Parts []openAIPart
}

// MarshalJSON encodes plain text as a string and multimodal content as an array.
func (c openAIContent) MarshalJSON() ([]byte, error) {
	if c.Parts != nil {
		return json.Marshal(c.Parts)
	}
	return json.Marshal(c.Text)
}

type openAIPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIImageURL struct {
	URL string `json:"url"`
}

type openAIResponse struct {
	Choices []openAIChoice `json:"choices"`
}

type openAIChoice struct {
	Message   *openAIResponseMessage `json:"message"`
	Reasoning string                 `json:"reasoning,omitempty"`
}

type openAIResponseMessage struct {
	Content         *string `json:"content"`
	Reasoning       string  `json:"reasoning,omitempty"`
	ThinkingContent string  `json:"thinking_content,omitempty"`
}

func toOpenAIMessages(messages []*aisdk.Message) []openAIMessage {
	out := make([]openAIMessage, 0, len(messages))
	for _, m := range messages {
		if m == nil {
			continue
		}
		msg := openAIMessage{Role: string(m.Role)}
		if !m.IsMultimodal() {
			msg.Content = openAIContent{Text: m.Content}
		} else {
			parts := make([]openAIPart, 0, len(m.Parts))
			for _, p := range m.Parts {
				switch p.Type {
				case aisdk.ContentTypeText:
					parts = append(parts, openAIPart{Type: "text", Text: p.Text})
				case aisdk.ContentTypeImage:
					parts = append(parts, openAIPart{Type: "image_url", ImageURL: &openAIImageURL{URL: p.Image.DataURI()}})
				}
			}
			msg.Content = openAIContent{Parts: parts}
		}
		out = append(out, msg)
	}
	return out
}

func buildOpenAIBody(messages []*aisdk.Message, model *aisdk.ModelConfig, opts Options) ([]byte, error) {
	s := model.Settings
	return json.Marshal(openAIRequest{
		Model:            model.ModelID,
		Messages:         toOpenAIMessages(messages),
		MaxTokens:        optionalInt(maxTokensFor(model, opts)),
		Temperature:      s.Temperature,
		TopP:             optionalFloat(s.TopP),
		FrequencyPenalty: optionalFloat(s.FrequencyPenalty),
		PresencePenalty:  optionalFloat(s.PresencePenalty),
	})
}

// parseOpenAIResponse reads choices[0].message.content, prefixed with any
// reasoning the provider returned.
func parseOpenAIResponse(provider string, body []byte) (string, error) {
	var resp openAIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", newInvalidJSONError(provider, body, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil || resp.Choices[0].Message.Content == nil {
		return "", newMissingFieldError(provider, body, "choices[0].message.content")
	}
	choice := resp.Choices[0]
	reasoning := firstNonEmpty(choice.Message.Reasoning, choice.Reasoning, choice.Message.ThinkingContent)
	return withThinking(reasoning, *choice.Message.Content), nil
}

func bearerHeaders(apiKey string) map[string]string {
	h := jsonHeaders()
	h["Authorization"] = "Bearer " + apiKey
	return h
}

// OpenAI is the adapter for api.openai.com.
type OpenAI struct{}

var _ Adapter = (*OpenAI)(nil)

// NewOpenAI creates an OpenAI adapter.
func NewOpenAI() *OpenAI {
	return &OpenAI{}
}

// ID implements Adapter.
func (a *OpenAI) ID() string { return registry.ProviderOpenAI }

// SupportsVision implements Adapter.
func (a *OpenAI) SupportsVision() bool { return true }

// BuildRequest implements Adapter.
func (a *OpenAI) BuildRequest(messages []*aisdk.Message, model *aisdk.ModelConfig, creds *aisdk.Credentials, opts Options) (*HTTPRequest, error) {
	body, err := buildOpenAIBody(messages, model, opts)
	if err != nil {
		return nil, err
	}
	base := defaultOpenAIBaseURL
	if creds.BaseURL != "" {
		base = creds.BaseURL
	}
	return &HTTPRequest{
		Method:  http.MethodPost,
		URL:     joinURL(base, "/chat/completions"),
		Headers: bearerHeaders(creds.APIKey),
		Body:    body,
	}, nil
}

// ParseResponse implements Adapter.
func (a *OpenAI) ParseResponse(body []byte) (string, error) {
	return parseOpenAIResponse(a.ID(), body)
}
