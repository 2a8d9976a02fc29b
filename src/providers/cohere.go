package providers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/elee1766/lenschat/src/aisdk"
	"github.com/elee1766/lenschat/src/registry"
)

const defaultCohereBaseURL = "https://api.cohere.ai"

type cohereRequest struct {
	Model            string        `json:"model"`
	Message          string        `json:"message"`
	ChatHistory      []cohereEntry `json:"chat_history,omitempty"`
	Preamble         string        `json:"preamble,omitempty"`
	MaxTokens        *int          `json:"max_tokens,omitempty"`
	Temperature      float64       `json:"temperature"`
	P                *float64      `json:"p,omitempty"`
	FrequencyPenalty *float64      `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float64      `json:"presence_penalty,omitempty"`
}

type cohereEntry struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

type cohereResponse struct {
	Text *string `json:"text"`
}

// Cohere is the adapter for the v1 chat API. It has no image support.
type Cohere struct{}

var _ Adapter = (*Cohere)(nil)

// NewCohere creates a Cohere adapter.
func NewCohere() *Cohere {
	return &Cohere{}
}

// ID implements Adapter.
func (a *Cohere) ID() string { return registry.ProviderCohere }

// SupportsVision implements Adapter.
func (a *Cohere) SupportsVision() bool { return false }

// BuildRequest implements Adapter. The last user turn becomes message and
// everything before it becomes chat_history.
func (a *Cohere) BuildRequest(messages []*aisdk.Message, model *aisdk.ModelConfig, creds *aisdk.Credentials, opts Options) (*HTTPRequest, error) {
	if aisdk.CountImages(messages) > 0 {
		return nil, &UnsupportedError{Provider: a.ID(), Operation: "image input"}
	}

	system, turns := splitSystem(messages)
	if len(turns) == 0 {
		return nil, &ValidationError{Field: "messages", Message: "at least one user message is required"}
	}

	last := turns[len(turns)-1]
	history := make([]cohereEntry, 0, len(turns)-1)
	for _, m := range turns[:len(turns)-1] {
		role := "USER"
		if m.Role == aisdk.RoleAssistant {
			role = "CHATBOT"
		}
		history = append(history, cohereEntry{Role: role, Message: m.Text()})
	}

	s := model.Settings
	body, err := json.Marshal(cohereRequest{
		Model:            model.ModelID,
		Message:          last.Text(),
		ChatHistory:      history,
		Preamble:         strings.Join(system, "\n\n"),
		MaxTokens:        optionalInt(maxTokensFor(model, opts)),
		Temperature:      s.Temperature,
		P:                optionalFloat(s.TopP),
		FrequencyPenalty: optionalFloat(s.FrequencyPenalty),
		PresencePenalty:  optionalFloat(s.PresencePenalty),
	})
	if err != nil {
		return nil, err
	}

	base := defaultCohereBaseURL
	if creds.BaseURL != "" {
		base = creds.BaseURL
	}
	return &HTTPRequest{
		Method:  http.MethodPost,
		URL:     joinURL(base, "/v1/chat"),
		Headers: bearerHeaders(creds.APIKey),
		Body:    body,
	}, nil
}

// ParseResponse implements Adapter.
func (a *Cohere) ParseResponse(body []byte) (string, error) {
	var resp cohereResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", newInvalidJSONError(a.ID(), body, err)
	}
	if resp.Text == nil {
		return "", newMissingFieldError(a.ID(), body, "text")
	}
	return *resp.Text, nil
}
