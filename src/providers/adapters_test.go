package providers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elee1766/lenschat/src/aisdk"
	"github.com/elee1766/lenschat/src/registry"
)

var testImage = aisdk.ImageContent{MediaType: "image/png", Data: "iVBORw0KGgo="}

func testModel(provider, modelID string) *aisdk.ModelConfig {
	return &aisdk.ModelConfig{
		ID:              provider + "-" + modelID,
		ProviderID:      provider,
		ModelID:         modelID,
		IsVisionCapable: true,
		Settings:        aisdk.ModelSettings{MaxTokens: 1024, Temperature: 0.7},
	}
}

func testCreds() *aisdk.Credentials {
	return &aisdk.Credentials{APIKey: "sk-test", Verified: true}
}

func visionConversation() []*aisdk.Message {
	return []*aisdk.Message{
		aisdk.NewTextMessage(aisdk.RoleSystem, "be brief"),
		aisdk.NewTextMessage(aisdk.RoleUser, "hello"),
		aisdk.NewTextMessage(aisdk.RoleAssistant, "hi"),
		aisdk.NewMultimodalMessage(aisdk.RoleUser, "what is this?", []aisdk.ImageContent{testImage}),
	}
}

func decodeBody(t *testing.T, req *HTTPRequest) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(req.Body, &body))
	return body
}

func TestOpenAIBuildRequest(t *testing.T) {
	a := NewOpenAI()
	req, err := a.BuildRequest(visionConversation(), testModel("openai", "gpt-4o"), testCreds(), Options{MaxTokens: 900})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "https://api.openai.com/v1/chat/completions", req.URL)
	assert.Equal(t, "Bearer sk-test", req.Headers["Authorization"])

	body := decodeBody(t, req)
	assert.Equal(t, "gpt-4o", body["model"])
	assert.EqualValues(t, 900, body["max_tokens"])
	assert.Equal(t, false, body["stream"])

	msgs := body["messages"].([]any)
	require.Len(t, msgs, 4)
	assert.Equal(t, map[string]any{"role": "system", "content": "be brief"}, msgs[0])

	last := msgs[3].(map[string]any)
	parts := last["content"].([]any)
	require.Len(t, parts, 2)
	assert.Equal(t, map[string]any{"type": "text", "text": "what is this?"}, parts[0])
	assert.Equal(t, map[string]any{
		"type":      "image_url",
		"image_url": map[string]any{"url": "data:image/png;base64,iVBORw0KGgo="},
	}, parts[1])
}

func TestOpenAIParseResponse(t *testing.T) {
	a := NewOpenAI()

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "plain content",
			body: `{"choices":[{"message":{"role":"assistant","content":"hello"}}]}`,
			want: "hello",
		},
		{
			name: "message reasoning",
			body: `{"choices":[{"message":{"content":"42","reasoning":"thought hard"}}]}`,
			want: "<think>thought hard</think>\n\n42",
		},
		{
			name: "choice reasoning",
			body: `{"choices":[{"reasoning":"r","message":{"content":"x"}}]}`,
			want: "<think>r</think>\n\nx",
		},
		{
			name: "thinking content",
			body: `{"choices":[{"message":{"content":"x","thinking_content":"t"}}]}`,
			want: "<think>t</think>\n\nx",
		},
		{
			name: "empty content",
			body: `{"choices":[{"message":{"content":""}}]}`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.ParseResponse([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("invalid json", func(t *testing.T) {
		_, err := a.ParseResponse([]byte("<html>"))
		assert.ErrorIs(t, err, ErrInvalidJSON)
		var pe *ParseError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "<html>", pe.Preview)
	})

	t.Run("no choices", func(t *testing.T) {
		_, err := a.ParseResponse([]byte(`{"choices":[]}`))
		assert.ErrorIs(t, err, ErrMissingField)
	})
}

func TestOpenRouterHeaders(t *testing.T) {
	a := NewOpenRouter(OpenRouterOptions{SiteURL: "https://example.com", SiteName: "lenschat"})
	req, err := a.BuildRequest(visionConversation(), testModel("openrouter", "openai/gpt-4o"), testCreds(), Options{})
	require.NoError(t, err)

	assert.Equal(t, "https://openrouter.ai/api/v1/chat/completions", req.URL)
	assert.Equal(t, "https://example.com", req.Headers["HTTP-Referer"])
	assert.Equal(t, "lenschat", req.Headers["X-Title"])
	assert.EqualValues(t, 1024, decodeBody(t, req)["max_tokens"])
}

func TestCustomEndpoint(t *testing.T) {
	a := NewCustom()
	model := testModel("custom", "llava")

	t.Run("missing base url", func(t *testing.T) {
		_, err := a.BuildRequest(visionConversation(), model, testCreds(), Options{})
		assert.ErrorIs(t, err, ErrMissingBaseURL)
	})

	t.Run("default path from credentials", func(t *testing.T) {
		creds := testCreds()
		creds.BaseURL = "http://localhost:11434/"
		req, err := a.BuildRequest(visionConversation(), model, creds, Options{})
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:11434/v1/chat/completions", req.URL)
	})

	t.Run("model provider overrides credentials", func(t *testing.T) {
		creds := testCreds()
		creds.BaseURL = "http://ignored"
		m := *model
		m.CustomProvider = &aisdk.CustomProvider{Name: "lm", BaseURL: "http://lm.local", APIPath: "/api/chat"}
		req, err := a.BuildRequest(visionConversation(), &m, creds, Options{})
		require.NoError(t, err)
		assert.Equal(t, "http://lm.local/api/chat", req.URL)
	})
}

func TestAnthropicBuildRequest(t *testing.T) {
	a := NewAnthropic()
	req, err := a.BuildRequest(visionConversation(), testModel("anthropic", "claude-3-5-sonnet-20241022"), testCreds(), Options{})
	require.NoError(t, err)

	assert.Equal(t, "https://api.anthropic.com/v1/messages", req.URL)
	assert.Equal(t, "sk-test", req.Headers["x-api-key"])
	assert.Equal(t, "2023-06-01", req.Headers["anthropic-version"])
	assert.NotContains(t, req.Headers, "Authorization")

	body := decodeBody(t, req)
	assert.Equal(t, "be brief", body["system"])
	assert.EqualValues(t, 1024, body["max_tokens"])

	msgs := body["messages"].([]any)
	require.Len(t, msgs, 3)
	assert.Equal(t, "user", msgs[0].(map[string]any)["role"])

	blocks := msgs[2].(map[string]any)["content"].([]any)
	require.Len(t, blocks, 2)
	assert.Equal(t, map[string]any{
		"type": "image",
		"source": map[string]any{
			"type":       "base64",
			"media_type": "image/png",
			"data":       "iVBORw0KGgo=",
		},
	}, blocks[1])
}

func TestAnthropicDefaultMaxTokens(t *testing.T) {
	model := testModel("anthropic", "claude-3-haiku-20240307")
	model.Settings.MaxTokens = 0
	req, err := NewAnthropic().BuildRequest(TextMessages("", "hi"), model, testCreds(), Options{})
	require.NoError(t, err)

	body := decodeBody(t, req)
	assert.EqualValues(t, anthropicDefaultMaxTokens, body["max_tokens"])
	assert.NotContains(t, body, "system")
}

func TestAnthropicParseResponse(t *testing.T) {
	a := NewAnthropic()

	got, err := a.ParseResponse([]byte(`{"content":[{"type":"text","text":"a cat"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "a cat", got)

	got, err = a.ParseResponse([]byte(`{"content":[{"type":"thinking","thinking":"fur"},{"type":"text","text":"a cat"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "<think>fur</think>\n\na cat", got)

	_, err = a.ParseResponse([]byte(`{"content":[]}`))
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestGoogleBuildRequest(t *testing.T) {
	a := NewGoogle()
	req, err := a.BuildRequest(visionConversation(), testModel("google", "gemini-1.5-pro"), testCreds(), Options{MaxTokens: 2048})
	require.NoError(t, err)

	assert.Equal(t, "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-pro:generateContent?key=sk-test", req.URL)
	assert.NotContains(t, req.Headers, "Authorization")

	body := decodeBody(t, req)
	assert.Equal(t, map[string]any{"parts": []any{map[string]any{"text": "be brief"}}}, body["system_instruction"])
	assert.EqualValues(t, 2048, body["generationConfig"].(map[string]any)["maxOutputTokens"])

	contents := body["contents"].([]any)
	require.Len(t, contents, 3)
	assert.Equal(t, "model", contents[1].(map[string]any)["role"])

	parts := contents[2].(map[string]any)["parts"].([]any)
	require.Len(t, parts, 2)
	assert.Equal(t, map[string]any{
		"inline_data": map[string]any{"mime_type": "image/png", "data": "iVBORw0KGgo="},
	}, parts[1])
}

func TestGoogleParseResponse(t *testing.T) {
	a := NewGoogle()

	got, err := a.ParseResponse([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"a dog"}]}}]}`))
	require.NoError(t, err)
	assert.Equal(t, "a dog", got)

	got, err = a.ParseResponse([]byte(`{"candidates":[{"content":{"parts":[{"text":"hmm","thought":true},{"text":"a dog"}]}}]}`))
	require.NoError(t, err)
	assert.Equal(t, "<think>hmm</think>\n\na dog", got)

	_, err = a.ParseResponse([]byte(`{"candidates":[]}`))
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestCohereBuildRequest(t *testing.T) {
	a := NewCohere()
	msgs := []*aisdk.Message{
		aisdk.NewTextMessage(aisdk.RoleSystem, "be brief"),
		aisdk.NewTextMessage(aisdk.RoleUser, "hello"),
		aisdk.NewTextMessage(aisdk.RoleAssistant, "hi"),
		aisdk.NewTextMessage(aisdk.RoleUser, "how are you?"),
	}
	req, err := a.BuildRequest(msgs, testModel("cohere", "command-r-plus"), testCreds(), Options{})
	require.NoError(t, err)

	assert.Equal(t, "https://api.cohere.ai/v1/chat", req.URL)
	assert.Equal(t, "Bearer sk-test", req.Headers["Authorization"])

	body := decodeBody(t, req)
	assert.Equal(t, "how are you?", body["message"])
	assert.Equal(t, "be brief", body["preamble"])
	assert.Equal(t, []any{
		map[string]any{"role": "USER", "message": "hello"},
		map[string]any{"role": "CHATBOT", "message": "hi"},
	}, body["chat_history"])
}

func TestCohereRejectsImages(t *testing.T) {
	_, err := NewCohere().BuildRequest(visionConversation(), testModel("cohere", "command-r"), testCreds(), Options{})
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.False(t, NewCohere().SupportsVision())
}

func TestCohereParseResponse(t *testing.T) {
	got, err := NewCohere().ParseResponse([]byte(`{"text":"fine","generation_id":"g"}`))
	require.NoError(t, err)
	assert.Equal(t, "fine", got)

	_, err = NewCohere().ParseResponse([]byte(`{"generation_id":"g"}`))
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestBuildTextRequest(t *testing.T) {
	req, err := BuildTextRequest(NewOpenAI(), "sys", "ping", testModel("openai", "gpt-4o-mini"), testCreds(), Options{})
	require.NoError(t, err)

	msgs := decodeBody(t, req)["messages"].([]any)
	assert.Equal(t, []any{
		map[string]any{"role": "system", "content": "sys"},
		map[string]any{"role": "user", "content": "ping"},
	}, msgs)

	assert.Len(t, TextMessages("  ", "ping"), 1)
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.ElementsMatch(t, registry.ProviderIDs(), r.IDs())

	a, err := r.Get("anthropic")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", a.ID())

	_, err = r.Get("mystery")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestClientComplete(t *testing.T) {
	var gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"choices":[{"message":{"content":"pong"}}]}`)
	}))
	defer srv.Close()

	creds := testCreds()
	creds.BaseURL = srv.URL
	client := NewClient(Config{})

	text, err := client.Complete(context.Background(), NewOpenAI(), TextMessages("", "ping"), testModel("openai", "gpt-4o"), creds, Options{})
	require.NoError(t, err)
	assert.Equal(t, "pong", text)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Contains(t, gotBody, `"content":"ping"`)
}

func TestClientSurfacesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-ID", "abc")
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error":"rate limited"}`)
	}))
	defer srv.Close()

	creds := testCreds()
	creds.BaseURL = srv.URL
	client := NewClient(Config{RequestsPerMinute: 600, BurstSize: 2})

	_, err := client.Complete(context.Background(), NewOpenAI(), TextMessages("", "ping"), testModel("openai", "gpt-4o"), creds, Options{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, `{"error":"rate limited"}`, apiErr.Body)
	assert.Equal(t, "rate limited", apiErr.Message)
	assert.Equal(t, "abc", apiErr.RequestID)
	assert.True(t, strings.Contains(err.Error(), "429"))
}

func TestClientRateLimiterHonoursContext(t *testing.T) {
	client := NewClient(Config{RequestsPerMinute: 1, BurstSize: 1})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	req := &HTTPRequest{Method: http.MethodGet, URL: srv.URL}
	_, err := client.Do(context.Background(), "test", req)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.Do(ctx, "test", req)
	assert.Error(t, err)
}
