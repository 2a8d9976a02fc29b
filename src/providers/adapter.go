// Package providers translates provider-neutral message lists into the wire
// formats of each supported LLM provider and parses their replies.
package providers

import (
	"fmt"
	"sort"
	"strings"

	"github.com/elee1766/lenschat/src/aisdk"
)

// Options carry per-request values computed outside the adapter.
type Options struct {
	// MaxTokens is the output token limit to request. Zero falls back to the
	// model's configured value.
	MaxTokens int
}

// HTTPRequest is a provider request ready to be issued.
type HTTPRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Adapter converts between the neutral message model and one provider's API.
type Adapter interface {
	// ID returns the provider id the adapter serves.
	ID() string
	// SupportsVision reports whether the wire format can carry images at all.
	SupportsVision() bool
	// BuildRequest produces the HTTP request for messages.
	BuildRequest(messages []*aisdk.Message, model *aisdk.ModelConfig, creds *aisdk.Credentials, opts Options) (*HTTPRequest, error)
	// ParseResponse extracts the reply text from a successful response body.
	ParseResponse(body []byte) (string, error)
}

// TextMessages builds the message list of a text-only request.
func TextMessages(systemPrompt, prompt string) []*aisdk.Message {
	var msgs []*aisdk.Message
	if strings.TrimSpace(systemPrompt) != "" {
		msgs = append(msgs, aisdk.NewTextMessage(aisdk.RoleSystem, systemPrompt))
	}
	return append(msgs, aisdk.NewTextMessage(aisdk.RoleUser, prompt))
}

// BuildTextRequest builds a single-turn text request with any adapter.
func BuildTextRequest(a Adapter, systemPrompt, prompt string, model *aisdk.ModelConfig, creds *aisdk.Credentials, opts Options) (*HTTPRequest, error) {
	return a.BuildRequest(TextMessages(systemPrompt, prompt), model, creds, opts)
}

// Registry maps provider ids to adapters.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry creates a registry holding adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// DefaultRegistry returns a registry with every built-in adapter.
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewOpenAI(),
		NewAnthropic(),
		NewGoogle(),
		NewCohere(),
		NewOpenRouter(OpenRouterOptions{}),
		NewCustom(),
	)
}

// Register adds or replaces an adapter.
func (r *Registry) Register(a Adapter) {
	r.adapters[a.ID()] = a
}

// Get returns the adapter for providerID.
func (r *Registry) Get(providerID string) (Adapter, error) {
	a, ok := r.adapters[providerID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, providerID)
	}
	return a, nil
}

// IDs returns the registered provider ids in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// maxTokensFor resolves the output limit for a request.
func maxTokensFor(model *aisdk.ModelConfig, opts Options) int {
	if opts.MaxTokens > 0 {
		return opts.MaxTokens
	}
	return model.Settings.MaxTokens
}

// splitSystem separates system messages from the conversation turns.
func splitSystem(messages []*aisdk.Message) (system []string, turns []*aisdk.Message) {
	for _, m := range messages {
		if m == nil {
			continue
		}
		if m.Role == aisdk.RoleSystem {
			system = append(system, m.Text())
			continue
		}
		turns = append(turns, m)
	}
	return system, turns
}

func optionalFloat(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return &v
}

func optionalInt(v int) *int {
	if v <= 0 {
		return nil
	}
	return &v
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

func jsonHeaders() map[string]string {
	return map[string]string{"Content-Type": "application/json"}
}
