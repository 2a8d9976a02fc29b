// Package aisdk defines the provider-neutral message model shared by the context
// assembler, the token estimator and the provider adapters.
package aisdk

import (
	"strings"
	"time"
)

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single entry of an assembled context. Adapters translate it into
// their wire format; nothing here is sent to a provider as-is.
type Message struct {
	Role Role `json:"role"`
	// Content holds the text of a plain message. It is ignored when Parts is set.
	Content string `json:"content,omitempty"`
	// Parts holds multimodal content (text and images) in delivery order.
	Parts []ContentPart `json:"parts,omitempty"`
}

// NewTextMessage creates a plain text message.
func NewTextMessage(role Role, text string) *Message {
	return &Message{Role: role, Content: text}
}

// NewMultimodalMessage creates a message with a leading text part followed by
// one image part per image. It degrades to a plain message when images is empty.
func NewMultimodalMessage(role Role, text string, images []ImageContent) *Message {
	if len(images) == 0 {
		return NewTextMessage(role, text)
	}
	parts := make([]ContentPart, 0, len(images)+1)
	if text != "" {
		parts = append(parts, NewTextPart(text))
	}
	for _, img := range images {
		parts = append(parts, NewImagePart(img))
	}
	return &Message{Role: role, Parts: parts}
}

// IsMultimodal reports whether the message carries content parts.
func (m *Message) IsMultimodal() bool {
	return len(m.Parts) > 0
}

// Text returns the textual content of the message, joining text parts with a newline.
func (m *Message) Text() string {
	if !m.IsMultimodal() {
		return m.Content
	}
	var texts []string
	for _, p := range m.Parts {
		if p.Type == ContentTypeText {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// TextSegments returns every text segment of the message.
func (m *Message) TextSegments() []string {
	if !m.IsMultimodal() {
		return []string{m.Content}
	}
	var texts []string
	for _, p := range m.Parts {
		if p.Type == ContentTypeText {
			texts = append(texts, p.Text)
		}
	}
	return texts
}

// Images returns the image parts of the message.
func (m *Message) Images() []ImageContent {
	var images []ImageContent
	for _, p := range m.Parts {
		if p.Type == ContentTypeImage && p.Image != nil {
			images = append(images, *p.Image)
		}
	}
	return images
}

// HasImages returns true if the message contains at least one image part.
func (m *Message) HasImages() bool {
	for _, p := range m.Parts {
		if p.Type == ContentTypeImage {
			return true
		}
	}
	return false
}

// CountImages returns the number of image parts across messages.
func CountImages(messages []*Message) int {
	n := 0
	for _, m := range messages {
		if m == nil {
			continue
		}
		n += len(m.Images())
	}
	return n
}

// ModelSettings are the sampling parameters configured for a model.
type ModelSettings struct {
	MaxTokens        int     `json:"max_tokens" validate:"min=0"`
	Temperature      float64 `json:"temperature" validate:"min=0,max=2"`
	TopP             float64 `json:"top_p" validate:"min=0,max=1"`
	FrequencyPenalty float64 `json:"frequency_penalty" validate:"min=-2,max=2"`
	PresencePenalty  float64 `json:"presence_penalty" validate:"min=-2,max=2"`
}

// CustomProvider describes an OpenAI-compatible endpoint configured by the user.
type CustomProvider struct {
	Name    string `json:"name"`
	BaseURL string `json:"base_url" validate:"omitempty,url"`
	APIPath string `json:"api_path,omitempty"`
}

// ModelConfig selects a provider model and the settings to send it with.
type ModelConfig struct {
	ID              string          `json:"id" validate:"required"`
	Name            string          `json:"name,omitempty"`
	ProviderID      string          `json:"provider_id" validate:"required,provider"`
	ModelID         string          `json:"model_id" validate:"required"`
	IsVisionCapable bool            `json:"is_vision_capable"`
	Settings        ModelSettings   `json:"settings"`
	CustomProvider  *CustomProvider `json:"custom_provider,omitempty"`
	LastUsed        time.Time       `json:"last_used,omitempty"`
}

// Credentials hold what an adapter needs to authenticate against a provider.
type Credentials struct {
	APIKey   string `json:"api_key"`
	BaseURL  string `json:"base_url,omitempty"`
	APIPath  string `json:"api_path,omitempty"`
	Verified bool   `json:"verified"`
}

// Usable reports whether the credentials may be used for a request.
func (c *Credentials) Usable() bool {
	return c != nil && c.Verified && strings.TrimSpace(c.APIKey) != ""
}
