// Package conversation keeps the in-memory conversations of a chat session.
package conversation

import (
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/elee1766/lenschat/src/aisdk"
	"github.com/google/uuid"
)

var (
	// ErrMessageNotFound indicates the message id is not part of the conversation
	ErrMessageNotFound = errors.New("message not found")

	// ErrConversationNotFound indicates the conversation doesn't exist
	ErrConversationNotFound = errors.New("conversation not found")
)

const titleMaxRunes = 50

// RefTracker is notified whenever committed message content enters or leaves a
// conversation so that image references can be counted.
type RefTracker interface {
	UpdateRefsFromContent(content string, increment bool)
}

// Message is one turn of a conversation.
type Message struct {
	ID        string     `json:"id"`
	Role      aisdk.Role `json:"role"`
	Content   string     `json:"content"`
	Timestamp time.Time  `json:"timestamp"`
	// IsTyping marks an in-flight placeholder; it is never persisted or sent.
	IsTyping bool `json:"-"`
}

// NewMessage creates a message with a fresh id and the current time.
func NewMessage(role aisdk.Role, content string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewTypingMessage creates an assistant placeholder shown while a request is in flight.
func NewTypingMessage() *Message {
	m := NewMessage(aisdk.RoleAssistant, "")
	m.IsTyping = true
	return m
}

// Conversation is an append-only sequence of messages.
type Conversation struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	LastUpdated  time.Time `json:"last_updated"`
	LastModeUsed string    `json:"last_mode_used,omitempty"`

	mu       sync.Mutex
	messages []*Message
	refs     RefTracker
}

// New creates an empty conversation. refs may be nil.
func New(title string, refs RefTracker) *Conversation {
	now := time.Now()
	return &Conversation{
		ID:          uuid.NewString(),
		Title:       title,
		CreatedAt:   now,
		LastUpdated: now,
		refs:        refs,
	}
}

// Restore rebuilds the header of a persisted conversation. Messages are added
// through Store.Adopt so that image references are counted.
func Restore(id, title string, createdAt, lastUpdated time.Time, lastModeUsed string) *Conversation {
	return &Conversation{
		ID:           id,
		Title:        title,
		CreatedAt:    createdAt,
		LastUpdated:  lastUpdated,
		LastModeUsed: lastModeUsed,
	}
}

// Messages returns a snapshot of the messages, typing placeholders included.
func (c *Conversation) Messages() []*Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Message, len(c.messages))
	for i, m := range c.messages {
		cp := *m
		out[i] = &cp
	}
	return out
}

// Committed returns a snapshot of the messages without typing placeholders.
func (c *Conversation) Committed() []*Message {
	all := c.Messages()
	out := all[:0]
	for _, m := range all {
		if !m.IsTyping {
			out = append(out, m)
		}
	}
	return out
}

// Len returns the number of committed messages.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, m := range c.messages {
		if !m.IsTyping {
			n++
		}
	}
	return n
}

// IsEmpty reports whether the conversation has no committed messages.
func (c *Conversation) IsEmpty() bool {
	return c.Len() == 0
}

// AddMessage appends msg. Committed messages increment the references of the
// temp images their content cites.
func (c *Conversation) AddMessage(msg *Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = append(c.messages, msg)
	c.LastUpdated = time.Now()
	if msg.IsTyping {
		return
	}
	if c.Title == "" && msg.Role == aisdk.RoleUser {
		c.Title = titleFrom(msg.Content)
	}
	if c.refs != nil {
		c.refs.UpdateRefsFromContent(msg.Content, true)
	}
}

// RemoveMessage removes a message and releases its image references.
func (c *Conversation) RemoveMessage(id string) (*Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, m := range c.messages {
		if m.ID != id {
			continue
		}
		c.messages = append(c.messages[:i], c.messages[i+1:]...)
		c.LastUpdated = time.Now()
		if !m.IsTyping && c.refs != nil {
			c.refs.UpdateRefsFromContent(m.Content, false)
		}
		return m, nil
	}
	return nil, ErrMessageNotFound
}

// RemoveTyping removes every typing placeholder and returns how many were removed.
func (c *Conversation) RemoveTyping() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.messages[:0]
	removed := 0
	for _, m := range c.messages {
		if m.IsTyping {
			removed++
			continue
		}
		kept = append(kept, m)
	}
	clear(c.messages[len(kept):])
	c.messages = kept
	return removed
}

// EditMessage replaces the content of a committed message, moving image
// references from the old content to the new one.
func (c *Conversation) EditMessage(id, content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, m := range c.messages {
		if m.ID != id || m.IsTyping {
			continue
		}
		if c.refs != nil {
			c.refs.UpdateRefsFromContent(content, true)
			c.refs.UpdateRefsFromContent(m.Content, false)
		}
		m.Content = content
		c.LastUpdated = time.Now()
		return nil
	}
	return ErrMessageNotFound
}

// Last returns the last message, or nil.
func (c *Conversation) Last() *Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.messages) == 0 {
		return nil
	}
	cp := *c.messages[len(c.messages)-1]
	return &cp
}

// SetLastModeUsed records the mode whose prompt was last applied.
func (c *Conversation) SetLastModeUsed(mode string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.LastModeUsed = mode
}

// GetLastModeUsed returns the mode whose prompt was last applied.
func (c *Conversation) GetLastModeUsed() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.LastModeUsed
}

// Release drops every message and their image references.
func (c *Conversation) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.messages {
		if !m.IsTyping && c.refs != nil {
			c.refs.UpdateRefsFromContent(m.Content, false)
		}
	}
	c.messages = nil
	c.LastUpdated = time.Now()
}

func titleFrom(content string) string {
	if utf8.RuneCountInString(content) <= titleMaxRunes {
		return content
	}
	return string([]rune(content)[:titleMaxRunes]) + "..."
}

// ErrorPrefix marks assistant messages that record a failed exchange.
const ErrorPrefix = "⚠️ Error: "

// IsError reports whether m records a failed exchange.
func (m *Message) IsError() bool {
	return m.Role == aisdk.RoleAssistant && strings.HasPrefix(m.Content, ErrorPrefix)
}

// NewErrorMessage creates an assistant message recording err.
func NewErrorMessage(err error) *Message {
	return NewMessage(aisdk.RoleAssistant, ErrorPrefix+err.Error())
}
