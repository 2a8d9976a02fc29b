package manager

import (
	"context"

	"github.com/elee1766/lenschat/src/conversation"
	"github.com/elee1766/lenschat/src/imagestore"
)

// AddPendingImage stores an image for the next send and returns its temp id.
// The image holds no reference until the message citing it is committed.
func (m *Manager) AddPendingImage(dataURI string, source imagestore.Source, fileName string) string {
	id := m.images.AddTempImage(dataURI, source, fileName)
	m.mu.Lock()
	m.pending = append(m.pending, id)
	m.mu.Unlock()
	return id
}

// DiscardPendingImage drops a pending image before it is sent.
func (m *Manager) DiscardPendingImage(id string) bool {
	m.mu.Lock()
	found := false
	for i, p := range m.pending {
		if p == id {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			found = true
			break
		}
	}
	m.mu.Unlock()
	if found {
		m.images.RemoveRef(id)
	}
	return found
}

// PendingImages returns the temp ids waiting for the next send.
func (m *Manager) PendingImages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.pending...)
}

// Current returns the current conversation, creating one if needed.
func (m *Manager) Current() *conversation.Conversation {
	return m.conversations.Current()
}

// Conversations lists the in-memory conversations, most recent first.
func (m *Manager) Conversations() []*conversation.Conversation {
	return m.conversations.List()
}

// NewConversation starts an empty conversation and makes it current.
func (m *Manager) NewConversation() *conversation.Conversation {
	return m.conversations.Create("")
}

// SwitchConversation makes the conversation with id current.
func (m *Manager) SwitchConversation(id string) (*conversation.Conversation, error) {
	return m.conversations.SetCurrent(id)
}

// ClearConversation empties the current conversation and forgets its last mode,
// releasing every image it referenced.
func (m *Manager) ClearConversation(ctx context.Context) *conversation.Conversation {
	conv := m.conversations.Current()
	conv.Release()
	conv.SetLastModeUsed("")
	m.save(ctx, conv)
	return conv
}

// DeleteConversation removes a conversation from memory.
func (m *Manager) DeleteConversation(id string) error {
	return m.conversations.Remove(id)
}

// EditMessage replaces the content of a message in the current conversation.
func (m *Manager) EditMessage(ctx context.Context, messageID, content string) error {
	conv := m.conversations.Current()
	if err := conv.EditMessage(messageID, content); err != nil {
		return err
	}
	m.save(ctx, conv)
	return nil
}

// RemoveMessage removes a message from the current conversation.
func (m *Manager) RemoveMessage(ctx context.Context, messageID string) error {
	conv := m.conversations.Current()
	if _, err := conv.RemoveMessage(messageID); err != nil {
		return err
	}
	m.save(ctx, conv)
	return nil
}
