package conversation

import (
	"log/slog"
	"sort"
	"sync"
)

// Store holds every conversation of a session and the pointer to the current one.
type Store struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
	currentID     string
	refs          RefTracker
	logger        *slog.Logger
}

// NewStore creates an empty store. refs receives reference updates for every
// conversation the store creates.
func NewStore(refs RefTracker, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		conversations: make(map[string]*Conversation),
		refs:          refs,
		logger:        logger.With("component", "conversation_store"),
	}
}

// Create makes a new conversation and makes it current. The previous
// conversation stays in memory.
func (s *Store) Create(title string) *Conversation {
	conv := New(title, s.refs)

	s.mu.Lock()
	s.conversations[conv.ID] = conv
	s.currentID = conv.ID
	s.mu.Unlock()

	s.logger.Debug("conversation created", "conversation_id", conv.ID)
	return conv
}

// Current returns the current conversation, creating one if none exists.
func (s *Store) Current() *Conversation {
	s.mu.RLock()
	conv := s.conversations[s.currentID]
	s.mu.RUnlock()
	if conv != nil {
		return conv
	}
	return s.Create("")
}

// Get returns a conversation by id.
func (s *Store) Get(id string) (*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[id]
	if !ok {
		return nil, ErrConversationNotFound
	}
	return conv, nil
}

// SetCurrent switches the current conversation.
func (s *Store) SetCurrent(id string) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[id]
	if !ok {
		return nil, ErrConversationNotFound
	}
	s.currentID = id
	return conv, nil
}

// Adopt registers a conversation built elsewhere, such as one restored from
// storage, and makes it current. Its committed messages take image references.
func (s *Store) Adopt(conv *Conversation, messages []*Message) {
	lastUpdated := conv.LastUpdated
	conv.refs = s.refs
	for _, m := range messages {
		conv.AddMessage(m)
	}
	conv.LastUpdated = lastUpdated

	s.mu.Lock()
	s.conversations[conv.ID] = conv
	s.currentID = conv.ID
	s.mu.Unlock()
}

// List returns every conversation, most recently updated first.
func (s *Store) List() []*Conversation {
	s.mu.RLock()
	out := make([]*Conversation, 0, len(s.conversations))
	for _, c := range s.conversations {
		out = append(out, c)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].LastUpdated.After(out[j].LastUpdated)
	})
	return out
}

// Remove deletes a conversation and releases its image references. Removing the
// current conversation leaves no current conversation.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	conv, ok := s.conversations[id]
	if !ok {
		s.mu.Unlock()
		return ErrConversationNotFound
	}
	delete(s.conversations, id)
	if s.currentID == id {
		s.currentID = ""
	}
	s.mu.Unlock()

	conv.Release()
	return nil
}

// Clear removes every conversation.
func (s *Store) Clear() {
	s.mu.Lock()
	convs := s.conversations
	s.conversations = make(map[string]*Conversation)
	s.currentID = ""
	s.mu.Unlock()

	for _, c := range convs {
		c.Release()
	}
}
