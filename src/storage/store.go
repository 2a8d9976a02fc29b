package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/elee1766/lenschat/src/aisdk"
	"github.com/elee1766/lenschat/src/conversation"
)

// ErrNotFound indicates the conversation is not stored.
var ErrNotFound = errors.New("conversation not stored")

// Store maps in-memory conversations onto the database.
type Store struct {
	db     *DB
	logger *slog.Logger
}

// NewStore creates a store backed by db.
func NewStore(db *DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		db:     db,
		logger: logger.With("component", "conversation_storage"),
	}
}

// SaveConversation writes the conversation header and replaces its stored
// messages with the committed ones. Typing placeholders are never written.
func (s *Store) SaveConversation(ctx context.Context, conv *conversation.Conversation) error {
	messages := conv.Committed()

	tx, err := s.db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	header := &Conversation{
		ID:           conv.ID,
		Title:        conv.Title,
		LastModeUsed: conv.GetLastModeUsed(),
		CreatedAt:    conv.CreatedAt,
		UpdatedAt:    conv.LastUpdated,
	}
	if err := UpsertConversation(ctx, tx, header); err != nil {
		return fmt.Errorf("failed to save conversation %s: %w", conv.ID, err)
	}
	if err := DeleteMessagesByConversationID(ctx, tx, conv.ID); err != nil {
		return fmt.Errorf("failed to clear messages of %s: %w", conv.ID, err)
	}
	for i, m := range messages {
		row := &Message{
			ID:             m.ID,
			ConversationID: conv.ID,
			Position:       i,
			Role:           string(m.Role),
			Content:        m.Content,
			CreatedAt:      m.Timestamp,
		}
		if err := CreateMessage(ctx, tx, row); err != nil {
			return fmt.Errorf("failed to save message %s: %w", m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit conversation %s: %w", conv.ID, err)
	}
	s.logger.Debug("conversation saved", "conversation_id", conv.ID, "messages", len(messages))
	return nil
}

// LoadConversation rebuilds a stored conversation. The returned messages are
// meant for conversation.Store.Adopt, which counts their image references.
func (s *Store) LoadConversation(ctx context.Context, id string) (*conversation.Conversation, []*conversation.Message, error) {
	header, err := GetConversationByID(ctx, s.db.db, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load conversation %s: %w", id, err)
	}
	if header == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	rows, err := GetMessagesByConversationID(ctx, s.db.db, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load messages of %s: %w", id, err)
	}

	conv := conversation.Restore(header.ID, header.Title, header.CreatedAt, header.UpdatedAt, header.LastModeUsed)
	messages := make([]*conversation.Message, 0, len(rows))
	for _, r := range rows {
		messages = append(messages, &conversation.Message{
			ID:        r.ID,
			Role:      aisdk.Role(r.Role),
			Content:   r.Content,
			Timestamp: r.CreatedAt,
		})
	}
	return conv, messages, nil
}

// RestoreInto loads a stored conversation into store and makes it current.
func (s *Store) RestoreInto(ctx context.Context, store *conversation.Store, id string) (*conversation.Conversation, error) {
	conv, messages, err := s.LoadConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	store.Adopt(conv, messages)
	return conv, nil
}

// ListConversations returns stored conversation headers, most recently updated first.
func (s *Store) ListConversations(ctx context.Context, limit int) ([]ConversationSummary, error) {
	out, err := ListConversationSummaries(ctx, s.db.db, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return out, nil
}

// DeleteConversation removes a stored conversation.
func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	tx, err := s.db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	removed, err := DeleteConversationByID(ctx, tx, id)
	if err != nil {
		return fmt.Errorf("failed to delete conversation %s: %w", id, err)
	}
	if !removed {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return tx.Commit()
}
