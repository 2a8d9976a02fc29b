package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/georgysavva/scany/v2/sqlscan"
)

// GetConversationByID retrieves a conversation header by its ID. It returns
// nil, nil when the conversation doesn't exist.
func GetConversationByID(ctx context.Context, db sqlscan.Querier, id string) (*Conversation, error) {
	query := `SELECT id, title, last_mode_used, created_at, updated_at FROM conversations WHERE id = ?`
	var conv Conversation
	if err := sqlscan.Get(ctx, db, &conv, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &conv, nil
}

// ListConversationSummaries returns conversation headers, most recently updated
// first. A limit of zero or less returns all of them.
func ListConversationSummaries(ctx context.Context, db sqlscan.Querier, limit int) ([]ConversationSummary, error) {
	query := `
	SELECT c.id, c.title, c.last_mode_used, c.created_at, c.updated_at,
		(SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id) AS message_count
	FROM conversations c
	ORDER BY c.updated_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var out []ConversationSummary
	if err := sqlscan.Select(ctx, db, &out, query, args...); err != nil {
		return nil, err
	}
	return out, nil
}

// UpsertConversation inserts a conversation header or updates the existing one.
func UpsertConversation(ctx context.Context, db Execer, conv *Conversation) error {
	query := `
	INSERT INTO conversations (id, title, last_mode_used, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		title = excluded.title,
		last_mode_used = excluded.last_mode_used,
		updated_at = excluded.updated_at`
	_, err := db.ExecContext(ctx, query, conv.ID, conv.Title, conv.LastModeUsed, conv.CreatedAt, conv.UpdatedAt)
	return err
}

// DeleteConversationByID removes a conversation and its messages. It reports
// whether a conversation was removed.
func DeleteConversationByID(ctx context.Context, db Execer, id string) (bool, error) {
	if err := DeleteMessagesByConversationID(ctx, db, id); err != nil {
		return false, err
	}
	res, err := db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetMessagesByConversationID retrieves the messages of a conversation in order.
func GetMessagesByConversationID(ctx context.Context, db sqlscan.Querier, conversationID string) ([]Message, error) {
	query := `SELECT id, conversation_id, position, role, content, created_at FROM messages WHERE conversation_id = ? ORDER BY position`
	var messages []Message
	if err := sqlscan.Select(ctx, db, &messages, query, conversationID); err != nil {
		return nil, err
	}
	return messages, nil
}

// DeleteMessagesByConversationID removes every message of a conversation.
func DeleteMessagesByConversationID(ctx context.Context, db Execer, conversationID string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = ?`, conversationID)
	return err
}

// CreateMessage inserts a message.
func CreateMessage(ctx context.Context, db Execer, message *Message) error {
	query := `INSERT INTO messages (id, conversation_id, position, role, content, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query, message.ID, message.ConversationID, message.Position, message.Role, message.Content, message.CreatedAt)
	return err
}
