package storage

import "time"

// Conversation is the persisted header of a conversation.
type Conversation struct {
	ID           string    `json:"id" db:"id"`
	Title        string    `json:"title" db:"title"`
	LastModeUsed string    `json:"last_mode_used" db:"last_mode_used"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// ConversationSummary is a conversation header with its message count, as listed by history views.
type ConversationSummary struct {
	Conversation
	MessageCount int `json:"message_count" db:"message_count"`
}

// Message is a committed message. Position orders messages within a conversation.
type Message struct {
	ID             string    `json:"id" db:"id"`
	ConversationID string    `json:"conversation_id" db:"conversation_id"`
	Position       int       `json:"position" db:"position"`
	Role           string    `json:"role" db:"role"`
	Content        string    `json:"content" db:"content"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
