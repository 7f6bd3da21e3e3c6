package db

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is one chat session and the context tag it left off in.
type Conversation struct {
	ID        string
	Context   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Turn is one message in a conversation.
type Turn struct {
	ID             uuid.UUID
	ConversationID string
	Role           string // "user" or "bot"
	Text           string
	Intent         string // empty for bot turns
	CreatedAt      time.Time
}
