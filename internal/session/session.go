// Package session keeps each conversation's context tag and recent turns.
package session

import (
	"context"
	"time"

	"github.com/justestif/smart-mood-player/internal/intent"
)

// HistoryLimit is how many turns a store keeps per session.
const HistoryLimit = 10

// Role tells who sent a turn.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Turn is one chat message.
type Turn struct {
	Role   Role
	Text   string
	Intent string
	At     time.Time
}

// Store defines the interface for per-session conversation state.
type Store interface {
	Context(ctx context.Context, id string) (intent.Context, error)
	SetContext(ctx context.Context, id string, c intent.Context) error
	AppendTurn(ctx context.Context, id string, t Turn) error
	// History returns up to n of the latest turns, oldest first.
	History(ctx context.Context, id string, n int) ([]Turn, error)
	// Reset forgets the session's context and turns.
	Reset(ctx context.Context, id string) error
}

// Ensure both stores implement Store.
var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*DBStore)(nil)
)
