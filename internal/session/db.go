package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/justestif/smart-mood-player/internal/db"
	"github.com/justestif/smart-mood-player/internal/intent"
)

// DBStore keeps sessions in PostgreSQL so they survive restarts and are
// shared between server instances.
type DBStore struct {
	database *db.DB
}

// NewDBStore creates a database-backed store.
func NewDBStore(database *db.DB) *DBStore {
	return &DBStore{database: database}
}

// Context returns the session's context tag; unknown sessions have none.
func (s *DBStore) Context(ctx context.Context, id string) (intent.Context, error) {
	c, err := s.database.Conversations().Get(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return intent.ContextNone, nil
	}
	if err != nil {
		return intent.ContextNone, err
	}
	return intent.Context(c.Context), nil
}

// SetContext stores the session's context tag.
func (s *DBStore) SetContext(ctx context.Context, id string, c intent.Context) error {
	return s.database.Conversations().SetContext(ctx, id, string(c))
}

// AppendTurn records a turn and trims history to HistoryLimit.
func (s *DBStore) AppendTurn(ctx context.Context, id string, t Turn) error {
	err := s.database.Turns().Append(ctx, &db.Turn{
		ConversationID: id,
		Role:           string(t.Role),
		Text:           t.Text,
		Intent:         t.Intent,
		CreatedAt:      t.At,
	})
	if err != nil {
		return err
	}
	return s.database.Turns().Trim(ctx, id, HistoryLimit)
}

// History returns up to n of the latest turns, oldest first.
func (s *DBStore) History(ctx context.Context, id string, n int) ([]Turn, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.database.Turns().Recent(ctx, id, n)
	if err != nil {
		return nil, err
	}

	turns := make([]Turn, len(rows))
	for i, r := range rows {
		turns[i] = Turn{
			Role:   Role(r.Role),
			Text:   r.Text,
			Intent: r.Intent,
			At:     r.CreatedAt,
		}
	}
	return turns, nil
}

// Reset deletes the conversation and its turns.
func (s *DBStore) Reset(ctx context.Context, id string) error {
	return s.database.Conversations().Delete(ctx, id)
}

// Prune deletes conversations idle for longer than ttl, turns included.
func (s *DBStore) Prune(ctx context.Context, ttl time.Duration) (int, error) {
	n, err := s.database.Conversations().DeleteIdle(ctx, time.Now().Add(-ttl))
	if err != nil {
		return 0, fmt.Errorf("pruning sessions: %w", err)
	}
	return int(n), nil
}
