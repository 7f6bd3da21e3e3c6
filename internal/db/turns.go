package db

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TurnRepository handles turn database operations.
type TurnRepository struct {
	pool *pgxpool.Pool
}

// Append inserts a turn, filling in its ID and timestamp when unset. The
// conversation row is created if it does not exist yet.
func (r *TurnRepository) Append(ctx context.Context, t *Turn) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	ensure := `
		INSERT INTO conversations (id) VALUES ($1)
		ON CONFLICT (id) DO UPDATE SET updated_at = NOW()
	`
	if _, err := tx.Exec(ctx, ensure, t.ConversationID); err != nil {
		return fmt.Errorf("touching conversation: %w", err)
	}

	insert := `
		INSERT INTO turns (id, conversation_id, role, text, intent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := tx.Exec(ctx, insert, t.ID, t.ConversationID, t.Role, t.Text, t.Intent, t.CreatedAt); err != nil {
		return fmt.Errorf("inserting turn: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing turn: %w", err)
	}
	return nil
}

// Recent returns up to n of the latest turns, oldest first.
func (r *TurnRepository) Recent(ctx context.Context, conversationID string, n int) ([]Turn, error) {
	query := `
		SELECT id, conversation_id, role, text, intent, created_at
		FROM turns
		WHERE conversation_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, conversationID, n)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}

	turns, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Turn, error) {
		var t Turn
		err := row.Scan(&t.ID, &t.ConversationID, &t.Role, &t.Text, &t.Intent, &t.CreatedAt)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning turns: %w", err)
	}

	slices.Reverse(turns)
	return turns, nil
}

// Trim keeps only the latest keep turns of a conversation.
func (r *TurnRepository) Trim(ctx context.Context, conversationID string, keep int) error {
	query := `
		DELETE FROM turns
		WHERE conversation_id = $1 AND id NOT IN (
			SELECT id FROM turns
			WHERE conversation_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		)
	`
	if _, err := r.pool.Exec(ctx, query, conversationID, keep); err != nil {
		return fmt.Errorf("trimming turns: %w", err)
	}
	return nil
}
