package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ConversationRepository handles conversation database operations.
type ConversationRepository struct {
	pool querier
}

// Get retrieves a conversation by ID.
func (r *ConversationRepository) Get(ctx context.Context, id string) (*Conversation, error) {
	query := `
		SELECT id, context, created_at, updated_at
		FROM conversations
		WHERE id = $1
	`
	var c Conversation
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.Context,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying conversation: %w", err)
	}
	return &c, nil
}

// SetContext stores the context tag, creating the conversation if needed.
func (r *ConversationRepository) SetContext(ctx context.Context, id, tag string) error {
	query := `
		INSERT INTO conversations (id, context, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			context = EXCLUDED.context,
			updated_at = NOW()
	`
	if _, err := r.pool.Exec(ctx, query, id, tag); err != nil {
		return fmt.Errorf("upserting conversation: %w", err)
	}
	return nil
}

// Delete removes a conversation and its turns.
func (r *ConversationRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM conversations WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("deleting conversation: %w", err)
	}
	return nil
}

// DeleteIdle removes conversations not updated since before.
func (r *ConversationRepository) DeleteIdle(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM conversations WHERE updated_at < $1`
	result, err := r.pool.Exec(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("deleting idle conversations: %w", err)
	}
	return result.RowsAffected(), nil
}
