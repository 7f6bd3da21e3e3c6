package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingQuerier captures the last Exec call.
type recordingQuerier struct {
	sql  string
	args []any
	tag  pgconn.CommandTag
	err  error
}

func (q *recordingQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.sql = sql
	q.args = args
	return q.tag, q.err
}

func (q *recordingQuerier) QueryRow(context.Context, string, ...any) pgx.Row {
	panic("QueryRow not expected")
}

func TestDeleteIdle(t *testing.T) {
	before := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		tag     pgconn.CommandTag
		err     error
		want    int64
		wantErr bool
	}{
		{name: "reports deleted rows", tag: pgconn.NewCommandTag("DELETE 3"), want: 3},
		{name: "nothing idle", tag: pgconn.NewCommandTag("DELETE 0"), want: 0},
		{name: "database error", err: errors.New("connection reset"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &recordingQuerier{tag: tt.tag, err: tt.err}
			repo := &ConversationRepository{pool: q}

			n, err := repo.DeleteIdle(context.Background(), before)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
			assert.Contains(t, q.sql, "updated_at < $1")
			assert.Equal(t, []any{before}, q.args)
		})
	}
}
