package session

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justestif/smart-mood-player/internal/db"
	"github.com/justestif/smart-mood-player/internal/intent"
)

// exerciseStore runs the behaviour every Store must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	id := uuid.NewString()
	t.Cleanup(func() { _ = s.Reset(ctx, id) })

	c, err := s.Context(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, intent.ContextNone, c, "new sessions have no context")

	require.NoError(t, s.SetContext(ctx, id, intent.ContextSongProvided))
	c, err = s.Context(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, intent.ContextSongProvided, c)

	base := time.Now().Add(-time.Hour)
	for i := range HistoryLimit + 3 {
		require.NoError(t, s.AppendTurn(ctx, id, Turn{
			Role: RoleUser,
			Text: fmt.Sprintf("message %d", i),
			At:   base.Add(time.Duration(i) * time.Second),
		}))
	}

	all, err := s.History(ctx, id, 100)
	require.NoError(t, err)
	require.Len(t, all, HistoryLimit)
	assert.Equal(t, "message 3", all[0].Text)
	assert.Equal(t, fmt.Sprintf("message %d", HistoryLimit+2), all[len(all)-1].Text)

	last, err := s.History(ctx, id, 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, "message 11", last[0].Text)

	require.NoError(t, s.Reset(ctx, id))
	c, err = s.Context(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, intent.ContextNone, c)
	history, err := s.History(ctx, id, 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStoreConcurrentSessions(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := fmt.Sprintf("s%d", i%4)
			_ = s.AppendTurn(ctx, id, Turn{Role: RoleUser, Text: "hi"})
			_ = s.SetContext(ctx, id, intent.ContextMoodSearch)
		}()
	}
	wg.Wait()

	for i := range 4 {
		h, err := s.History(ctx, fmt.Sprintf("s%d", i), HistoryLimit)
		require.NoError(t, err)
		assert.Len(t, h, 5)
	}
}

func TestMemoryStorePrune(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.AppendTurn(ctx, "old", Turn{Text: "hi", At: time.Now().Add(-2 * time.Hour)}))
	require.NoError(t, s.SetContext(ctx, "fresh", intent.ContextGenreSearch))

	n, err := s.Prune(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	h, err := s.History(ctx, "old", 10)
	require.NoError(t, err)
	assert.Empty(t, h)
	c, err := s.Context(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, intent.ContextGenreSearch, c)
}

func TestDBStore(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	database, err := db.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(database.Close)
	require.NoError(t, database.Migrate(ctx))

	exerciseStore(t, NewDBStore(database))
}

func TestDBStorePruneKeepsActiveSessions(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	database, err := db.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(database.Close)
	require.NoError(t, database.Migrate(ctx))

	s := NewDBStore(database)
	id := uuid.NewString()
	t.Cleanup(func() { _ = s.Reset(ctx, id) })
	require.NoError(t, s.SetContext(ctx, id, intent.ContextMoodProvided))

	_, err = s.Prune(ctx, time.Hour)
	require.NoError(t, err)

	c, err := s.Context(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, intent.ContextMoodProvided, c)
}
