package spotify

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	var got []TrackRecord
	assert.ErrorIs(t, c.Get(ctx, "missing", &got), ErrCacheMiss)

	want := []TrackRecord{{ID: "1", Name: "Hello", Artist: "Adele", AllArtists: []string{"Adele"}}}
	require.NoError(t, c.Set(ctx, "k", want, time.Minute))
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, want, got)

	now = now.Add(2 * time.Minute)
	assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "other", want, time.Minute))
	c.mu.RLock()
	_, stale := c.entries["k"]
	c.mu.RUnlock()
	assert.False(t, stale, "expired entries are evicted on write")
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx := context.Background()
	c, err := NewRedisCache(ctx, RedisConfig{Addr: addr, Prefix: "smp:test:" + uuid.NewString() + ":"})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	var got []PlaylistRecord
	assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrCacheMiss)

	want := []PlaylistRecord{{Name: "Chill", Owner: "Owner", URL: "u", TracksTotal: 10}}
	require.NoError(t, c.Set(ctx, "k", want, time.Minute))
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, want, got)
}
