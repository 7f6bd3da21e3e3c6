// Package spotify searches the Spotify catalog for tracks, artists,
// playlists and mood-based recommendations.
package spotify

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/zmb3/spotify/v2"

	"github.com/justestif/smart-mood-player/internal/metrics"
)

// Defaults for a new Client.
const (
	DefaultMarket      = "US"
	DefaultLimit       = 5
	DefaultCacheTTL    = 10 * time.Minute
	DefaultConcurrency = 3
)

const (
	playlistLimit       = 10
	topTracksLimit      = 10
	recommendationLimit = 15
	seedGenreCount      = 2
)

// GenrePicker chooses n seed genres from the candidates.
type GenrePicker func(genres []string, n int) []string

// RandomGenres picks n distinct genres at random.
func RandomGenres(genres []string, n int) []string {
	n = min(n, len(genres))
	out := make([]string, 0, n)
	for _, i := range rand.Perm(len(genres))[:n] {
		out = append(out, genres[i])
	}
	return out
}

// Client wraps the Spotify API client with search strategies, scoring
// and caching.
type Client struct {
	api         *spotify.Client
	cache       Cache
	ttl         time.Duration
	market      string
	limit       int
	concurrency int
	pickGenres  GenrePicker
	log         zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithCache enables response caching for ttl.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(cl *Client) {
		cl.cache = c
		if ttl > 0 {
			cl.ttl = ttl
		}
	}
}

// WithMarket sets the market used for searches and top tracks.
func WithMarket(market string) Option {
	return func(c *Client) {
		if market != "" {
			c.market = strings.ToUpper(market)
		}
	}
}

// WithLimit sets the number of tracks returned by SearchTracks.
func WithLimit(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.limit = n
		}
	}
}

// WithConcurrency sets how many fallback playlist searches run at once.
func WithConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithGenrePicker replaces the seed genre selection for Recommend.
func WithGenrePicker(p GenrePicker) Option {
	return func(c *Client) {
		if p != nil {
			c.pickGenres = p
		}
	}
}

// WithLogger sets the client's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// New creates a new catalog client.
// The underlying client should already be authenticated.
func New(api *spotify.Client, opts ...Option) *Client {
	c := &Client{
		api:         api,
		ttl:         DefaultCacheTTL,
		market:      DefaultMarket,
		limit:       DefaultLimit,
		concurrency: DefaultConcurrency,
		pickGenres:  RandomGenres,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func cacheKey(op string, args ...string) string {
	for i, a := range args {
		args[i] = strings.ToLower(strings.TrimSpace(a))
	}
	return op + ":" + strings.Join(args, "|")
}

// cached serves key from the cache or runs fetch and stores its result.
// Cache failures are logged and never fail the call.
func cached[T any](ctx context.Context, c *Client, op, key string, fetch func(context.Context) (T, error)) (T, error) {
	if c.cache != nil {
		var v T
		err := c.cache.Get(ctx, key, &v)
		if err == nil {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			return v, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			c.log.Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
		}
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	}

	start := time.Now()
	v, err := fetch(ctx)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.CatalogRequests.WithLabelValues(op, status).Inc()
	c.log.Debug().
		Str("op", op).
		Str("key", key).
		Dur("took", time.Since(start)).
		Err(err).
		Msg("catalog request")
	if err != nil {
		return v, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, v, c.ttl); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
		}
	}
	return v, nil
}
