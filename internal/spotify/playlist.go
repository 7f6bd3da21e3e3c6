package spotify

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/zmb3/spotify/v2"
)

// minPlaylists is the result count below which the generic fallback
// queries run.
const minPlaylists = 3

// fallbackQueries are searched when a playlist query finds too little.
var fallbackQueries = []string{"music", "songs", "playlist"}

// SearchPlaylists finds playlists for query ranked by name similarity,
// followers and size. When fewer than three are found the generic
// fallback queries are searched concurrently and merged in, skipping
// playlists already listed.
func (c *Client) SearchPlaylists(ctx context.Context, query string) ([]PlaylistRecord, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	return cached(ctx, c, "search_playlists", cacheKey("playlists", query), func(ctx context.Context) ([]PlaylistRecord, error) {
		hits, err := c.playlistHits(ctx, query, 2*playlistLimit)
		if err != nil {
			return nil, fmt.Errorf("searching playlists: %w", err)
		}

		playlists := rankPlaylists(hits, query, playlistLimit)
		if len(playlists) < minPlaylists {
			playlists = c.withFallbacks(ctx, playlists)
		}
		return playlists, nil
	})
}

func (c *Client) playlistHits(ctx context.Context, query string, limit int) ([]spotify.SimplePlaylist, error) {
	res, err := c.api.Search(ctx, query, spotify.SearchTypePlaylist, spotify.Limit(limit), spotify.Market(c.market))
	if err != nil {
		return nil, err
	}
	if res == nil || res.Playlists == nil {
		return nil, nil
	}

	// The API pads playlist results with null entries.
	hits := make([]spotify.SimplePlaylist, 0, len(res.Playlists.Playlists))
	for _, p := range res.Playlists.Playlists {
		if p.ID == "" && p.Name == "" {
			continue
		}
		hits = append(hits, p)
	}
	return hits, nil
}

// playlistScore weighs name similarity 0.5, followers 0.3 (saturating at
// 1000) and track count 0.2 (saturating at 100).
func playlistScore(p PlaylistRecord, query string) float64 {
	return similarity(p.Name, query)*0.5 +
		min(float64(p.Followers)/1000, 1)*0.3 +
		min(float64(p.TracksTotal)/100, 1)*0.2
}

func rankPlaylists(hits []spotify.SimplePlaylist, query string, limit int) []PlaylistRecord {
	type scored struct {
		score    float64
		playlist PlaylistRecord
	}

	ranked := make([]scored, 0, len(hits))
	for _, h := range hits {
		p := convertPlaylist(h)
		ranked = append(ranked, scored{score: playlistScore(p, query), playlist: p})
	}
	slices.SortStableFunc(ranked, func(a, b scored) int {
		return cmp.Compare(b.score, a.score)
	})

	out := make([]PlaylistRecord, 0, min(limit, len(ranked)))
	for _, r := range truncate(ranked, limit) {
		out = append(out, r.playlist)
	}
	return out
}

type fallbackResult struct {
	playlists []PlaylistRecord
	err       error
}

// withFallbacks appends fallback query results to playlists in query
// order. Failed fallback searches are logged and skipped.
func (c *Client) withFallbacks(ctx context.Context, playlists []PlaylistRecord) []PlaylistRecord {
	results := c.searchConcurrently(ctx, fallbackQueries)

	merged := slices.Clone(playlists)
	for i, r := range results {
		if r.err != nil {
			c.log.Warn().Err(r.err).Str("query", fallbackQueries[i]).Msg("fallback playlist search failed")
			continue
		}
		merged = append(merged, r.playlists...)
	}
	return truncate(dedupePlaylists(merged), playlistLimit)
}

// searchConcurrently runs one playlist search per query on a bounded
// worker pool. Results are returned in the same order as queries.
func (c *Client) searchConcurrently(ctx context.Context, queries []string) []fallbackResult {
	results := make([]fallbackResult, len(queries))

	type workItem struct {
		index int
		query string
	}
	workCh := make(chan workItem, len(queries))
	for i, q := range queries {
		workCh <- workItem{index: i, query: q}
	}
	close(workCh)

	var wg sync.WaitGroup
	for i := 0; i < min(c.concurrency, len(queries)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for work := range workCh {
				if err := ctx.Err(); err != nil {
					results[work.index] = fallbackResult{err: err}
					continue
				}

				hits, err := c.playlistHits(ctx, work.query, playlistLimit)
				if err != nil {
					results[work.index] = fallbackResult{err: err}
					continue
				}
				found := make([]PlaylistRecord, 0, len(hits))
				for _, h := range hits {
					found = append(found, convertPlaylist(h))
				}
				results[work.index] = fallbackResult{playlists: found}
			}
		}()
	}

	wg.Wait()
	return results
}
