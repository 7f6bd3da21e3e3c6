package spotify

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/zmb3/spotify/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SearchTracks finds tracks for a title and an optional artist. It tries,
// in order: an exact field search for title and artist, a scored
// title-only search, the artist's top tracks filtered by title, and a
// scored search on the plain query. The first strategy with results wins.
// No results is not an error.
func (c *Client) SearchTracks(ctx context.Context, title, artist string) ([]TrackRecord, error) {
	title, artist = strings.TrimSpace(title), strings.TrimSpace(artist)
	if title == "" && artist == "" {
		return nil, nil
	}

	return cached(ctx, c, "search_tracks", cacheKey("tracks", title, artist), func(ctx context.Context) ([]TrackRecord, error) {
		tracks, err := c.searchTracks(ctx, title, artist)
		if err != nil {
			return nil, fmt.Errorf("searching tracks: %w", err)
		}
		return tracks, nil
	})
}

func (c *Client) searchTracks(ctx context.Context, title, artist string) ([]TrackRecord, error) {
	if title != "" && artist != "" {
		hits, err := c.trackHits(ctx, fmt.Sprintf(`track:"%s" artist:"%s"`, title, artist), c.limit)
		if err != nil {
			return nil, err
		}
		if len(hits) > 0 {
			return truncate(dedupeTracks(convertFullTracks(hits)), c.limit), nil
		}
	}

	if title != "" {
		hits, err := c.trackHits(ctx, title, 2*c.limit)
		if err != nil {
			return nil, err
		}
		if len(hits) > 0 {
			return rankHits(hits, title, artist, c.limit), nil
		}
	}

	if artist != "" {
		top, err := c.artistTopTracks(ctx, artist)
		if err != nil {
			return nil, err
		}
		if len(top) > 0 {
			if title != "" {
				var matching []TrackRecord
				for _, t := range top {
					if strings.Contains(strings.ToLower(t.Name), strings.ToLower(title)) {
						matching = append(matching, t)
					}
				}
				if len(matching) > 0 {
					return truncate(matching, c.limit), nil
				}
			}
			return truncate(top, c.limit), nil
		}
	}

	query := strings.TrimSpace(title + " " + artist)
	hits, err := c.trackHits(ctx, query, 2*c.limit)
	if err != nil {
		return nil, err
	}
	if title == "" {
		title = query
	}
	return rankHits(hits, title, artist, c.limit), nil
}

func (c *Client) trackHits(ctx context.Context, query string, limit int) ([]spotify.FullTrack, error) {
	res, err := c.api.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(limit), spotify.Market(c.market))
	if err != nil {
		return nil, err
	}
	if res == nil || res.Tracks == nil {
		return nil, nil
	}
	return res.Tracks.Tracks, nil
}

// rankHits dedupes, scores and sorts search hits by (score, popularity)
// descending and keeps the first limit.
func rankHits(hits []spotify.FullTrack, title, artist string, limit int) []TrackRecord {
	type scored struct {
		score float64
		track TrackRecord
	}

	seen := make(map[trackKey]struct{}, len(hits))
	var ranked []scored
	for _, h := range hits {
		t := convertFullTrack(h)
		k := trackKey{strings.ToLower(t.Name), strings.ToLower(t.Artist)}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		ranked = append(ranked, scored{score: scoreTrack(h, title, artist), track: t})
	}

	slices.SortStableFunc(ranked, func(a, b scored) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return cmp.Compare(b.track.Popularity, a.track.Popularity)
	})

	out := make([]TrackRecord, 0, min(limit, len(ranked)))
	for _, r := range truncate(ranked, limit) {
		out = append(out, r.track)
	}
	return out
}

// SearchArtistTopTracks finds the artist that best matches name and
// returns up to ten of their top tracks, most popular first.
func (c *Client) SearchArtistTopTracks(ctx context.Context, name string) ([]TrackRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	return c.artistTopTracks(ctx, name)
}

func (c *Client) artistTopTracks(ctx context.Context, name string) ([]TrackRecord, error) {
	return cached(ctx, c, "artist_top_tracks", cacheKey("artist", name), func(ctx context.Context) ([]TrackRecord, error) {
		artist, err := c.bestArtist(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("searching artist %q: %w", name, err)
		}
		if artist == nil {
			return nil, nil
		}

		top, err := c.api.GetArtistsTopTracks(ctx, artist.ID, c.market)
		if err != nil {
			return nil, fmt.Errorf("getting top tracks for %s: %w", artist.Name, err)
		}

		var tracks []TrackRecord
		for _, t := range top {
			if len(t.Artists) == 0 {
				continue
			}
			tracks = append(tracks, convertFullTrack(t))
		}
		slices.SortStableFunc(tracks, func(a, b TrackRecord) int {
			return cmp.Compare(b.Popularity, a.Popularity)
		})
		return truncate(dedupeTracks(tracks), topTracksLimit), nil
	})
}

type artistCandidate struct {
	similarity float64
	artist     spotify.FullArtist
}

// bestArtist searches each spelling variation of name and returns the
// candidate with the highest (similarity, popularity). An exact
// case-insensitive name match stops the search early.
func (c *Client) bestArtist(ctx context.Context, name string) (*spotify.FullArtist, error) {
	var (
		candidates []artistCandidate
		lastErr    error
	)

	for _, v := range nameVariations(name) {
		found, err := c.artistHits(ctx, fmt.Sprintf(`artist:"%s"`, v), 5)
		if err != nil {
			c.log.Debug().Err(err).Str("variation", v).Msg("artist search failed")
			lastErr = err
			continue
		}
		if len(found) == 0 && len(candidates) == 0 {
			if found, err = c.artistHits(ctx, v, 3); err != nil {
				lastErr = err
				continue
			}
		}

		exact := false
		for _, a := range found {
			sim := similarity(a.Name, name)
			if strings.EqualFold(a.Name, name) {
				sim, exact = 1.0, true
			}
			candidates = append(candidates, artistCandidate{similarity: sim, artist: a})
		}
		if exact {
			break
		}
	}

	if len(candidates) == 0 {
		return nil, lastErr
	}

	best := slices.MaxFunc(candidates, func(a, b artistCandidate) int {
		if c := cmp.Compare(a.similarity, b.similarity); c != 0 {
			return c
		}
		return cmp.Compare(a.artist.Popularity, b.artist.Popularity)
	})
	return &best.artist, nil
}

func (c *Client) artistHits(ctx context.Context, query string, limit int) ([]spotify.FullArtist, error) {
	res, err := c.api.Search(ctx, query, spotify.SearchTypeArtist, spotify.Limit(limit))
	if err != nil {
		return nil, err
	}
	if res == nil || res.Artists == nil {
		return nil, nil
	}
	return res.Artists.Artists, nil
}

var titleCaser = cases.Title(language.English)

// nameVariations lists the spellings tried for an artist: as given,
// lowercase, title case, without spaces, without punctuation, then each
// word longer than two letters of a multi-word name.
func nameVariations(name string) []string {
	candidates := []string{
		name,
		strings.ToLower(name),
		titleCaser.String(name),
		strings.ReplaceAll(name, " ", ""),
		nonWord.ReplaceAllString(name, ""),
	}
	if words := strings.Fields(name); len(words) > 1 {
		for _, w := range words {
			if len([]rune(w)) > 2 {
				candidates = append(candidates, w)
			}
		}
	}

	seen := make(map[string]struct{}, len(candidates))
	var out []string
	for _, v := range candidates {
		v = strings.TrimSpace(v)
		if len([]rune(v)) < 2 {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func convertFullTracks(hits []spotify.FullTrack) []TrackRecord {
	out := make([]TrackRecord, 0, len(hits))
	for _, h := range hits {
		out = append(out, convertFullTrack(h))
	}
	return out
}

func truncate[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
