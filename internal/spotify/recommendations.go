package spotify

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/zmb3/spotify/v2"

	"github.com/justestif/smart-mood-player/internal/mood"
	"github.com/justestif/smart-mood-player/internal/vibe"
)

// SeedGenres are the genres Recommend draws its seeds from.
var SeedGenres = []string{"pop", "rock", "edm", "hip-hop", "jazz", "classical", "indie", "reggae"}

// Recommend returns tracks matching the audio profile of a mood, seeded
// with two genres. When audio features are available the tracks are
// ordered by closeness to the profile and labelled with their vibe group.
func (c *Client) Recommend(ctx context.Context, label mood.Label) ([]TrackRecord, error) {
	genres := c.pickGenres(SeedGenres, seedGenreCount)
	profile := vibe.ForMood(label)

	args := append([]string{string(label)}, genres...)
	return cached(ctx, c, "recommendations", cacheKey("recommend", args...), func(ctx context.Context) ([]TrackRecord, error) {
		attrs := spotify.NewTrackAttributes().
			TargetValence(profile.Valence).
			TargetEnergy(profile.Energy)
		if profile.Tempo != 0 {
			attrs = attrs.TargetTempo(profile.Tempo)
		}

		recs, err := c.api.GetRecommendations(ctx, spotify.Seeds{Genres: genres}, attrs,
			spotify.Limit(recommendationLimit), spotify.Market(c.market))
		if err != nil {
			return nil, fmt.Errorf("getting recommendations for %s: %w", label, err)
		}
		if recs == nil {
			return nil, nil
		}

		tracks := make([]TrackRecord, 0, len(recs.Tracks))
		for _, t := range recs.Tracks {
			tracks = append(tracks, convertSimpleTrack(t))
		}
		tracks = dedupeTracks(tracks)

		features, err := c.audioFeatures(ctx, tracks)
		if err != nil {
			c.log.Warn().Err(err).Msg("audio features unavailable, keeping catalog order")
			return tracks, nil
		}
		return arrange(tracks, profile, features), nil
	})
}

// audioFeatures fetches features for tracks, keyed by track ID.
func (c *Client) audioFeatures(ctx context.Context, tracks []TrackRecord) (map[string]vibe.Features, error) {
	ids := make([]spotify.ID, 0, len(tracks))
	for _, t := range tracks {
		if t.ID != "" {
			ids = append(ids, spotify.ID(t.ID))
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	found, err := c.api.GetAudioFeatures(ctx, ids...)
	if err != nil {
		return nil, fmt.Errorf("fetching audio features: %w", err)
	}

	features := make(map[string]vibe.Features, len(found))
	for _, f := range found {
		if f == nil {
			continue
		}
		features[f.ID.String()] = vibe.Features{
			ID:           f.ID.String(),
			Energy:       f.Energy,
			Valence:      f.Valence,
			Danceability: f.Danceability,
			Acousticness: f.Acousticness,
			Tempo:        f.Tempo,
		}
	}
	return features, nil
}

// arrange orders tracks by distance to profile and names the vibe group
// of every track k-means could place.
func arrange(tracks []TrackRecord, profile vibe.Profile, features map[string]vibe.Features) []TrackRecord {
	if len(features) == 0 {
		return tracks
	}

	// Tracks are keyed by position so ID-less tracks stay distinct.
	keys := make([]string, len(tracks))
	byKey := make(map[string]vibe.Features, len(tracks))
	var featured []vibe.Features
	for i, t := range tracks {
		keys[i] = strconv.Itoa(i)
		if f, ok := features[t.ID]; ok && t.ID != "" {
			f.ID = keys[i]
			byKey[keys[i]] = f
			featured = append(featured, f)
		}
	}

	labelled := slices.Clone(tracks)
	groups, _ := vibe.Group(featured, vibe.DefaultGroupConfig())
	for _, g := range groups {
		for _, key := range g.IDs {
			i, _ := strconv.Atoi(key)
			labelled[i].Vibe = g.Name
		}
	}

	out := make([]TrackRecord, 0, len(tracks))
	for _, key := range vibe.Rank(profile, keys, byKey) {
		i, _ := strconv.Atoi(key)
		out = append(out, labelled[i])
	}
	return out
}
