package spotify

import (
	"regexp"
	"strings"

	"github.com/xrash/smetrics"
	"github.com/zmb3/spotify/v2"
)

// scoreTrack rates how well a search hit matches the requested title and
// artist. Only the first credited artist is compared. The result is in
// [0, 1].
func scoreTrack(t spotify.FullTrack, title, artist string) float64 {
	if len(t.Artists) == 0 {
		return 0
	}

	name := strings.ToLower(t.Name)
	first := strings.ToLower(t.Artists[0].Name)
	title = strings.ToLower(strings.TrimSpace(title))
	artist = strings.ToLower(strings.TrimSpace(artist))

	var score float64
	if title != "" && title == name {
		score += 1.0
	}
	if artist != "" && artist == first {
		score += 0.8
	}
	if title != "" {
		score += 0.6 * overlap(title, name)
	}
	if artist != "" {
		score += 0.4 * overlap(artist, first)
	}
	score += 0.2 * float64(t.Popularity) / 100

	return min(score, 1.0)
}

// overlap is the share of want's distinct words that also occur in have.
func overlap(want, have string) float64 {
	wantWords := wordSet(want)
	if len(wantWords) == 0 {
		return 0
	}
	haveWords := wordSet(have)

	var shared int
	for w := range wantWords {
		if _, ok := haveWords[w]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(wantWords))
}

func wordSet(s string) map[string]struct{} {
	words := strings.Fields(s)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)

// normalizeName lowercases s, drops punctuation and collapses spaces.
func normalizeName(s string) string {
	s = nonWord.ReplaceAllString(strings.ToLower(s), "")
	return strings.Join(strings.Fields(s), " ")
}

// similarity is 1 minus the normalized edit distance between the
// normalized forms of a and b.
func similarity(a, b string) float64 {
	a, b = normalizeName(a), normalizeName(b)
	longest := max(len(a), len(b))
	if longest == 0 {
		return 1
	}
	dist := smetrics.WagnerFischer(a, b, 1, 1, 1)
	return 1 - float64(dist)/float64(longest)
}

type trackKey struct{ name, artist string }

// dedupeTracks drops later tracks whose lowercase (name, artist) pair was
// already seen.
func dedupeTracks(tracks []TrackRecord) []TrackRecord {
	seen := make(map[trackKey]struct{}, len(tracks))
	out := tracks[:0:0]
	for _, t := range tracks {
		k := trackKey{strings.ToLower(t.Name), strings.ToLower(t.Artist)}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, t)
	}
	return out
}

// dedupePlaylists drops later playlists already seen. Playlists are
// identified by URL, or by ID and then name and owner when the URL is the
// placeholder.
func dedupePlaylists(playlists []PlaylistRecord) []PlaylistRecord {
	seen := make(map[string]struct{}, len(playlists))
	out := playlists[:0:0]
	for _, p := range playlists {
		k := playlistKey(p)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, p)
	}
	return out
}

func playlistKey(p PlaylistRecord) string {
	switch {
	case p.URL != "" && p.URL != NoURL:
		return "url:" + p.URL
	case p.ID != "":
		return "id:" + p.ID
	default:
		return "name:" + strings.ToLower(p.Name) + "|" + strings.ToLower(p.Owner)
	}
}
