package spotify

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zmb3/spotify/v2"
)

func fullTrack(name, artist string, popularity int) spotify.FullTrack {
	raw := map[string]any{"name": name, "popularity": popularity}
	if artist != "" {
		raw["artists"] = []any{map[string]any{"name": artist}}
	}
	data, _ := json.Marshal(raw)

	var t spotify.FullTrack
	_ = json.Unmarshal(data, &t)
	return t
}

func TestScoreTrack(t *testing.T) {
	tests := []struct {
		name   string
		track  spotify.FullTrack
		title  string
		artist string
		want   float64
	}{
		{"exact title and artist is capped", fullTrack("Faded", "Alan Walker", 80), "faded", "alan walker", 1.0},
		{"no artists scores zero", fullTrack("Faded", "", 100), "faded", "", 0},
		{"partial title", fullTrack("Faded Away", "Someone", 0), "faded", "", 0.6},
		{"half the title words", fullTrack("Love Story", "Someone", 0), "love song", "", 0.3},
		{"partial artist", fullTrack("Other", "Alan Jackson", 0), "", "alan walker", 0.2},
		{"popularity only", fullTrack("Other", "Someone", 50), "faded", "", 0.1},
		{"exact artist only", fullTrack("Other", "Adele", 0), "", "adele", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, scoreTrack(tt.track, tt.title, tt.artist), 1e-9)
		})
	}
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, similarity("AC/DC", "acdc"), 1e-9)
	assert.InDelta(t, 1.0, similarity("", ""), 1e-9)
	assert.InDelta(t, 0.8, similarity("Adele", "adel"), 1e-9)
	assert.Less(t, similarity("road trip", "sad songs"), 0.5)
}

func TestNameVariations(t *testing.T) {
	assert.Equal(t, []string{"lisa", "Lisa"}, nameVariations("lisa"))
	assert.Equal(t,
		[]string{"Alan Walker", "alan walker", "AlanWalker", "Alan", "Walker"},
		nameVariations("Alan Walker"))
	assert.Empty(t, nameVariations("x"))
}

func TestDedupeTracks(t *testing.T) {
	in := []TrackRecord{
		{ID: "1", Name: "Hello", Artist: "Adele"},
		{ID: "2", Name: "HELLO", Artist: "adele"},
		{ID: "3", Name: "Hello", Artist: "Lionel Richie"},
	}

	got := dedupeTracks(in)

	assert.Equal(t, []TrackRecord{in[0], in[2]}, got)
	assert.Len(t, in, 3, "input is left untouched")
}

func TestDedupePlaylists(t *testing.T) {
	tests := []struct {
		name string
		in   []PlaylistRecord
		keep []int
	}{
		{
			name: "same url",
			in:   []PlaylistRecord{{Name: "a", URL: "u1"}, {Name: "b", URL: "u2"}, {Name: "c", URL: "u1"}},
			keep: []int{0, 1},
		},
		{
			name: "placeholder urls with distinct ids",
			in:   []PlaylistRecord{{ID: "p1", Name: "a", URL: NoURL}, {ID: "p2", Name: "b", URL: NoURL}, {ID: "p1", Name: "a", URL: NoURL}},
			keep: []int{0, 1},
		},
		{
			name: "placeholder urls without ids",
			in: []PlaylistRecord{
				{Name: "Chill", Owner: "Ann", URL: NoURL},
				{Name: "Focus", Owner: "Ann", URL: NoURL},
				{Name: "chill", Owner: "ann", URL: NoURL},
				{Name: "Chill", Owner: "Bob", URL: NoURL},
			},
			keep: []int{0, 1, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var want []PlaylistRecord
			for _, i := range tt.keep {
				want = append(want, tt.in[i])
			}
			assert.Equal(t, want, dedupePlaylists(tt.in))
		})
	}
}
