// Package vibe maps moods to audio-feature targets, ranks tracks against
// a target and groups result sets by how they sound.
package vibe

import (
	"math"
	"slices"

	"github.com/muesli/clusters"

	"github.com/justestif/smart-mood-player/internal/mood"
)

// maxTempo scales BPM into the unit range shared by valence and energy.
const maxTempo = 200.0

// Profile is the audio-feature target for a mood. A zero Tempo means
// the mood has no tempo target.
type Profile struct {
	Valence float64
	Energy  float64
	Tempo   float64
}

var profiles = map[mood.Label]Profile{
	mood.Happy:     {Valence: 0.9, Energy: 0.8, Tempo: 120},
	mood.Sad:       {Valence: 0.2, Energy: 0.3, Tempo: 60},
	mood.Angry:     {Valence: 0.1, Energy: 0.9, Tempo: 140},
	mood.Calm:      {Valence: 0.8, Energy: 0.2, Tempo: 70},
	mood.Fear:      {Valence: 0.1, Energy: 0.6},
	mood.Energetic: {Valence: 0.7, Energy: 0.9, Tempo: 130},
	mood.Romantic:  {Valence: 0.7, Energy: 0.4, Tempo: 90},
	mood.Neutral:   {Valence: 0.5, Energy: 0.5},
}

// ForMood returns the target profile for a label. Labels without their
// own profile use their bucket's, then the neutral one.
func ForMood(l mood.Label) Profile {
	if p, ok := profiles[l]; ok {
		return p
	}
	if p, ok := profiles[mood.Bucket(l)]; ok {
		return p
	}
	return profiles[mood.Neutral]
}

func (p Profile) coordinates() clusters.Coordinates {
	if p.Tempo == 0 {
		return clusters.Coordinates{p.Valence, p.Energy}
	}
	return clusters.Coordinates{p.Valence, p.Energy, p.Tempo / maxTempo}
}

// Features holds the audio features of one track.
type Features struct {
	ID           string
	Energy       float32
	Valence      float32
	Danceability float32
	Acousticness float32
	Tempo        float32
}

func (f Features) target(withTempo bool) clusters.Coordinates {
	if !withTempo {
		return clusters.Coordinates{float64(f.Valence), float64(f.Energy)}
	}
	return clusters.Coordinates{float64(f.Valence), float64(f.Energy), float64(f.Tempo) / maxTempo}
}

// Distance is the Euclidean distance between f and p on the
// valence/energy axes, plus tempo when p has a tempo target.
func Distance(p Profile, f Features) float64 {
	// clusters reports squared distances.
	return math.Sqrt(f.target(p.Tempo != 0).Distance(p.coordinates()))
}

// Rank orders ids by distance to p, nearest first. IDs without features
// keep their input order after the ranked ones.
func Rank(p Profile, ids []string, features map[string]Features) []string {
	type ranked struct {
		id   string
		dist float64
		ok   bool
	}

	items := make([]ranked, len(ids))
	for i, id := range ids {
		f, ok := features[id]
		items[i] = ranked{id: id, ok: ok}
		if ok {
			items[i].dist = Distance(p, f)
		}
	}

	slices.SortStableFunc(items, func(a, b ranked) int {
		switch {
		case a.ok && !b.ok:
			return -1
		case !a.ok && b.ok:
			return 1
		case !a.ok:
			return 0
		case a.dist < b.dist:
			return -1
		case a.dist > b.dist:
			return 1
		}
		return 0
	})

	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.id
	}
	return out
}
