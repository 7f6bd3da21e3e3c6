package spotify

import (
	"strings"

	"github.com/zmb3/spotify/v2"
)

// Placeholders for values the catalog left empty.
const (
	UnknownTrack    = "Unknown Track"
	UnknownArtist   = "Unknown Artist"
	UnknownPlaylist = "Unknown Playlist"
	UnknownCreator  = "Unknown Creator"
	NoURL           = "#"
)

// TrackRecord is a track as shown in the results list.
type TrackRecord struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Artist     string   `json:"artist"` // Primary artist
	AllArtists []string `json:"all_artists"`
	URL        string   `json:"url"`
	PreviewURL string   `json:"preview_url,omitempty"`
	Popularity int      `json:"popularity"`
	// Vibe names the audio-feature group the track fell into, if any.
	Vibe string `json:"vibe,omitempty"`
}

// PlaybackURL returns the preview clip when there is one, else the full
// track page.
func (t TrackRecord) PlaybackURL() string {
	if t.PreviewURL != "" {
		return t.PreviewURL
	}
	return t.URL
}

// PlaylistRecord is a playlist as shown in the results list.
type PlaylistRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Owner       string `json:"owner"`
	URL         string `json:"url"`
	TracksTotal int    `json:"tracks_total"`
	Followers   int    `json:"followers"`
}

func convertFullTrack(t spotify.FullTrack) TrackRecord {
	r := convertSimpleTrack(t.SimpleTrack)
	r.Popularity = int(t.Popularity)
	return r
}

func convertSimpleTrack(t spotify.SimpleTrack) TrackRecord {
	r := TrackRecord{
		ID:         t.ID.String(),
		Name:       orDefault(t.Name, UnknownTrack),
		Artist:     UnknownArtist,
		URL:        orDefault(t.ExternalURLs["spotify"], NoURL),
		PreviewURL: t.PreviewURL,
	}
	for _, a := range t.Artists {
		r.AllArtists = append(r.AllArtists, orDefault(a.Name, UnknownArtist))
	}
	if len(r.AllArtists) > 0 {
		r.Artist = r.AllArtists[0]
	}
	return r
}

func convertPlaylist(p spotify.SimplePlaylist) PlaylistRecord {
	return PlaylistRecord{
		ID:          p.ID.String(),
		Name:        orDefault(p.Name, UnknownPlaylist),
		Owner:       orDefault(p.Owner.DisplayName, UnknownCreator),
		URL:         orDefault(p.ExternalURLs["spotify"], NoURL),
		TracksTotal: int(p.Tracks.Total),
	}
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
