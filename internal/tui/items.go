package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/justestif/smart-mood-player/internal/spotify"
)

// trackItem is a track row in the results list.
type trackItem struct{ spotify.TrackRecord }

func (t trackItem) Title() string { return fmt.Sprintf("%s - %s", t.Name, t.Artist) }

func (t trackItem) Description() string {
	desc := "full song"
	if t.PreviewURL != "" {
		desc = "preview available"
	}
	if t.Vibe != "" {
		desc += " · " + t.Vibe
	}
	return desc
}

func (t trackItem) FilterValue() string { return t.Name + " " + t.Artist }

// playlistItem is a playlist row in the results list.
type playlistItem struct{ spotify.PlaylistRecord }

func (p playlistItem) Title() string { return p.Name }

func (p playlistItem) Description() string {
	return fmt.Sprintf("by %s · %d tracks", p.Owner, p.TracksTotal)
}

func (p playlistItem) FilterValue() string { return p.Name }

func resultItems(tracks []spotify.TrackRecord, playlists []spotify.PlaylistRecord) []list.Item {
	items := make([]list.Item, 0, len(tracks)+len(playlists))
	for _, t := range tracks {
		items = append(items, trackItem{t})
	}
	for _, p := range playlists {
		items = append(items, playlistItem{p})
	}
	return items
}
