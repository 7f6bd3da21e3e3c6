// Package intent classifies chat messages into intents using an ordered
// table of regular expressions and keyword lists.
package intent

// Intent is the coarse category of what the user asked for.
type Intent int

const (
	Chat Intent = iota
	Greeting
	SongSearch
	ArtistSearch
	MoodSearch
	DirectMusicSearch
	ActivitySearch
	GenreSearch
	Feedback
	Help
)

var intentNames = map[Intent]string{
	Chat:              "Chat",
	Greeting:          "Greeting",
	SongSearch:        "SongSearch",
	ArtistSearch:      "ArtistSearch",
	MoodSearch:        "MoodSearch",
	DirectMusicSearch: "DirectMusicSearch",
	ActivitySearch:    "ActivitySearch",
	GenreSearch:       "GenreSearch",
	Feedback:          "Feedback",
	Help:              "Help",
}

// String returns the intent tag, e.g. "SongSearch".
func (i Intent) String() string {
	if name, ok := intentNames[i]; ok {
		return name
	}
	return "Chat"
}

// MarshalText encodes the intent as its tag.
func (i Intent) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// Context is the per-conversation tag left behind by the previous turn.
type Context string

const (
	ContextNone              Context = ""
	ContextSongSearch        Context = "songSearch"
	ContextArtistSearch      Context = "artistSearch"
	ContextMoodSearch        Context = "moodSearch"
	ContextDirectMusicSearch Context = "directMusicSearch"
	ContextActivitySearch    Context = "activitySearch"
	ContextGenreSearch       Context = "genreSearch"
	ContextFeedback          Context = "feedback"

	// Set by the caller once results for a search were shown.
	ContextSongProvided   Context = "songProvided"
	ContextArtistProvided Context = "artistProvided"
	ContextMoodProvided   Context = "moodProvided"
)

// AwaitsFeedback reports whether results were just delivered, which is the
// only state where short replies like "yes" or "not this" count as feedback.
func (c Context) AwaitsFeedback() bool {
	switch c {
	case ContextSongProvided, ContextArtistProvided, ContextMoodProvided:
		return true
	}
	return false
}

// Utterance is the result of classifying one user message.
type Utterance struct {
	Intent Intent
	// Entity is the song title, artist, mood bucket, activity or genre.
	// For Chat it is the original text.
	Entity string
	// Artist is set when a song request names its artist.
	Artist string
	// Mood is the mood bucket for mood rules.
	Mood string
	// Original is the raw phrase the entity was derived from.
	Original string
	Context  Context
}
