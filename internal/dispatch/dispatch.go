// Package dispatch turns a classified message into a reply and at most
// one catalog action.
package dispatch

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/justestif/smart-mood-player/internal/dialog"
	"github.com/justestif/smart-mood-player/internal/intent"
	"github.com/justestif/smart-mood-player/internal/mood"
)

// Canned texts shared with the presentation layers.
const (
	NothingFound   = "I couldn't find anything for that. Please try something else!"
	ServiceError   = "Sorry, I ran into an error connecting to Spotify."
	TracksFound    = "I've found some songs for you! Select one from the list and press play."
	PlaylistsFound = "Here are some playlists you might like. Select one to open it."
)

// Action is the catalog operation a Decision asks the caller to run.
type Action int

const (
	ActionNone Action = iota
	ActionSearchTrack
	ActionSearchArtist
	ActionSearchPlaylist
)

func (a Action) String() string {
	switch a {
	case ActionSearchTrack:
		return "SearchTrack"
	case ActionSearchArtist:
		return "SearchArtist"
	case ActionSearchPlaylist:
		return "SearchPlaylist"
	default:
		return "None"
	}
}

// Decision is the dispatcher's answer for one turn.
type Decision struct {
	Intent  intent.Intent
	Message string
	// Status is a short progress line shown while the action runs.
	Status string
	Action Action
	Query  string
	// Artist narrows ActionSearchTrack.
	Artist string
	Mood   mood.Label
}

// Picker chooses one of n canned responses.
type Picker func(n int) int

// First always picks the first response.
func First(int) int { return 0 }

// Dispatcher maps utterances to decisions. It has no side effects and is
// safe for concurrent use.
type Dispatcher struct {
	book       *dialog.Book
	pick       Picker
	activities map[string]Activity
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithPicker replaces the response selection policy.
func WithPicker(p Picker) Option {
	return func(d *Dispatcher) {
		if p != nil {
			d.pick = p
		}
	}
}

// WithActivity adds or replaces an activity table entry.
func WithActivity(name string, a Activity) Option {
	return func(d *Dispatcher) {
		d.activities[name] = a
	}
}

// New creates a Dispatcher over a dialog book.
func New(book *dialog.Book, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		book:       book,
		pick:       First,
		activities: defaultActivities(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Respond decides the reply for u. A non-neutral override, the mood the
// classifier predicted, replaces u with a mood search for that label.
// The override is reported under its bucket name but keeps its own
// search keyword.
func (d *Dispatcher) Respond(u intent.Utterance, override mood.Label) Decision {
	return d.RespondAvoiding(u, override, nil)
}

// RespondAvoiding is Respond for a conversation that already saw recent
// bot lines. A canned response in recent is skipped while the same list
// still has one that is not.
func (d *Dispatcher) RespondAvoiding(u intent.Utterance, override mood.Label, recent []string) Decision {
	var avoid map[string]bool
	if len(recent) > 0 {
		avoid = make(map[string]bool, len(recent))
		for _, line := range recent {
			avoid[line] = true
		}
	}

	var keyword string
	if !override.IsNeutral() {
		label := mood.Canonical(override)
		keyword = mood.SearchKeyword(override)
		u = intent.Utterance{
			Intent:   intent.MoodSearch,
			Entity:   string(label),
			Mood:     string(label),
			Original: u.Original,
			Context:  intent.ContextMoodSearch,
		}
	}

	dec := Decision{Intent: u.Intent}

	switch u.Intent {
	case intent.Greeting:
		dec.Message = d.choose(d.book.Greetings, "Hello! Tell me how you're feeling or what you're in the mood for.", avoid)

	case intent.Help:
		dec.Message = d.choose(d.book.Help, "Ask me for a song, an artist, a mood or an activity.", avoid)

	case intent.Chat:
		dec.Message = d.chat(u, avoid)

	case intent.SongSearch:
		dec.Action = ActionSearchTrack
		dec.Query = u.Entity
		dec.Artist = u.Artist
		if u.Artist != "" {
			dec.Message = fmt.Sprintf("Searching for '%s' by %s...", u.Entity, u.Artist)
		} else {
			dec.Message = fmt.Sprintf("Searching for '%s'...", u.Entity)
		}
		dec.Status = "Searching Spotify..."

	case intent.ArtistSearch:
		dec.Action = ActionSearchArtist
		dec.Query = u.Entity
		dec.Message = fmt.Sprintf("Looking up the top tracks by %s...", u.Entity)
		dec.Status = "Searching Spotify..."

	case intent.MoodSearch:
		label := mood.Label(u.Entity)
		dec.Mood = label
		dec.Action = ActionSearchPlaylist
		dec.Query = cmp.Or(keyword, mood.SearchKeyword(label))
		dec.Message = d.moodResponse(label, avoid)
		dec.Status = fmt.Sprintf("I sense you're feeling '%s'. Searching for music on Spotify...", label)

	case intent.DirectMusicSearch:
		label := mood.Label(u.Entity)
		dec.Mood = label
		dec.Action = ActionSearchPlaylist
		dec.Query = mood.SearchKeyword(label)
		dec.Message = fmt.Sprintf("Here are some %s songs for you.", label)
		dec.Status = "Searching Spotify..."

	case intent.ActivitySearch:
		a, ok := d.activities[u.Entity]
		if !ok {
			a = d.activities[intent.GeneralBucket]
		}
		dec.Mood = a.Mood
		dec.Action = ActionSearchPlaylist
		dec.Query = mood.SearchKeyword(a.Mood)
		dec.Message = a.Message
		dec.Status = a.Status

	case intent.GenreSearch:
		dec.Action = ActionSearchPlaylist
		dec.Query = u.Entity + " music"
		dec.Message = fmt.Sprintf("Let's explore some %s.", u.Entity)
		dec.Status = "Searching Spotify..."

	case intent.Feedback:
		if u.Entity == "positive" {
			dec.Message = "Glad you like it! Ask me for more whenever you want."
		} else {
			dec.Message = "No problem. Tell me what you'd like instead and I'll search again."
		}

	default:
		dec.Intent = intent.Chat
		dec.Message = d.choose(d.book.Fallbacks, "", avoid)
	}

	return dec
}

// Summarize returns the line shown once the action finished with found
// results. Zero results produce NothingFound.
func (d *Dispatcher) Summarize(dec Decision, found int) string {
	if dec.Action == ActionNone {
		return ""
	}
	if found == 0 {
		return NothingFound
	}

	switch dec.Action {
	case ActionSearchArtist:
		return fmt.Sprintf("Here are the top tracks by %s. Select one and press play.", dec.Query)
	case ActionSearchPlaylist:
		return PlaylistsFound
	default:
		return TracksFound
	}
}

func (d *Dispatcher) chat(u intent.Utterance, avoid map[string]bool) string {
	if responses := d.book.Match(u.Entity); len(responses) > 0 {
		return d.choose(responses, "", avoid)
	}
	if line := d.book.ContextFallback(string(u.Context)); line != "" {
		return line
	}
	return d.choose(d.book.Fallbacks, "", avoid)
}

func (d *Dispatcher) moodResponse(label mood.Label, avoid map[string]bool) string {
	responses := d.book.MoodResponses(string(label))
	if len(responses) == 0 {
		responses = d.book.MoodResponses(string(mood.Bucket(label)))
	}
	if len(responses) == 0 {
		responses = d.book.MoodResponses(string(mood.General))
	}
	return d.choose(responses, fmt.Sprintf("Let me find some %s music for you.", strings.ToLower(string(label))), avoid)
}

// choose picks among the options not in avoid, or among all of them when
// every option was used.
func (d *Dispatcher) choose(options []string, fallback string, avoid map[string]bool) string {
	if len(options) == 0 {
		return fallback
	}
	if len(avoid) > 0 {
		unused := make([]string, 0, len(options))
		for _, o := range options {
			if !avoid[o] {
				unused = append(unused, o)
			}
		}
		if len(unused) > 0 {
			options = unused
		}
	}

	i := d.pick(len(options))
	if i < 0 || i >= len(options) {
		i = 0
	}
	return options[i]
}
