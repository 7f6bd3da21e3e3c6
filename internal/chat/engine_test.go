package chat

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justestif/smart-mood-player/internal/dialog"
	"github.com/justestif/smart-mood-player/internal/dispatch"
	"github.com/justestif/smart-mood-player/internal/intent"
	"github.com/justestif/smart-mood-player/internal/mood"
	"github.com/justestif/smart-mood-player/internal/session"
	"github.com/justestif/smart-mood-player/internal/spotify"
)

const testBook = `
greetings: ["Hi!"]
help: ["Ask for a song."]
fallbacks: ["Tell me what you'd like to listen to!"]
context_fallbacks:
  songProvided: "Want another song?"
moods:
  sad:
    responses: ["Sorry you're down."]
  general:
    responses: ["Here's something."]
`

type fixedMood mood.Label

func (f fixedMood) Predict(string) mood.Label { return mood.Label(f) }

type panickingMood struct{}

func (panickingMood) Predict(string) mood.Label { panic("model exploded") }

// fakeCatalog records calls and returns canned results.
type fakeCatalog struct {
	mu        sync.Mutex
	calls     []string
	tracks    []spotify.TrackRecord
	playlists []spotify.PlaylistRecord
	err       error
	block     chan struct{}
	entered   chan struct{}
}

func (f *fakeCatalog) record(call string) error {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	return f.err
}

func (f *fakeCatalog) SearchTracks(_ context.Context, title, artist string) ([]spotify.TrackRecord, error) {
	if err := f.record("tracks:" + title + "|" + artist); err != nil {
		return nil, err
	}
	return f.tracks, nil
}

func (f *fakeCatalog) SearchArtistTopTracks(_ context.Context, name string) ([]spotify.TrackRecord, error) {
	if err := f.record("artist:" + name); err != nil {
		return nil, err
	}
	return f.tracks, nil
}

func (f *fakeCatalog) SearchPlaylists(_ context.Context, query string) ([]spotify.PlaylistRecord, error) {
	if err := f.record("playlists:" + query); err != nil {
		return nil, err
	}
	return f.playlists, nil
}

func (f *fakeCatalog) Recommend(_ context.Context, label mood.Label) ([]spotify.TrackRecord, error) {
	if err := f.record("recommend:" + string(label)); err != nil {
		return nil, err
	}
	return f.tracks, nil
}

func newEngine(t *testing.T, predictor MoodPredictor, catalog Catalog, opts ...Option) (*Engine, *session.MemoryStore) {
	t.Helper()
	book, err := dialog.Parse([]byte(testBook))
	require.NoError(t, err)
	store := session.NewMemoryStore()
	return New(predictor, intent.New(), dispatch.New(book), catalog, store, opts...), store
}

var someTracks = []spotify.TrackRecord{{ID: "t1", Name: "Faded", Artist: "Alan Walker", URL: "u"}}

func TestTurnSongSearch(t *testing.T) {
	catalog := &fakeCatalog{tracks: someTracks}
	e, store := newEngine(t, fixedMood(mood.Neutral), catalog)
	ctx := context.Background()

	reply, err := e.Turn(ctx, "s1", "play Faded by Alan Walker")
	require.NoError(t, err)

	assert.Equal(t, intent.SongSearch, reply.Decision.Intent)
	assert.Equal(t, []string{"tracks:faded|alan walker"}, catalog.calls)
	assert.Equal(t, someTracks, reply.Tracks)
	assert.Equal(t, dispatch.TracksFound, reply.Summary)

	c, err := store.Context(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, intent.ContextSongProvided, c)

	history, err := e.History(ctx, "s1", 10)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, session.RoleUser, history[0].Role)
	assert.Equal(t, "SongSearch", history[0].Intent)
	assert.Equal(t, dispatch.TracksFound, history[2].Text)
}

func TestTurnFeedbackAfterDelivery(t *testing.T) {
	catalog := &fakeCatalog{tracks: someTracks}
	e, _ := newEngine(t, fixedMood(mood.Neutral), catalog)
	ctx := context.Background()

	_, err := e.Turn(ctx, "s1", "play Faded by Alan Walker")
	require.NoError(t, err)

	reply, err := e.Turn(ctx, "s1", "yes, perfect")
	require.NoError(t, err)
	assert.Equal(t, intent.Feedback, reply.Utterance.Intent)
	assert.Equal(t, "positive", reply.Utterance.Entity)
	assert.Len(t, catalog.calls, 1, "feedback runs no search")

	// Another session has no delivery, so the same words are plain chat.
	other, err := e.Turn(ctx, "s2", "yes, perfect")
	require.NoError(t, err)
	assert.NotEqual(t, intent.Feedback, other.Utterance.Intent)
}

func TestTurnClassifierOverride(t *testing.T) {
	catalog := &fakeCatalog{playlists: []spotify.PlaylistRecord{{Name: "Sad Songs", URL: "u"}}}
	e, store := newEngine(t, fixedMood(mood.Sad), catalog)
	ctx := context.Background()

	reply, err := e.Turn(ctx, "s1", "play Faded by Alan Walker")
	require.NoError(t, err)

	assert.Equal(t, intent.SongSearch, reply.Utterance.Intent)
	assert.Equal(t, intent.MoodSearch, reply.Decision.Intent)
	assert.Equal(t, mood.Sad, reply.Label)
	assert.Equal(t, []string{"playlists:sad songs"}, catalog.calls)
	assert.Equal(t, dispatch.PlaylistsFound, reply.Summary)

	c, err := store.Context(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, intent.ContextMoodProvided, c)
}

func TestTurnOverrideDisabled(t *testing.T) {
	catalog := &fakeCatalog{tracks: someTracks}
	e, _ := newEngine(t, fixedMood(mood.Sad), catalog, WithClassifierOverride(false))

	reply, err := e.Turn(context.Background(), "s1", "play Faded by Alan Walker")
	require.NoError(t, err)

	assert.Equal(t, intent.SongSearch, reply.Decision.Intent)
	assert.Equal(t, mood.Sad, reply.Label, "the prediction is still reported")
}

func TestTurnPanickingClassifier(t *testing.T) {
	catalog := &fakeCatalog{tracks: someTracks}
	e, _ := newEngine(t, panickingMood{}, catalog)

	reply, err := e.Turn(context.Background(), "s1", "music by adele")
	require.NoError(t, err)

	assert.Equal(t, mood.Label(""), reply.Label)
	assert.Equal(t, intent.ArtistSearch, reply.Decision.Intent)
	assert.Equal(t, []string{"artist:adele"}, catalog.calls)
}

func TestTurnNoResults(t *testing.T) {
	catalog := &fakeCatalog{}
	e, store := newEngine(t, fixedMood(mood.Neutral), catalog)
	ctx := context.Background()

	reply, err := e.Turn(ctx, "s1", "play asdfghjkl")
	require.NoError(t, err)

	assert.Equal(t, dispatch.NothingFound, reply.Summary)
	assert.Empty(t, reply.Tracks)

	c, err := store.Context(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, intent.ContextSongSearch, c, "nothing was delivered")
}

func TestTurnCatalogError(t *testing.T) {
	boom := errors.New("connection refused")
	catalog := &fakeCatalog{err: boom}
	e, _ := newEngine(t, fixedMood(mood.Neutral), catalog)

	reply, err := e.Turn(context.Background(), "s1", "some jazz please")

	require.ErrorIs(t, err, boom)
	assert.Equal(t, dispatch.ServiceError, reply.Summary)
	assert.Equal(t, "Let's explore some jazz.", reply.Message)
}

func TestTurnWithoutCatalog(t *testing.T) {
	e, _ := newEngine(t, fixedMood(mood.Neutral), nil)

	reply, err := e.Turn(context.Background(), "s1", "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hi!", reply.Message)

	_, err = e.Turn(context.Background(), "s1", "music by adele")
	assert.ErrorIs(t, err, ErrCatalogUnavailable)
}

func TestTurnRejectsConcurrentTurnForSameSession(t *testing.T) {
	catalog := &fakeCatalog{
		tracks:  someTracks,
		block:   make(chan struct{}),
		entered: make(chan struct{}, 2),
	}
	e, _ := newEngine(t, fixedMood(mood.Neutral), catalog)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := e.Turn(ctx, "s1", "music by adele")
		done <- err
	}()

	select {
	case <-catalog.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first turn never reached the catalog")
	}

	_, err := e.Turn(ctx, "s1", "hello")
	assert.ErrorIs(t, err, ErrTurnInFlight)

	other, err := e.Turn(ctx, "s2", "hello")
	require.NoError(t, err, "other sessions are not blocked")
	assert.Equal(t, "Hi!", other.Message)

	close(catalog.block)
	require.NoError(t, <-done)

	_, err = e.Turn(ctx, "s1", "hello")
	assert.NoError(t, err, "the session accepts turns again once the first finished")
}

func TestRecommend(t *testing.T) {
	catalog := &fakeCatalog{tracks: someTracks}
	e, _ := newEngine(t, fixedMood(mood.Happy), catalog)

	label, tracks, err := e.Recommend(context.Background(), "what a day")
	require.NoError(t, err)
	assert.Equal(t, mood.Happy, label)
	assert.Equal(t, someTracks, tracks)
	assert.Equal(t, []string{"recommend:happy"}, catalog.calls)

	noCatalog, _ := newEngine(t, fixedMood(mood.Happy), nil)
	_, _, err = noCatalog.Recommend(context.Background(), "what a day")
	assert.ErrorIs(t, err, ErrCatalogUnavailable)
}

func TestReset(t *testing.T) {
	catalog := &fakeCatalog{tracks: someTracks}
	e, store := newEngine(t, fixedMood(mood.Neutral), catalog)
	ctx := context.Background()

	_, err := e.Turn(ctx, "s1", "play Faded by Alan Walker")
	require.NoError(t, err)
	require.NoError(t, e.Reset(ctx, "s1"))

	c, err := store.Context(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, intent.ContextNone, c)
}

// trainedEngine uses the classifier trained from the bundled data set and
// the bundled dialog book, with the default override setting.
func trainedEngine(t *testing.T, catalog Catalog) *Engine {
	t.Helper()

	f, err := os.Open(filepath.Join("..", "..", "data", "emotions.csv"))
	require.NoError(t, err)
	defer f.Close()

	samples, err := mood.ReadSamples(f)
	require.NoError(t, err)
	model, err := mood.Train(samples, mood.DefaultTrainConfig())
	require.NoError(t, err)
	classifier, err := mood.NewClassifier(model)
	require.NoError(t, err)

	book, err := dialog.Load(filepath.Join("..", "..", "data", "dialogs.yaml"))
	require.NoError(t, err)

	return New(classifier, intent.New(), dispatch.New(book), catalog, session.NewMemoryStore())
}

func TestTurnTrainedClassifierKeepsNonMoodIntents(t *testing.T) {
	tests := []struct {
		text      string
		want      intent.Intent
		wantCalls []string
	}{
		{"hi", intent.Greeting, nil},
		{"help", intent.Help, nil},
		{"play Faded by Alan Walker", intent.SongSearch, []string{"tracks:faded|alan walker"}},
		{"music for studying", intent.ActivitySearch, []string{"playlists:calm chill"}},
		{"music by adele", intent.ArtistSearch, []string{"artist:adele"}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			catalog := &fakeCatalog{tracks: someTracks}
			e := trainedEngine(t, catalog)

			reply, err := e.Turn(context.Background(), "s1", tt.text)
			require.NoError(t, err)

			assert.Equal(t, tt.want, reply.Decision.Intent)
			assert.Equal(t, mood.Neutral, reply.Label, "no known words, no mood")
			assert.Equal(t, tt.wantCalls, catalog.calls)
		})
	}
}

func TestTurnTrainedClassifierReportsBuckets(t *testing.T) {
	catalog := &fakeCatalog{playlists: []spotify.PlaylistRecord{{Name: "Blue", URL: "u"}}}
	e := trainedEngine(t, catalog)

	reply, err := e.Turn(context.Background(), "s1", "I'm feeling really sad")
	require.NoError(t, err)

	assert.Equal(t, intent.MoodSearch, reply.Decision.Intent)
	buckets := []mood.Label{mood.Happy, mood.Sad, mood.Angry, mood.Calm, mood.Energetic, mood.Romantic}
	assert.Contains(t, buckets, reply.Decision.Mood)
}

func TestTurnAvoidsRepeatingCannedReplies(t *testing.T) {
	book, err := dialog.Parse([]byte(`
greetings: ["Hi!", "Hello again!"]
fallbacks: ["Tell me more."]
`))
	require.NoError(t, err)
	e := New(fixedMood(mood.Neutral), intent.New(), dispatch.New(book), nil, session.NewMemoryStore())
	ctx := context.Background()

	var got []string
	for range 3 {
		reply, err := e.Turn(ctx, "s1", "hello")
		require.NoError(t, err)
		got = append(got, reply.Message)
	}
	assert.Equal(t, []string{"Hi!", "Hello again!", "Hi!"}, got)

	fresh, err := e.Turn(ctx, "s2", "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hi!", fresh.Message, "history is per session")
}
