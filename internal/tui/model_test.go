package tui

import (
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justestif/smart-mood-player/internal/chat"
	"github.com/justestif/smart-mood-player/internal/dispatch"
	"github.com/justestif/smart-mood-player/internal/speech"
	"github.com/justestif/smart-mood-player/internal/spotify"
)

type fakeEngine struct {
	reply  chat.Reply
	err    error
	texts  []string
	resets []string
}

func (f *fakeEngine) Turn(_ context.Context, _ string, text string) (chat.Reply, error) {
	f.texts = append(f.texts, text)
	return f.reply, f.err
}

func (f *fakeEngine) Reset(_ context.Context, sessionID string) error {
	f.resets = append(f.resets, sessionID)
	return nil
}

type fakeRecognizer struct {
	text string
	ok   bool
	err  error
}

func (f fakeRecognizer) CaptureOnce(context.Context) (string, bool, error) {
	return f.text, f.ok, f.err
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	tab   = tea.KeyMsg{Type: tea.KeyTab}
	voice = tea.KeyMsg{Type: tea.KeyCtrlR}
)

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

// results runs cmd and returns the messages it produced, leaving out
// spinner ticks.
func results(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, results(c)...)
		}
		return out
	}
	if _, ok := msg.(spinner.TickMsg); ok || msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// runTurn sends text and feeds the background result back in.
func runTurn(t *testing.T, m Model, text string) Model {
	t.Helper()
	m.input.SetValue(text)
	m, cmd := update(t, m, enter)
	require.True(t, m.pending)

	msgs := results(cmd)
	require.Len(t, msgs, 1)
	m, _ = update(t, m, msgs[0])
	return m
}

func texts(m Model) []string {
	out := make([]string, len(m.messages))
	for i, msg := range m.messages {
		out[i] = msg.text
	}
	return out
}

func sized(m Model) Model {
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model)
}

func TestNewModelOpens(t *testing.T) {
	m := NewModel(&fakeEngine{})
	assert.Equal(t, []string{chat.Opening}, texts(m))
	assert.Equal(t, "Loading...", m.View())

	m = sized(m)
	assert.Contains(t, m.View(), "Smart Mood Player")
}

func TestSendRunsTurnInBackground(t *testing.T) {
	engine := &fakeEngine{reply: chat.Reply{
		Decision: dispatch.Decision{Action: dispatch.ActionSearchArtist},
		Message:  "Looking up the top tracks by adele...",
		Summary:  "Here are the top tracks by adele. Select one and press play.",
		Tracks: []spotify.TrackRecord{
			{Name: "Hello", Artist: "Adele", URL: "https://open.spotify.com/track/1"},
			{Name: "Skyfall", Artist: "Adele", URL: "https://open.spotify.com/track/2"},
		},
	}}
	m := sized(NewModel(engine))

	m.input.SetValue("  music by adele ")
	m, cmd := update(t, m, enter)

	assert.True(t, m.pending)
	assert.Empty(t, m.input.Value())
	assert.Equal(t, []string{chat.Opening, "music by adele"}, texts(m))
	assert.Empty(t, engine.texts, "the turn runs in the returned command")

	msgs := results(cmd)
	require.Len(t, msgs, 1)
	m, _ = update(t, m, msgs[0])

	assert.False(t, m.pending)
	assert.Equal(t, []string{"music by adele"}, engine.texts)
	assert.Equal(t, []string{
		chat.Opening,
		"music by adele",
		"Looking up the top tracks by adele...",
		"Here are the top tracks by adele. Select one and press play.",
	}, texts(m))
	assert.Len(t, m.results.Items(), 2)
}

func TestSendRefusedWhilePending(t *testing.T) {
	m := NewModel(&fakeEngine{})
	m.input.SetValue("hello")
	m, _ = update(t, m, enter)

	m.input.SetValue("hello again")
	m, cmd := update(t, m, enter)

	assert.Nil(t, cmd)
	assert.Equal(t, msgBusy, texts(m)[len(m.messages)-1])
	assert.Equal(t, "hello again", m.input.Value(), "refused input is kept")
}

func TestEmptyInputIgnored(t *testing.T) {
	m := NewModel(&fakeEngine{})
	m.input.SetValue("   ")
	m, cmd := update(t, m, enter)

	assert.Nil(t, cmd)
	assert.False(t, m.pending)
	assert.Len(t, m.messages, 1)
}

func TestTurnErrorShowsServiceError(t *testing.T) {
	engine := &fakeEngine{err: errors.New("boom")}
	m := runTurn(t, NewModel(engine), "music by adele")

	assert.False(t, m.pending)
	assert.Equal(t, dispatch.ServiceError, texts(m)[len(m.messages)-1])
}

func TestChatTurnKeepsResults(t *testing.T) {
	engine := &fakeEngine{reply: chat.Reply{
		Decision: dispatch.Decision{Action: dispatch.ActionSearchPlaylist},
		Summary:  dispatch.PlaylistsFound,
		Playlists: []spotify.PlaylistRecord{
			{Name: "Sad Songs", Owner: "spotify", URL: "https://open.spotify.com/playlist/1"},
		},
	}}
	m := runTurn(t, NewModel(engine), "i'm feeling down")
	require.Len(t, m.results.Items(), 1)

	engine.reply = chat.Reply{Message: "Hi!"}
	m = runTurn(t, m, "hello")
	assert.Len(t, m.results.Items(), 1, "a reply without a search leaves the list alone")
}

func TestPlayTrackWithoutPreview(t *testing.T) {
	engine := &fakeEngine{reply: chat.Reply{
		Decision: dispatch.Decision{Action: dispatch.ActionSearchTrack},
		Summary:  dispatch.TracksFound,
		Tracks:   []spotify.TrackRecord{{Name: "Faded", Artist: "Alan Walker", URL: "https://open.spotify.com/track/9"}},
	}}
	var opened []string
	m := NewModel(engine, WithOpener(func(url string) error {
		opened = append(opened, url)
		return nil
	}))
	m = sized(runTurn(t, m, "play Faded by Alan Walker"))

	m, _ = update(t, m, tab)
	require.Equal(t, focusResults, m.focus)

	m, cmd := update(t, m, enter)
	assert.Equal(t, msgNoPreview, texts(m)[len(m.messages)-1])
	assert.Empty(t, results(cmd))
	assert.Equal(t, []string{"https://open.spotify.com/track/9"}, opened)
}

func TestPlayPreviewAndOpenFailure(t *testing.T) {
	engine := &fakeEngine{reply: chat.Reply{
		Decision: dispatch.Decision{Action: dispatch.ActionSearchTrack},
		Tracks: []spotify.TrackRecord{{
			Name: "Faded", Artist: "Alan Walker",
			URL: "https://open.spotify.com/track/9", PreviewURL: "https://p.scdn.co/9",
		}},
	}}
	m := NewModel(engine, WithOpener(func(string) error { return errors.New("no browser") }))
	m = runTurn(t, m, "play Faded by Alan Walker")
	m, _ = update(t, m, tab)

	m, cmd := update(t, m, enter)
	assert.Equal(t, "Playing preview: Faded", texts(m)[len(m.messages)-1])

	msgs := results(cmd)
	require.Len(t, msgs, 1)
	m, _ = update(t, m, msgs[0])
	assert.Contains(t, texts(m)[len(m.messages)-1], "https://p.scdn.co/9")
}

func TestTabWithoutResultsKeepsInputFocus(t *testing.T) {
	m := NewModel(&fakeEngine{})
	m, _ = update(t, m, tab)
	assert.Equal(t, focusInput, m.focus)
}

func TestVoiceCapture(t *testing.T) {
	tests := []struct {
		name      string
		rec       speech.Recognizer
		wantLast  string
		wantInput string
		wantCmd   bool
	}{
		{
			name:      "heard",
			rec:       fakeRecognizer{text: "i feel happy", ok: true},
			wantLast:  "I heard: 'i feel happy'. Press Enter to get recommendations.",
			wantInput: "i feel happy",
			wantCmd:   true,
		},
		{
			name:     "not understood",
			rec:      fakeRecognizer{},
			wantLast: msgNotHeard,
			wantCmd:  true,
		},
		{
			name:     "recognizer failed",
			rec:      fakeRecognizer{err: errors.New("mic unplugged")},
			wantLast: msgNotHeard,
			wantCmd:  true,
		},
		{
			name:     "unavailable",
			rec:      speech.Unavailable{},
			wantLast: msgNoVoice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModel(&fakeEngine{}, WithRecognizer(tt.rec))

			m, cmd := update(t, m, voice)
			if !tt.wantCmd {
				assert.Nil(t, cmd)
				assert.Equal(t, tt.wantLast, texts(m)[len(m.messages)-1])
				return
			}
			assert.True(t, m.hearing)
			assert.Equal(t, msgListening, texts(m)[len(m.messages)-1])

			msgs := results(cmd)
			require.Len(t, msgs, 1)
			m, _ = update(t, m, msgs[0])

			assert.False(t, m.hearing)
			assert.Equal(t, tt.wantLast, texts(m)[len(m.messages)-1])
			assert.Equal(t, tt.wantInput, m.input.Value())
		})
	}
}

func TestReset(t *testing.T) {
	engine := &fakeEngine{reply: chat.Reply{
		Decision: dispatch.Decision{Action: dispatch.ActionSearchTrack},
		Tracks:   []spotify.TrackRecord{{Name: "Faded", URL: "u"}},
	}}
	m := runTurn(t, NewModel(engine), "play Faded")
	first := m.sessionID

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})

	assert.Equal(t, []string{first}, engine.resets)
	assert.NotEqual(t, first, m.sessionID)
	assert.Equal(t, []string{msgNewChat}, texts(m))
	assert.Empty(t, m.results.Items())
}

func TestStatusLineShowsDecisionStatus(t *testing.T) {
	const sensed = "I sense you're feeling 'sad'. Searching for music on Spotify..."
	engine := &fakeEngine{reply: chat.Reply{
		Decision: dispatch.Decision{Action: dispatch.ActionSearchPlaylist, Status: sensed},
		Message:  "Sorry you're down.",
		Summary:  dispatch.PlaylistsFound,
	}}
	m := sized(NewModel(engine))

	m = runTurn(t, m, "I'm feeling sad")
	assert.Equal(t, sensed, m.status)
	assert.Contains(t, m.View(), "I sense you're feeling 'sad'.")

	sad := engine.reply
	engine.reply = chat.Reply{Message: "Hi!"}
	m = runTurn(t, m, "hello")
	assert.Empty(t, m.status, "turns without a search clear the line")

	engine.reply = sad
	m = runTurn(t, m, "I'm feeling sad")
	require.NotEmpty(t, m.status)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})
	assert.Empty(t, m.status)
}
