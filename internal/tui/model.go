// Package tui is the terminal chat screen: chat bubbles, a results list,
// background turns and browser hand-off for playback.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/pkg/browser"
	"github.com/rs/zerolog"

	"github.com/justestif/smart-mood-player/internal/chat"
	"github.com/justestif/smart-mood-player/internal/dispatch"
	"github.com/justestif/smart-mood-player/internal/speech"
	"github.com/justestif/smart-mood-player/internal/spotify"
)

// Bot lines owned by the screen rather than the engine.
const (
	msgBusy       = "Still working on your last message..."
	msgListening  = "Listening..."
	msgNotHeard   = "I couldn't understand that. Please try again or type your message."
	msgNoVoice    = "Voice input is not available. Please type your message."
	msgNoPreview  = "No preview available. Opening full song in browser..."
	msgOpenFailed = "I couldn't open your browser. Here is the link: %s"
	msgNewChat    = "Starting over. " + chat.Opening
)

// resultsPercent is the share of the width given to the results list.
const resultsPercent = 40

// Engine runs conversation turns.
type Engine interface {
	Turn(ctx context.Context, sessionID, text string) (chat.Reply, error)
	Reset(ctx context.Context, sessionID string) error
}

// Opener opens a URL outside the terminal.
type Opener func(url string) error

type focus int

const (
	focusInput focus = iota
	focusResults
)

type role int

const (
	roleUser role = iota
	roleBot
)

type message struct {
	role role
	text string
}

// turnDoneMsg carries the result of one background turn.
type turnDoneMsg struct {
	reply chat.Reply
	err   error
}

// heardMsg carries the result of one voice capture.
type heardMsg struct {
	text string
	ok   bool
	err  error
}

// openedMsg reports a failed browser hand-off.
type openedMsg struct {
	url string
	err error
}

// Model is the chat screen state.
type Model struct {
	ctx        context.Context
	engine     Engine
	recognizer speech.Recognizer
	open       Opener
	sessionID  string
	log        zerolog.Logger

	width   int
	height  int
	ready   bool
	focus   focus
	pending bool
	hearing bool
	// status is the last search's progress line, kept under the chat.
	status   string
	messages []message

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	results  list.Model

	keys   KeyMap
	styles Styles
}

// Option configures a Model.
type Option func(*Model)

// WithRecognizer enables voice capture.
func WithRecognizer(r speech.Recognizer) Option {
	return func(m *Model) {
		if r != nil {
			m.recognizer = r
		}
	}
}

// WithOpener replaces the browser hand-off.
func WithOpener(o Opener) Option {
	return func(m *Model) {
		if o != nil {
			m.open = o
		}
	}
}

// WithLogger sets the logger. It must not write to the terminal.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Model) {
		m.log = l
	}
}

// WithContext sets the context background turns run under.
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		m.ctx = ctx
	}
}

// NewModel creates the chat screen for one session.
func NewModel(engine Engine, opts ...Option) Model {
	ti := textinput.New()
	ti.Placeholder = "Tell me how you feel, or ask for a song..."
	ti.CharLimit = 500
	ti.Prompt = "> "
	ti.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	results := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	results.Title = "Recommendations"
	results.SetShowHelp(false)
	results.SetFilteringEnabled(false)
	results.SetShowStatusBar(false)

	m := Model{
		ctx:        context.Background(),
		engine:     engine,
		recognizer: speech.Unavailable{},
		open:       browser.OpenURL,
		sessionID:  uuid.NewString(),
		log:        zerolog.Nop(),
		viewport:   viewport.New(80, 20),
		input:      ti,
		spinner:    sp,
		results:    results,
		keys:       DefaultKeyMap(),
		styles:     DefaultStyles(),
	}
	for _, opt := range opts {
		opt(&m)
	}

	m.results.Styles.Title = m.styles.Title
	m.addBot(chat.Opening)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height, m.ready = msg.Width, msg.Height, true
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case turnDoneMsg:
		return m.handleTurn(msg)

	case heardMsg:
		return m.handleHeard(msg)

	case openedMsg:
		m.log.Warn().Err(msg.err).Str("url", msg.url).Msg("opening browser")
		m.addBot(fmt.Sprintf(msgOpenFailed, msg.url))
		return m, nil

	case spinner.TickMsg:
		if !m.pending && !m.hearing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Switch):
		m.toggleFocus()
		return m, nil

	case key.Matches(msg, m.keys.Voice):
		return m.startCapture()

	case key.Matches(msg, m.keys.Reset):
		return m.reset()

	case key.Matches(msg, m.keys.Send):
		if m.focus == focusResults {
			return m.playSelected()
		}
		return m.send()
	}

	var cmd tea.Cmd
	if m.focus == focusResults {
		m.results, cmd = m.results.Update(msg)
	} else {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

// send starts a turn for the input text. Only one turn runs at a time.
func (m Model) send() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	if m.pending {
		m.addBot(msgBusy)
		return m, nil
	}

	m.addUser(text)
	m.input.Reset()
	m.pending = true
	return m, tea.Batch(m.spinner.Tick, m.turnCmd(text))
}

func (m Model) turnCmd(text string) tea.Cmd {
	ctx, engine, id := m.ctx, m.engine, m.sessionID
	return func() tea.Msg {
		reply, err := engine.Turn(ctx, id, text)
		return turnDoneMsg{reply: reply, err: err}
	}
}

func (m Model) handleTurn(msg turnDoneMsg) (tea.Model, tea.Cmd) {
	m.pending = false

	if errors.Is(msg.err, chat.ErrTurnInFlight) {
		m.addBot(msgBusy)
		return m, nil
	}
	if msg.err != nil {
		m.log.Error().Err(msg.err).Msg("turn failed")
	}

	m.addBot(msg.reply.Message)
	m.status = msg.reply.Decision.Status
	switch {
	case msg.reply.Summary != "":
		m.addBot(msg.reply.Summary)
	case msg.err != nil:
		m.addBot(dispatch.ServiceError)
	}

	if msg.reply.Decision.Action == dispatch.ActionNone {
		return m, nil
	}
	cmd := m.results.SetItems(resultItems(msg.reply.Tracks, msg.reply.Playlists))
	m.results.ResetSelected()
	return m, cmd
}

// startCapture runs one voice capture in the background.
func (m Model) startCapture() (tea.Model, tea.Cmd) {
	if m.hearing {
		return m, nil
	}
	if _, ok := m.recognizer.(speech.Unavailable); ok {
		m.addBot(msgNoVoice)
		return m, nil
	}

	m.hearing = true
	m.addBot(msgListening)
	ctx, rec := m.ctx, m.recognizer
	capture := func() tea.Msg {
		text, ok, err := rec.CaptureOnce(ctx)
		return heardMsg{text: text, ok: ok, err: err}
	}
	return m, tea.Batch(m.spinner.Tick, capture)
}

func (m Model) handleHeard(msg heardMsg) (tea.Model, tea.Cmd) {
	m.hearing = false

	switch {
	case errors.Is(msg.err, speech.ErrUnavailable):
		m.addBot(msgNoVoice)
	case msg.err != nil:
		m.log.Error().Err(msg.err).Msg("voice capture failed")
		m.addBot(msgNotHeard)
	case !msg.ok:
		m.addBot(msgNotHeard)
	default:
		m.input.SetValue(msg.text)
		m.input.CursorEnd()
		m.focus = focusInput
		m.input.Focus()
		m.addBot(fmt.Sprintf("I heard: '%s'. Press Enter to get recommendations.", msg.text))
	}
	return m, nil
}

// playSelected hands the selected result to the browser.
func (m Model) playSelected() (tea.Model, tea.Cmd) {
	var url string
	switch item := m.results.SelectedItem().(type) {
	case trackItem:
		if item.PreviewURL != "" {
			m.addBot("Playing preview: " + item.Name)
		} else {
			m.addBot(msgNoPreview)
		}
		url = item.PlaybackURL()
	case playlistItem:
		m.addBot(fmt.Sprintf("Opening playlist '%s' in browser...", item.Name))
		url = item.URL
	default:
		return m, nil
	}

	if url == "" || url == spotify.NoURL {
		m.addBot("This result has no link to open.")
		return m, nil
	}
	open := m.open
	return m, func() tea.Msg {
		if err := open(url); err != nil {
			return openedMsg{url: url, err: err}
		}
		return nil
	}
}

func (m Model) reset() (tea.Model, tea.Cmd) {
	if m.pending {
		m.addBot(msgBusy)
		return m, nil
	}
	if err := m.engine.Reset(m.ctx, m.sessionID); err != nil {
		m.log.Warn().Err(err).Msg("resetting session")
	}
	m.sessionID = uuid.NewString()
	m.messages = nil
	m.status = ""
	m.focus = focusInput
	m.input.Focus()
	m.addBot(msgNewChat)
	return m, m.results.SetItems(nil)
}

func (m *Model) toggleFocus() {
	if m.focus == focusInput && len(m.results.Items()) > 0 {
		m.focus = focusResults
		m.input.Blur()
		return
	}
	m.focus = focusInput
	m.input.Focus()
}

func (m *Model) addUser(text string) {
	m.messages = append(m.messages, message{role: roleUser, text: text})
	m.refresh()
}

func (m *Model) addBot(text string) {
	if text == "" {
		return
	}
	m.messages = append(m.messages, message{role: roleBot, text: text})
	m.refresh()
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderChat())
	m.viewport.GotoBottom()
}

// layout splits the screen between chat and results.
func (m *Model) layout() {
	const chrome = 6
	resultsWidth := m.width * resultsPercent / 100
	chatWidth := m.width - resultsWidth - 4
	height := max(m.height-chrome, 3)

	m.viewport.Width = max(chatWidth, 10)
	m.viewport.Height = height
	m.results.SetSize(max(resultsWidth-2, 10), height)
	m.input.Width = max(m.width-6, 10)
	m.refresh()
}

func (m Model) renderChat() string {
	width := max(m.viewport.Width-4, 10)
	var sb strings.Builder
	for _, msg := range m.messages {
		switch msg.role {
		case roleUser:
			bubble := m.styles.UserMsg.MaxWidth(width).Render("You: " + msg.text)
			sb.WriteString(lipgloss.PlaceHorizontal(m.viewport.Width, lipgloss.Right, bubble))
		default:
			sb.WriteString(m.styles.BotMsg.MaxWidth(width).Render("Bot: " + msg.text))
		}
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	chatPanel, resultsPanel := m.styles.Focused, m.styles.Panel
	if m.focus == focusResults {
		chatPanel, resultsPanel = m.styles.Panel, m.styles.Focused
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		chatPanel.Render(m.viewport.View()),
		resultsPanel.Render(m.results.View()),
	)

	status := ""
	switch {
	case m.pending:
		status = m.spinner.View() + " " + m.styles.Status.Render("Searching...")
	case m.hearing:
		status = m.spinner.View() + " " + m.styles.Status.Render(msgListening)
	case m.status != "":
		status = m.styles.Status.Render(m.status)
	}

	helpParts := make([]string, 0, len(m.keys.help()))
	for _, b := range m.keys.help() {
		h := b.Help()
		helpParts = append(helpParts, h.Key+" "+h.Desc)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Title.Render("Smart Mood Player"),
		body,
		status,
		m.styles.InputLine.Render(m.input.View()),
		m.styles.Help.Render(strings.Join(helpParts, " · ")),
	)
}
