// Package chat runs conversation turns: classify the message, decide the
// reply, run at most one catalog search and remember where the
// conversation left off.
package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/justestif/smart-mood-player/internal/dispatch"
	"github.com/justestif/smart-mood-player/internal/intent"
	"github.com/justestif/smart-mood-player/internal/metrics"
	"github.com/justestif/smart-mood-player/internal/mood"
	"github.com/justestif/smart-mood-player/internal/session"
	"github.com/justestif/smart-mood-player/internal/spotify"
)

// Opening is the first line the bot shows in a new conversation.
const Opening = "Hello! Tell me how you're feeling or what you're in the mood for."

var (
	// ErrTurnInFlight is returned when a session already has a turn running.
	ErrTurnInFlight = errors.New("a turn is already in progress for this session")

	// ErrCatalogUnavailable is returned when a turn needs the catalog but
	// none is configured.
	ErrCatalogUnavailable = errors.New("spotify catalog is not configured")
)

// MoodPredictor labels free text with a mood.
type MoodPredictor interface {
	Predict(text string) mood.Label
}

// Catalog is the subset of the Spotify client a turn can call.
type Catalog interface {
	SearchTracks(ctx context.Context, title, artist string) ([]spotify.TrackRecord, error)
	SearchArtistTopTracks(ctx context.Context, name string) ([]spotify.TrackRecord, error)
	SearchPlaylists(ctx context.Context, query string) ([]spotify.PlaylistRecord, error)
	Recommend(ctx context.Context, label mood.Label) ([]spotify.TrackRecord, error)
}

var _ Catalog = (*spotify.Client)(nil)

// Reply is everything one turn produced.
type Reply struct {
	Utterance intent.Utterance
	// Label is the classifier's prediction under its bucket name, whether
	// or not it was applied.
	Label    mood.Label
	Decision dispatch.Decision
	// Message is the immediate bot reply.
	Message string
	// Summary follows the search: found, nothing found or service error.
	Summary   string
	Tracks    []spotify.TrackRecord
	Playlists []spotify.PlaylistRecord
}

// Engine is built once at startup and shared by every session.
type Engine struct {
	classifier MoodPredictor
	detector   *intent.Detector
	dispatcher *dispatch.Dispatcher
	catalog    Catalog
	store      session.Store
	override   bool
	log        zerolog.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithClassifierOverride controls whether a non-neutral predicted mood
// replaces the pattern-detected intent. It is on by default.
func WithClassifierOverride(on bool) Option {
	return func(e *Engine) {
		e.override = on
	}
}

// New creates an Engine. A nil catalog makes every search fail with
// ErrCatalogUnavailable; a nil classifier disables mood prediction.
func New(classifier MoodPredictor, detector *intent.Detector, dispatcher *dispatch.Dispatcher, catalog Catalog, store session.Store, opts ...Option) *Engine {
	e := &Engine{
		classifier: classifier,
		detector:   detector,
		dispatcher: dispatcher,
		catalog:    catalog,
		store:      store,
		override:   true,
		log:        zerolog.Nop(),
		inFlight:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Turn runs one user message through the pipeline. A catalog failure
// returns the reply carrying the service-error summary together with the
// error, so callers can show the former and log the latter.
func (e *Engine) Turn(ctx context.Context, sessionID, text string) (Reply, error) {
	if !e.begin(sessionID) {
		return Reply{}, ErrTurnInFlight
	}
	defer e.end(sessionID)

	start := time.Now()
	defer func() { metrics.TurnDuration.Observe(time.Since(start).Seconds()) }()

	current, err := e.store.Context(ctx, sessionID)
	if err != nil {
		e.log.Warn().Err(err).Str("session", sessionID).Msg("reading conversation context")
		current = intent.ContextNone
	}

	u := e.detector.DetectInContext(text, current)
	label := e.predict(text)

	override := mood.Label("")
	if e.override {
		override = label
	}
	dec := e.dispatcher.RespondAvoiding(u, override, e.recentReplies(ctx, sessionID))

	reply := Reply{
		Utterance: u,
		Label:     mood.Canonical(label),
		Decision:  dec,
		Message:   dec.Message,
	}

	next := u.Context
	if dec.Intent != u.Intent {
		next = intent.ContextMoodSearch
	}

	found, runErr := e.run(ctx, dec, &reply)
	outcome := "ok"
	switch {
	case runErr != nil:
		outcome = "error"
		reply.Summary = dispatch.ServiceError
	default:
		reply.Summary = e.dispatcher.Summarize(dec, found)
		if found > 0 {
			next = delivered(dec.Action, next)
		} else if dec.Action != dispatch.ActionNone {
			outcome = "empty"
		}
	}
	metrics.Turns.WithLabelValues(dec.Intent.String(), outcome).Inc()

	e.log.Info().
		Str("session", sessionID).
		Stringer("intent", dec.Intent).
		Str("entity", u.Entity).
		Str("mood", string(label)).
		Stringer("action", dec.Action).
		Int("found", found).
		Dur("took", time.Since(start)).
		Msg("turn")

	e.remember(ctx, sessionID, text, reply, next)

	if runErr != nil {
		return reply, fmt.Errorf("running %s: %w", dec.Action, runErr)
	}
	return reply, nil
}

// Recommend predicts the mood of text and returns catalog recommendations
// for it, without touching any session. The label is reported under its
// bucket name.
func (e *Engine) Recommend(ctx context.Context, text string) (mood.Label, []spotify.TrackRecord, error) {
	label := e.predict(text)
	name := mood.Canonical(label)
	if e.catalog == nil {
		return name, nil, ErrCatalogUnavailable
	}
	tracks, err := e.catalog.Recommend(ctx, label)
	if err != nil {
		return name, nil, err
	}
	return name, tracks, nil
}

// History returns up to n of the session's latest turns, oldest first.
func (e *Engine) History(ctx context.Context, sessionID string, n int) ([]session.Turn, error) {
	return e.store.History(ctx, sessionID, n)
}

// recentReplies returns the bot lines of the session's stored history so
// canned responses do not repeat back to back.
func (e *Engine) recentReplies(ctx context.Context, sessionID string) []string {
	history, err := e.History(ctx, sessionID, session.HistoryLimit)
	if err != nil {
		e.log.Warn().Err(err).Str("session", sessionID).Msg("reading conversation history")
		return nil
	}

	var lines []string
	for _, t := range history {
		if t.Role == session.RoleBot {
			lines = append(lines, t.Text)
		}
	}
	return lines
}

// Reset ends a session, forgetting its context and history.
func (e *Engine) Reset(ctx context.Context, sessionID string) error {
	if err := e.store.Reset(ctx, sessionID); err != nil {
		return fmt.Errorf("resetting session: %w", err)
	}
	return nil
}

func (e *Engine) begin(sessionID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, busy := e.inFlight[sessionID]; busy {
		return false
	}
	e.inFlight[sessionID] = struct{}{}
	metrics.ActiveTurns.Inc()
	return true
}

func (e *Engine) end(sessionID string) {
	e.mu.Lock()
	delete(e.inFlight, sessionID)
	e.mu.Unlock()
	metrics.ActiveTurns.Dec()
}

// predict returns the classifier's label. A panicking classifier counts
// as no prediction.
func (e *Engine) predict(text string) (label mood.Label) {
	if e.classifier == nil {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Interface("panic", r).Msg("mood classifier failed")
			label = ""
		}
	}()

	label = e.classifier.Predict(text)
	metrics.MoodPredictions.WithLabelValues(string(label)).Inc()
	return label
}

// run performs the decision's catalog action and returns the number of
// results.
func (e *Engine) run(ctx context.Context, dec dispatch.Decision, reply *Reply) (int, error) {
	if dec.Action == dispatch.ActionNone {
		return 0, nil
	}
	if e.catalog == nil {
		return 0, ErrCatalogUnavailable
	}

	var err error
	switch dec.Action {
	case dispatch.ActionSearchTrack:
		reply.Tracks, err = e.catalog.SearchTracks(ctx, dec.Query, dec.Artist)
		return len(reply.Tracks), err
	case dispatch.ActionSearchArtist:
		reply.Tracks, err = e.catalog.SearchArtistTopTracks(ctx, dec.Query)
		return len(reply.Tracks), err
	case dispatch.ActionSearchPlaylist:
		reply.Playlists, err = e.catalog.SearchPlaylists(ctx, dec.Query)
		return len(reply.Playlists), err
	}
	return 0, fmt.Errorf("unknown action %s", dec.Action)
}

// delivered is the context tag left once results for action were shown.
func delivered(action dispatch.Action, fallback intent.Context) intent.Context {
	switch action {
	case dispatch.ActionSearchTrack:
		return intent.ContextSongProvided
	case dispatch.ActionSearchArtist:
		return intent.ContextArtistProvided
	case dispatch.ActionSearchPlaylist:
		return intent.ContextMoodProvided
	}
	return fallback
}

// remember stores the new context and both sides of the exchange. Store
// failures are logged; the reply has already been produced.
func (e *Engine) remember(ctx context.Context, sessionID, text string, reply Reply, next intent.Context) {
	if err := e.store.SetContext(ctx, sessionID, next); err != nil {
		e.log.Warn().Err(err).Str("session", sessionID).Msg("saving conversation context")
	}

	turns := []session.Turn{
		{Role: session.RoleUser, Text: text, Intent: reply.Decision.Intent.String()},
		{Role: session.RoleBot, Text: reply.Message},
	}
	if reply.Summary != "" {
		turns = append(turns, session.Turn{Role: session.RoleBot, Text: reply.Summary})
	}
	for _, t := range turns {
		if err := e.store.AppendTurn(ctx, sessionID, t); err != nil {
			e.log.Warn().Err(err).Str("session", sessionID).Msg("saving turn")
			return
		}
	}
}
