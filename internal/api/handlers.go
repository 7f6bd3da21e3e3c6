package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/justestif/smart-mood-player/internal/chat"
	"github.com/justestif/smart-mood-player/internal/spotify"
)

// Error bodies of POST /recommendations.
const (
	msgMissingText     = `Invalid input, "text" field is required.`
	msgNoCatalog       = "Spotify client not initialized. Check server logs."
	msgInternal        = "An internal server error occurred."
	msgTurnInFlight    = "Still working on your last message."
	maxRequestBodySize = 64 << 10
)

// Handlers contains the HTTP handlers.
type Handlers struct {
	conv Conversation
	page *Page
	ttl  time.Duration
	log  zerolog.Logger
}

// NewHandlers creates the handlers. A nil page serves a plain-text notice
// at "/".
func NewHandlers(conv Conversation, page *Page, ttl time.Duration, log zerolog.Logger) *Handlers {
	return &Handlers{conv: conv, page: page, ttl: ttl, log: log}
}

type textRequest struct {
	Text string `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// trackJSON is the track shape of POST /recommendations.
type trackJSON struct {
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	URL        string `json:"url"`
	PreviewURL string `json:"preview_url"`
}

type recommendationsResponse struct {
	Mood   string      `json:"mood"`
	Tracks []trackJSON `json:"tracks"`
}

type chatResponse struct {
	Intent    string                   `json:"intent"`
	Entity    string                   `json:"entity"`
	Mood      string                   `json:"mood"`
	Message   string                   `json:"message"`
	Status    string                   `json:"status"`
	Summary   string                   `json:"summary"`
	Tracks    []spotify.TrackRecord    `json:"tracks"`
	Playlists []spotify.PlaylistRecord `json:"playlists"`
}

// Home serves the chat page (GET /).
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	if h.page == nil {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Smart Mood Player API. POST /chat or /recommendations.\n"))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.page.Render(w, PageData{Title: "Smart Mood Player", Opening: chat.Opening}); err != nil {
		h.log.Error().Err(err).Msg("rendering page")
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}

// Health reports liveness (GET /healthz).
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Recommendations predicts the mood of the posted text and returns
// matching tracks (POST /recommendations).
func (h *Handlers) Recommendations(w http.ResponseWriter, r *http.Request) {
	text, ok := readText(w, r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgMissingText})
		return
	}

	label, tracks, err := h.conv.Recommend(r.Context(), text)
	switch {
	case errors.Is(err, chat.ErrCatalogUnavailable):
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgNoCatalog})
		return
	case err != nil:
		h.log.Error().Err(err).Msg("recommendations failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgInternal})
		return
	}

	resp := recommendationsResponse{Mood: string(label), Tracks: make([]trackJSON, 0, len(tracks))}
	for _, t := range tracks {
		resp.Tracks = append(resp.Tracks, trackJSON{
			Title:      t.Name,
			Artist:     t.Artist,
			URL:        t.URL,
			PreviewURL: t.PreviewURL,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Chat runs one conversation turn for the cookie's session (POST /chat).
// A catalog failure still answers 200 with the service-error summary, the
// same way the terminal UI shows it.
func (h *Handlers) Chat(w http.ResponseWriter, r *http.Request) {
	text, ok := readText(w, r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgMissingText})
		return
	}
	id := sessionID(w, r, h.ttl)

	reply, err := h.conv.Turn(r.Context(), id, text)
	switch {
	case errors.Is(err, chat.ErrTurnInFlight):
		writeJSON(w, http.StatusConflict, errorResponse{Error: msgTurnInFlight})
		return
	case errors.Is(err, chat.ErrCatalogUnavailable):
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgNoCatalog})
		return
	case err != nil && reply.Summary == "":
		h.log.Error().Err(err).Str("session", id).Msg("turn failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgInternal})
		return
	case err != nil:
		h.log.Warn().Err(err).Str("session", id).Msg("catalog search failed")
	}

	resp := chatResponse{
		Intent:    reply.Decision.Intent.String(),
		Entity:    reply.Utterance.Entity,
		Mood:      string(reply.Label),
		Message:   reply.Message,
		Status:    reply.Decision.Status,
		Summary:   reply.Summary,
		Tracks:    reply.Tracks,
		Playlists: reply.Playlists,
	}
	if resp.Tracks == nil {
		resp.Tracks = []spotify.TrackRecord{}
	}
	if resp.Playlists == nil {
		resp.Playlists = []spotify.PlaylistRecord{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ResetChat forgets the cookie's session (DELETE /chat).
func (h *Handlers) ResetChat(w http.ResponseWriter, r *http.Request) {
	if id, ok := existingSessionID(r); ok {
		if err := h.conv.Reset(r.Context(), id); err != nil {
			h.log.Error().Err(err).Str("session", id).Msg("resetting session")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgInternal})
			return
		}
	}
	clearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// readText decodes {"text": "..."} and reports whether text is non-blank.
func readText(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req textRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize)).Decode(&req); err != nil {
		return "", false
	}
	text := strings.TrimSpace(req.Text)
	return text, text != ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
