// Package api serves the chat engine over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/justestif/smart-mood-player/internal/chat"
	"github.com/justestif/smart-mood-player/internal/mood"
	"github.com/justestif/smart-mood-player/internal/session"
	"github.com/justestif/smart-mood-player/internal/spotify"
)

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = "127.0.0.1:8080"

	shutdownTimeout = 10 * time.Second
)

// Conversation is what the handlers need from the chat engine.
type Conversation interface {
	Turn(ctx context.Context, sessionID, text string) (chat.Reply, error)
	Recommend(ctx context.Context, text string) (mood.Label, []spotify.TrackRecord, error)
	Reset(ctx context.Context, sessionID string) error
}

var _ Conversation = (*chat.Engine)(nil)

var (
	_ Pruner = (*session.MemoryStore)(nil)
	_ Pruner = (*session.DBStore)(nil)
)

// Pruner drops sessions idle for longer than ttl and reports how many it
// removed.
type Pruner interface {
	Prune(ctx context.Context, ttl time.Duration) (int, error)
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr string
	// SessionTTL is the session cookie lifetime and the idle time after
	// which a pruner forgets a session.
	SessionTTL  time.Duration
	TemplatesFS fs.FS
	StaticFS    fs.FS
}

// Server is the HTTP server for the chat engine.
type Server struct {
	router   chi.Router
	server   *http.Server
	handlers *Handlers
	pruner   Pruner
	ttl      time.Duration
	log      zerolog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and lifecycle logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) {
		s.log = l
	}
}

// WithPruner enables periodic pruning of idle sessions.
func WithPruner(p Pruner) Option {
	return func(s *Server) {
		s.pruner = p
	}
}

// NewServer creates a server around conv.
func NewServer(conv Conversation, cfg ServerConfig, opts ...Option) (*Server, error) {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}

	s := &Server{
		router: chi.NewRouter(),
		ttl:    cfg.SessionTTL,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	var page *Page
	if cfg.TemplatesFS != nil {
		var err error
		if page, err = NewPage(cfg.TemplatesFS); err != nil {
			return nil, fmt.Errorf("loading templates: %w", err)
		}
	}

	s.handlers = NewHandlers(conv, page, cfg.SessionTTL, s.log)
	s.setupMiddleware()
	s.setupRoutes(cfg.StaticFS)

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Handler returns the server's router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.log))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(instrument)
}

func (s *Server) setupRoutes(staticFS fs.FS) {
	if staticFS != nil {
		fileServer := http.FileServer(http.FS(staticFS))
		s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))
	}

	s.router.Get("/", s.handlers.Home)
	s.router.Get("/healthz", s.handlers.Health)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Post("/recommendations", s.handlers.Recommendations)
	s.router.Post("/chat", s.handlers.Chat)
	s.router.Delete("/chat", s.handlers.ResetChat)
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.server.Addr).Msgf("listening on http://%s", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if s.pruner != nil {
		go s.prune(ctx)
	}

	select {
	case err := <-errCh:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
		s.log.Info().Msg("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.log.Info().Msg("server stopped")
	return nil
}

func (s *Server) prune(ctx context.Context) {
	ticker := time.NewTicker(min(s.ttl, time.Hour))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.pruner.Prune(ctx, s.ttl)
			if err != nil {
				s.log.Warn().Err(err).Msg("pruning idle sessions")
				continue
			}
			if n > 0 {
				s.log.Debug().Int("sessions", n).Msg("pruned idle sessions")
			}
		}
	}
}
