package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/justestif/smart-mood-player/internal/api"
	"github.com/justestif/smart-mood-player/internal/auth"
	"github.com/justestif/smart-mood-player/internal/chat"
	"github.com/justestif/smart-mood-player/internal/config"
	"github.com/justestif/smart-mood-player/internal/db"
	"github.com/justestif/smart-mood-player/internal/dialog"
	"github.com/justestif/smart-mood-player/internal/dispatch"
	"github.com/justestif/smart-mood-player/internal/intent"
	"github.com/justestif/smart-mood-player/internal/mood"
	"github.com/justestif/smart-mood-player/internal/session"
	"github.com/justestif/smart-mood-player/internal/spotify"
)

// app holds everything built once at startup.
type app struct {
	engine *chat.Engine
	// pruner expires idle sessions in whichever store holds them.
	pruner  api.Pruner
	closers []func()
}

// newApp loads the artifacts and connects the optional services. With
// needCatalog, missing Spotify credentials are fatal; otherwise the engine
// runs without a catalog.
func newApp(ctx context.Context, cfg config.Config, log zerolog.Logger, needCatalog bool) (*app, error) {
	a := &app{}

	classifier, err := mood.Load(cfg.Model.Path, mood.WithMinConfidence(cfg.Model.MinConfidence))
	if err != nil {
		return nil, err
	}
	book, err := dialog.Load(cfg.Model.Dialogs)
	if err != nil {
		return nil, err
	}

	catalog, err := a.connectCatalog(ctx, cfg, log)
	switch {
	case errors.Is(err, auth.ErrMissingCredentials) && !needCatalog:
		log.Error().Err(err).Msg("Spotify catalog disabled")
	case err != nil:
		a.Close()
		return nil, err
	}

	store, err := a.openStore(ctx, cfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.engine = chat.New(
		classifier,
		intent.New(),
		dispatch.New(book),
		catalog,
		store,
		chat.WithLogger(log.With().Str("component", "chat").Logger()),
		chat.WithClassifierOverride(cfg.Model.Override),
	)
	return a, nil
}

// connectCatalog returns a nil Catalog (not a nil *spotify.Client) on
// failure so the engine sees it as absent.
func (a *app) connectCatalog(ctx context.Context, cfg config.Config, log zerolog.Logger) (chat.Catalog, error) {
	creds := auth.Credentials{ClientID: cfg.Spotify.ClientID, ClientSecret: cfg.Spotify.ClientSecret}

	opts := []auth.Option{auth.WithLogger(log)}
	if tokens, err := auth.DefaultTokenCache(); err != nil {
		log.Warn().Err(err).Msg("token cache disabled")
	} else {
		opts = append(opts, auth.WithTokenCache(tokens))
	}
	authenticator, err := auth.New(creds, opts...)
	if err != nil {
		return nil, err
	}

	var cache spotify.Cache = spotify.NewMemoryCache()
	if cfg.Store.RedisAddr != "" {
		redisCache, err := spotify.NewRedisCache(ctx, spotify.RedisConfig{
			Addr: cfg.Store.RedisAddr,
			DB:   cfg.Store.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = redisCache.Close() })
		cache = redisCache
	}

	client := spotify.New(
		authenticator.Client(ctx, cfg.Spotify.Timeout),
		spotify.WithCache(cache, cfg.Spotify.CacheTTL),
		spotify.WithMarket(cfg.Spotify.Market),
		spotify.WithLimit(cfg.Spotify.Limit),
		spotify.WithLogger(log.With().Str("component", "spotify").Logger()),
	)
	return client, nil
}

func (a *app) openStore(ctx context.Context, cfg config.Config, log zerolog.Logger) (session.Store, error) {
	if cfg.Store.DatabaseURL == "" {
		store := session.NewMemoryStore()
		a.pruner = store
		return store, nil
	}

	database, err := db.New(ctx, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	a.closers = append(a.closers, database.Close)
	if err := database.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	log.Info().Msg("storing conversations in PostgreSQL")
	store := session.NewDBStore(database)
	a.pruner = store
	return store, nil
}

// Close releases connections in reverse order of opening.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
