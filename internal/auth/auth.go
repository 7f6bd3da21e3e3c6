// Package auth obtains app-level Spotify access tokens with the
// client-credentials flow and caches them on disk.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// minCredentialLength is shorter than any real Spotify client id or secret.
const minCredentialLength = 10

// ErrMissingCredentials is returned when the client id or secret is empty.
var ErrMissingCredentials = errors.New("missing Spotify client id or secret (set SPOTIFY_ID/SPOTIFY_SECRET or SPOTIPY_CLIENT_ID/SPOTIPY_CLIENT_SECRET)")

// Credentials identify the application to the Spotify accounts service.
type Credentials struct {
	ClientID     string
	ClientSecret string
	// TokenURL overrides the accounts service endpoint.
	TokenURL string
}

// Validate returns ErrMissingCredentials when either value is empty.
func (c Credentials) Validate() error {
	if c.ClientID == "" || c.ClientSecret == "" {
		return ErrMissingCredentials
	}
	return nil
}

// Weak reports whether either value is too short to be a real credential,
// which usually means a placeholder was left in the environment.
func (c Credentials) Weak() bool {
	return len(c.ClientID) < minCredentialLength || len(c.ClientSecret) < minCredentialLength
}

// Authenticator hands out authenticated catalog clients.
type Authenticator struct {
	cfg   clientcredentials.Config
	cache *TokenCache
	log   zerolog.Logger
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithTokenCache sets where tokens are persisted. A nil cache disables
// persistence.
func WithTokenCache(c *TokenCache) Option {
	return func(a *Authenticator) {
		a.cache = c
	}
}

// WithLogger sets the authenticator's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(a *Authenticator) {
		a.log = l
	}
}

// New creates an Authenticator. It returns ErrMissingCredentials when the
// credentials are incomplete and logs a warning when they look like
// placeholders.
func New(creds Credentials, opts ...Option) (*Authenticator, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	tokenURL := creds.TokenURL
	if tokenURL == "" {
		tokenURL = spotifyauth.TokenURL
	}

	a := &Authenticator{
		cfg: clientcredentials.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			TokenURL:     tokenURL,
		},
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if creds.Weak() {
		a.log.Warn().Msg("Spotify client id or secret looks too short; check your environment")
	}
	return a, nil
}

// TokenSource returns a token source that reuses the cached token while it
// is valid and persists every new token it fetches.
func (a *Authenticator) TokenSource(ctx context.Context) oauth2.TokenSource {
	var cached *oauth2.Token
	if a.cache != nil {
		tok, err := a.cache.Load()
		if err != nil {
			a.log.Warn().Err(err).Str("path", a.cache.Path()).Msg("ignoring unreadable token cache")
		}
		cached = tok
	}

	src := &persistingSource{
		base:  a.cfg.TokenSource(ctx),
		cache: a.cache,
		log:   a.log,
	}
	if cached != nil {
		src.last = cached.AccessToken
	}
	return oauth2.ReuseTokenSource(cached, src)
}

// Client returns a catalog client whose requests carry a token and give up
// after timeout.
func (a *Authenticator) Client(ctx context.Context, timeout time.Duration, opts ...spotify.ClientOption) *spotify.Client {
	httpClient := oauth2.NewClient(ctx, a.TokenSource(ctx))
	httpClient.Timeout = timeout
	return spotify.New(httpClient, append([]spotify.ClientOption{spotify.WithRetry(true)}, opts...)...)
}

// Logout forgets the cached token so the next run fetches a new one. It
// needs no credentials; a nil cache is a no-op.
func Logout(cache *TokenCache) error {
	if cache == nil {
		return nil
	}
	return cache.Delete()
}

// persistingSource saves every new token from base to the cache.
type persistingSource struct {
	base  oauth2.TokenSource
	cache *TokenCache
	log   zerolog.Logger

	mu   sync.Mutex
	last string
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, fmt.Errorf("fetching Spotify access token: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache != nil && tok.AccessToken != s.last {
		if err := s.cache.Save(tok); err != nil {
			s.log.Warn().Err(err).Msg("failed to cache access token")
		}
		s.last = tok.AccessToken
	}
	return tok, nil
}
