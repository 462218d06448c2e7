package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"

	"github.com/justestif/spotify-remote/internal/apierr"
)

// ExpiryMargin is subtracted from the provider lifetime to absorb clock skew and latency.
const ExpiryMargin = 60 * time.Second

// DefaultTokenLifetime is assumed when the token response carries no expires_in.
const DefaultTokenLifetime = time.Hour

// TokenStore holds the application's client-credentials token and refreshes it lazily.
// It is created once per process and shared by every request that needs catalog access.
type TokenStore struct {
	cfg    *clientcredentials.Config
	now    func() time.Time
	logger *log.Logger

	mu        sync.Mutex
	value     string
	expiresAt time.Time

	flight singleflight.Group
}

// StoreOption configures a TokenStore.
type StoreOption func(*TokenStore)

// WithClock sets the clock used for expiry bookkeeping.
func WithClock(now func() time.Time) StoreOption {
	return func(s *TokenStore) {
		s.now = now
	}
}

// WithTokenURL points the store at an alternative token endpoint.
func WithTokenURL(url string) StoreOption {
	return func(s *TokenStore) {
		s.cfg.TokenURL = url
	}
}

// WithStoreLogger sets the logger for refresh events.
func WithStoreLogger(l *log.Logger) StoreOption {
	return func(s *TokenStore) {
		s.logger = l
	}
}

// NewTokenStore creates a TokenStore for the given application credentials.
func NewTokenStore(clientID, clientSecret string, opts ...StoreOption) *TokenStore {
	s := &TokenStore{
		cfg: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     spotifyauth.TokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		now:    time.Now,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Token returns the cached token while it is fresh and otherwise performs one exchange,
// shared by every concurrent caller.
func (s *TokenStore) Token(ctx context.Context) (string, error) {
	if value, ok := s.cached(); ok {
		return value, nil
	}

	v, err, shared := s.flight.Do("client_credentials", func() (any, error) {
		// a caller may arrive just after the previous flight stored its result
		if value, ok := s.cached(); ok {
			return value, nil
		}
		return s.refresh(context.WithoutCancel(ctx))
	})
	if err != nil {
		return "", err
	}
	if shared {
		s.logger.Debug("joined in-flight client credentials refresh")
	}
	return v.(string), nil
}

// cached returns the stored value if it has not reached its expiry.
func (s *TokenStore) cached() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.value != "" && s.now().Before(s.expiresAt) {
		return s.value, true
	}
	return "", false
}

// refresh performs the client-credentials exchange and stores the result.
func (s *TokenStore) refresh(ctx context.Context) (string, error) {
	start := s.now()
	token, err := s.cfg.Token(ctx)
	if err != nil {
		s.logger.Error("client credentials exchange failed", "err", err)
		return "", fmt.Errorf("%w: %v", apierr.ErrUpstreamAuth, err)
	}

	lifetime := time.Duration(token.ExpiresIn) * time.Second
	if lifetime <= 0 {
		s.logger.Warn("token response has no expires_in, assuming default", "lifetime", DefaultTokenLifetime)
		lifetime = DefaultTokenLifetime
	}

	s.mu.Lock()
	s.value = token.AccessToken
	// measured from the start of the exchange on the store clock
	s.expiresAt = start.Add(lifetime - ExpiryMargin)
	expiresAt := s.expiresAt
	s.mu.Unlock()

	s.logger.Info("refreshed client credentials token", "expires_at", expiresAt.Format(time.RFC3339))
	return token.AccessToken, nil
}
