package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/justestif/spotify-remote/internal/apierr"
)

// Scopes requested on login.
var Scopes = []string{
	spotifyauth.ScopeUserReadPrivate,
	spotifyauth.ScopeUserReadEmail,
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopePlaylistModifyPrivate,
	spotifyauth.ScopeUserReadPlaybackState,
	spotifyauth.ScopeUserReadCurrentlyPlaying,
	spotifyauth.ScopeUserModifyPlaybackState,
	spotifyauth.ScopeUserLibraryRead,
	spotifyauth.ScopeUserLibraryModify,
	spotifyauth.ScopeUserTopRead,
	spotifyauth.ScopeUserReadRecentlyPlayed,
	spotifyauth.ScopeUserFollowRead,
}

// FlowState is a step of the authorization-code round trip.
type FlowState int

const (
	FlowIdle FlowState = iota
	FlowRedirected
	FlowCallbackPending
	FlowGranted
	FlowDenied
)

func (s FlowState) String() string {
	switch s {
	case FlowRedirected:
		return "redirected"
	case FlowCallbackPending:
		return "callback_pending"
	case FlowGranted:
		return "granted"
	case FlowDenied:
		return "denied"
	default:
		return "idle"
	}
}

// Flow runs the server side of the authorization-code grant and refresh exchanges.
// It keeps no per-user state: the nonce travels in a cookie and the tokens go to the client.
type Flow struct {
	oauth *oauth2.Config
	now   func() time.Time
}

// FlowOption configures a Flow.
type FlowOption func(*Flow)

// WithEndpoint points the flow at alternative authorize and token URLs.
func WithEndpoint(authURL, tokenURL string) FlowOption {
	return func(f *Flow) {
		f.oauth.Endpoint.AuthURL = authURL
		f.oauth.Endpoint.TokenURL = tokenURL
	}
}

// WithFlowClock sets the clock used to age auth state nonces.
func WithFlowClock(now func() time.Time) FlowOption {
	return func(f *Flow) {
		f.now = now
	}
}

// NewFlow creates a Flow for the given application credentials.
func NewFlow(clientID, clientSecret, redirectURI string, opts ...FlowOption) *Flow {
	f := &Flow{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   spotifyauth.AuthURL,
				TokenURL:  spotifyauth.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Begin issues a fresh nonce and returns it with the provider authorize URL.
func (f *Flow) Begin() (State, string, error) {
	nonce, err := generateState()
	if err != nil {
		return State{}, "", fmt.Errorf("generating state: %w", err)
	}
	state := State{Value: nonce, IssuedAt: f.now()}
	return state, f.oauth.AuthCodeURL(nonce), nil
}

// Complete validates the callback against the stored nonce and exchanges the code.
// A nil stored state, an empty code or a mismatched state yields apierr.ErrCSRFMismatch
// without contacting the provider.
func (f *Flow) Complete(ctx context.Context, code, returned string, stored *State) (*oauth2.Token, error) {
	if code == "" || stored == nil {
		return nil, apierr.ErrCSRFMismatch
	}
	if err := stored.Verify(returned, f.now()); err != nil {
		return nil, err
	}

	token, err := f.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apierr.ErrTokenExchange, err)
	}
	return token, nil
}

// Refresh exchanges a refresh token for a new access token. Nothing is cached:
// the refresh token belongs to the client.
func (f *Flow) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, apierr.Invalid("missing refresh token")
	}

	token, err := f.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apierr.ErrRefresh, err)
	}
	return token, nil
}

// ExpiresIn returns the remaining lifetime of token in whole seconds.
func ExpiresIn(token *oauth2.Token) int {
	if token.Expiry.IsZero() {
		return 0
	}
	return int(math.Round(time.Until(token.Expiry).Seconds()))
}

// generateState creates a random state string for OAuth.
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
