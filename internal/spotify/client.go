// Package spotify provides a wrapper around the Spotify Web API.
package spotify

import (
	"context"
	"errors"
	"fmt"

	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"

	"github.com/justestif/spotify-remote/internal/apierr"
)

// API is the subset of the Web API client the proxy forwards to.
// *spotify.Client satisfies it.
type API interface {
	CurrentUser(ctx context.Context) (*spotify.PrivateUser, error)
	CurrentUsersPlaylists(ctx context.Context, opts ...spotify.RequestOption) (*spotify.SimplePlaylistPage, error)
	GetPlaylistItems(ctx context.Context, playlistID spotify.ID, opts ...spotify.RequestOption) (*spotify.PlaylistItemPage, error)
	CurrentUsersTracks(ctx context.Context, opts ...spotify.RequestOption) (*spotify.SavedTrackPage, error)
	CurrentUsersAlbums(ctx context.Context, opts ...spotify.RequestOption) (*spotify.SavedAlbumPage, error)
	CurrentUsersShows(ctx context.Context, opts ...spotify.RequestOption) (*spotify.SavedShowPage, error)
	CurrentUsersFollowedArtists(ctx context.Context, opts ...spotify.RequestOption) (*spotify.FullArtistCursorPage, error)
	CurrentUsersTopArtists(ctx context.Context, opts ...spotify.RequestOption) (*spotify.FullArtistPage, error)
	CurrentUsersTopTracks(ctx context.Context, opts ...spotify.RequestOption) (*spotify.FullTrackPage, error)
	PlayerRecentlyPlayedOpt(ctx context.Context, opt *spotify.RecentlyPlayedOptions) ([]spotify.RecentlyPlayedItem, error)

	PlayerState(ctx context.Context, opts ...spotify.RequestOption) (*spotify.PlayerState, error)
	Play(ctx context.Context) error
	PlayOpt(ctx context.Context, opt *spotify.PlayOptions) error
	Pause(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	Seek(ctx context.Context, position int) error
	Volume(ctx context.Context, percent int) error

	AddTracksToLibrary(ctx context.Context, ids ...spotify.ID) error
	RemoveTracksFromLibrary(ctx context.Context, ids ...spotify.ID) error
	UserHasTracks(ctx context.Context, ids ...spotify.ID) ([]bool, error)

	NewReleases(ctx context.Context, opts ...spotify.RequestOption) (*spotify.SimpleAlbumPage, error)
	Search(ctx context.Context, query string, t spotify.SearchType, opts ...spotify.RequestOption) (*spotify.SearchResult, error)
	GetArtist(ctx context.Context, id spotify.ID) (*spotify.FullArtist, error)
	GetArtistsTopTracks(ctx context.Context, artistID spotify.ID, country string) ([]spotify.FullTrack, error)
	GetAlbum(ctx context.Context, id spotify.ID, opts ...spotify.RequestOption) (*spotify.FullAlbum, error)
}

var _ API = (*spotify.Client)(nil)

// Client wraps the Spotify API client with convenience methods.
// Every method returns an *apierr.UpstreamError when the provider answers non-2xx.
type Client struct {
	api API
}

// New creates a new Spotify client wrapper.
// The underlying client should already be authenticated.
func New(api API) *Client {
	return &Client{api: api}
}

// NewForToken creates a client that sends accessToken as its bearer.
// Clients are cheap and built per request; nothing about the caller is retained.
func NewForToken(ctx context.Context, accessToken string, opts ...spotify.ClientOption) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	return New(spotify.New(oauth2.NewClient(ctx, src), opts...))
}

// Factory builds a Client for a bearer token.
type Factory func(ctx context.Context, accessToken string) *Client

// NewFactory returns a Factory that applies opts to every client it builds.
func NewFactory(opts ...spotify.ClientOption) Factory {
	return func(ctx context.Context, accessToken string) *Client {
		return NewForToken(ctx, accessToken, opts...)
	}
}

// Me returns the current user's profile.
func (c *Client) Me(ctx context.Context) (*spotify.PrivateUser, error) {
	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		return nil, upstream("getting current user", err)
	}
	return user, nil
}

// upstream wraps err, converting provider error envelopes into *apierr.UpstreamError.
func upstream(action string, err error) error {
	var se spotify.Error
	if errors.As(err, &se) {
		return fmt.Errorf("%s: %w", action, apierr.Upstream(se.Status, se.Message))
	}
	return fmt.Errorf("%s: %w", action, err)
}
