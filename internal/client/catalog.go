package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/justestif/spotify-remote/internal/apierr"
	"github.com/justestif/spotify-remote/internal/auth"
)

// SearchTypes is the set of result kinds requested by Search.
const SearchTypes = "track,artist,album,playlist"

// Search runs a catalog search for query.
func (c *Client) Search(ctx context.Context, query string, limit int) (*SearchResults, error) {
	params := url.Values{
		"q":     {query},
		"type":  {SearchTypes},
		"limit": {strconv.Itoa(limit)},
	}

	var results SearchResults
	if err := c.do(ctx, http.MethodGet, "/api/search", params, nil, &results); err != nil {
		return nil, err
	}
	return &results, nil
}

// Me returns the current user's profile.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/api/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Playlists returns the user's playlists.
func (c *Client) Playlists(ctx context.Context) ([]Playlist, error) {
	var playlists []Playlist
	if err := c.do(ctx, http.MethodGet, "/api/playlists", nil, nil, &playlists); err != nil {
		return nil, err
	}
	return playlists, nil
}

// refreshResponse is the body of POST /auth/refresh.
type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

// Refresh exchanges the stored refresh token for a new access token and saves the
// updated session. It is only ever called explicitly.
func (c *Client) Refresh(ctx context.Context) (*auth.Session, error) {
	session, err := c.sessions.Load()
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if session == nil || session.RefreshToken == "" {
		return nil, ErrNoSession
	}

	body := map[string]string{"refresh_token": session.RefreshToken}
	resp, err := c.send(ctx, http.MethodPost, "/auth/refresh", nil, body, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := decodeError(resp)
		if resp.StatusCode == http.StatusBadRequest {
			return nil, errors.Join(apierr.ErrRefresh, err)
		}
		return nil, fmt.Errorf("refreshing session: %w", err)
	}

	var out refreshResponse
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}

	updated := &auth.Session{
		AccessToken:  out.AccessToken,
		RefreshToken: session.RefreshToken,
		ExpiresAt:    c.now().Add(secondsToDuration(out.ExpiresIn)),
	}
	if out.RefreshToken != "" {
		updated.RefreshToken = out.RefreshToken
	}
	if err := c.sessions.Save(updated); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}
	return updated, nil
}
