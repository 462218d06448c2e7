package spotify

import (
	"context"

	"github.com/zmb3/spotify/v2"
)

// LikedSongsID is the pseudo playlist id that addresses the user's saved tracks.
const LikedSongsID = "liked-songs"

// Playlists returns the current user's playlists.
func (c *Client) Playlists(ctx context.Context, limit int) ([]spotify.SimplePlaylist, error) {
	page, err := c.api.CurrentUsersPlaylists(ctx, spotify.Limit(limit))
	if err != nil {
		return nil, upstream("fetching playlists", err)
	}
	return page.Playlists, nil
}

// PlaylistTracks returns one page of a playlist's items.
func (c *Client) PlaylistTracks(ctx context.Context, playlistID string, limit, offset int) (*spotify.PlaylistItemPage, error) {
	page, err := c.api.GetPlaylistItems(ctx, spotify.ID(playlistID), spotify.Limit(limit), spotify.Offset(offset))
	if err != nil {
		return nil, upstream("fetching playlist tracks", err)
	}
	return page, nil
}
