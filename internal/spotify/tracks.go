package spotify

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"
)

// maxIDsPerRequest is the provider's limit for library id lists.
const maxIDsPerRequest = 50

// LikedSongs returns one page of the user's saved tracks shaped like a playlist's items.
func (c *Client) LikedSongs(ctx context.Context, limit, offset int) (*LikedPage, error) {
	page, err := c.api.CurrentUsersTracks(ctx, spotify.Limit(limit), spotify.Offset(offset))
	if err != nil {
		return nil, upstream("fetching liked songs", err)
	}

	items := make([]LikedItem, 0, len(page.Tracks))
	for _, saved := range page.Tracks {
		items = append(items, convertSavedTrack(saved))
	}

	return &LikedPage{
		Items:  items,
		Total:  int(page.Total),
		Limit:  int(page.Limit),
		Offset: int(page.Offset),
	}, nil
}

// LikedSongsSummary returns the "Liked Songs" pseudo-playlist with its track count.
func (c *Client) LikedSongsSummary(ctx context.Context) (*LikedSongsPlaylist, error) {
	page, err := c.api.CurrentUsersTracks(ctx, spotify.Limit(1))
	if err != nil {
		return nil, upstream("counting liked songs", err)
	}
	return newLikedSongsPlaylist(int(page.Total)), nil
}

// convertSavedTrack converts a Spotify SavedTrack to a LikedItem.
func convertSavedTrack(saved spotify.SavedTrack) LikedItem {
	return LikedItem{
		Track:   saved.FullTrack,
		AddedAt: saved.AddedAt,
	}
}

// Like saves a track to the user's library.
func (c *Client) Like(ctx context.Context, trackID string) error {
	if err := c.api.AddTracksToLibrary(ctx, spotify.ID(trackID)); err != nil {
		return upstream("liking track", err)
	}
	return nil
}

// Unlike removes a track from the user's library.
func (c *Client) Unlike(ctx context.Context, trackID string) error {
	if err := c.api.RemoveTracksFromLibrary(ctx, spotify.ID(trackID)); err != nil {
		return upstream("unliking track", err)
	}
	return nil
}

// LikedStatus reports, for each id in order, whether it is saved in the user's library.
// The provider accepts at most 50 ids per request, so larger sets are batched.
func (c *Client) LikedStatus(ctx context.Context, trackIDs []string) ([]bool, error) {
	if len(trackIDs) == 0 {
		return []bool{}, nil
	}

	ids := make([]spotify.ID, len(trackIDs))
	for i, id := range trackIDs {
		ids[i] = spotify.ID(id)
	}

	result := make([]bool, 0, len(ids))
	for i := 0; i < len(ids); i += maxIDsPerRequest {
		end := min(i+maxIDsPerRequest, len(ids))
		batch := ids[i:end]

		saved, err := c.api.UserHasTracks(ctx, batch...)
		if err != nil {
			return nil, upstream(fmt.Sprintf("checking liked status (batch %d-%d)", i+1, end), err)
		}
		result = append(result, saved...)
	}

	return result, nil
}
