package spotify

import (
	"context"

	"github.com/zmb3/spotify/v2"
	"golang.org/x/sync/errgroup"
)

// libraryPageSize is the page size for each library section.
const libraryPageSize = 50

// Library fetches the user's playlists, albums, followed artists, shows and liked-song count
// concurrently. The first failure cancels the remaining calls.
func (c *Client) Library(ctx context.Context) (*Library, error) {
	g, ctx := errgroup.WithContext(ctx)
	lib := &Library{}

	g.Go(func() error {
		page, err := c.api.CurrentUsersPlaylists(ctx, spotify.Limit(libraryPageSize))
		if err != nil {
			return upstream("fetching library playlists", err)
		}
		lib.Playlists = page.Playlists
		return nil
	})

	g.Go(func() error {
		page, err := c.api.CurrentUsersAlbums(ctx, spotify.Limit(libraryPageSize))
		if err != nil {
			return upstream("fetching library albums", err)
		}
		lib.Albums = make([]SavedAlbum, 0, len(page.Albums))
		for _, saved := range page.Albums {
			lib.Albums = append(lib.Albums, SavedAlbum{FullAlbum: saved.FullAlbum, AddedAt: saved.AddedAt})
		}
		return nil
	})

	g.Go(func() error {
		page, err := c.api.CurrentUsersFollowedArtists(ctx, spotify.Limit(libraryPageSize))
		if err != nil {
			return upstream("fetching followed artists", err)
		}
		lib.Artists = page.Artists
		return nil
	})

	g.Go(func() error {
		page, err := c.api.CurrentUsersShows(ctx, spotify.Limit(libraryPageSize))
		if err != nil {
			return upstream("fetching library shows", err)
		}
		lib.Podcasts = make([]SavedShow, 0, len(page.Shows))
		for _, saved := range page.Shows {
			lib.Podcasts = append(lib.Podcasts, SavedShow{FullShow: saved.FullShow, AddedAt: saved.AddedAt})
		}
		return nil
	})

	g.Go(func() error {
		page, err := c.api.CurrentUsersTracks(ctx, spotify.Limit(libraryPageSize))
		if err != nil {
			return upstream("fetching liked songs", err)
		}
		lib.LikedSongs = newLikedSongsPlaylist(int(page.Total))
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return lib, nil
}
