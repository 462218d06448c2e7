package spotify

import (
	"context"
	"strings"

	"github.com/zmb3/spotify/v2"

	"github.com/justestif/spotify-remote/internal/apierr"
)

// DefaultMarket is the market sent with artist top-track lookups.
const DefaultMarket = "US"

// searchTypes maps query-string names to provider search types.
var searchTypes = map[string]spotify.SearchType{
	"track":    spotify.SearchTypeTrack,
	"artist":   spotify.SearchTypeArtist,
	"album":    spotify.SearchTypeAlbum,
	"playlist": spotify.SearchTypePlaylist,
	"show":     spotify.SearchTypeShow,
	"episode":  spotify.SearchTypeEpisode,
}

// DefaultSearchTypes is used when a search names no types.
const DefaultSearchTypes = "track,artist,album,playlist"

// ParseSearchTypes parses a comma-separated list such as "track,artist".
// Unknown names yield apierr.ErrInvalidArgument.
func ParseSearchTypes(list string) (spotify.SearchType, error) {
	if strings.TrimSpace(list) == "" {
		list = DefaultSearchTypes
	}

	var t spotify.SearchType
	for _, name := range strings.Split(list, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		st, ok := searchTypes[name]
		if !ok {
			return 0, apierr.Invalid("unknown search type %q", name)
		}
		t |= st
	}
	return t, nil
}

// Search runs a catalog search.
func (c *Client) Search(ctx context.Context, query string, t spotify.SearchType, limit int) (*spotify.SearchResult, error) {
	result, err := c.api.Search(ctx, query, t, spotify.Limit(limit))
	if err != nil {
		return nil, upstream("searching", err)
	}
	return result, nil
}

// TopArtists returns the user's top artists over timeRange.
func (c *Client) TopArtists(ctx context.Context, timeRange string, limit int) (*spotify.FullArtistPage, error) {
	page, err := c.api.CurrentUsersTopArtists(ctx, spotify.Timerange(spotify.Range(timeRange)), spotify.Limit(limit))
	if err != nil {
		return nil, upstream("fetching top artists", err)
	}
	return page, nil
}

// TopTracks returns the user's top tracks over timeRange.
func (c *Client) TopTracks(ctx context.Context, timeRange string, limit int) (*spotify.FullTrackPage, error) {
	page, err := c.api.CurrentUsersTopTracks(ctx, spotify.Timerange(spotify.Range(timeRange)), spotify.Limit(limit))
	if err != nil {
		return nil, upstream("fetching top tracks", err)
	}
	return page, nil
}

// Following returns the artists the user follows.
func (c *Client) Following(ctx context.Context, limit int) (*FollowedArtists, error) {
	page, err := c.api.CurrentUsersFollowedArtists(ctx, spotify.Limit(limit))
	if err != nil {
		return nil, upstream("fetching followed artists", err)
	}
	return &FollowedArtists{Artists: page}, nil
}

// RecentlyPlayed returns the user's recently played tracks.
func (c *Client) RecentlyPlayed(ctx context.Context, limit int) (*RecentlyPlayed, error) {
	items, err := c.api.PlayerRecentlyPlayedOpt(ctx, &spotify.RecentlyPlayedOptions{Limit: spotify.Numeric(limit)})
	if err != nil {
		return nil, upstream("fetching recently played", err)
	}
	if items == nil {
		items = []spotify.RecentlyPlayedItem{}
	}
	return &RecentlyPlayed{Items: items}, nil
}

// NewReleases returns newly released albums.
func (c *Client) NewReleases(ctx context.Context, limit int) (*NewReleases, error) {
	page, err := c.api.NewReleases(ctx, spotify.Limit(limit))
	if err != nil {
		return nil, upstream("fetching new releases", err)
	}
	return &NewReleases{Albums: page}, nil
}

// Artist returns an artist by id.
func (c *Client) Artist(ctx context.Context, id string) (*spotify.FullArtist, error) {
	artist, err := c.api.GetArtist(ctx, spotify.ID(id))
	if err != nil {
		return nil, upstream("fetching artist", err)
	}
	return artist, nil
}

// ArtistTopTracks returns an artist's top tracks in DefaultMarket.
func (c *Client) ArtistTopTracks(ctx context.Context, id string) (*TopTracks, error) {
	tracks, err := c.api.GetArtistsTopTracks(ctx, spotify.ID(id), DefaultMarket)
	if err != nil {
		return nil, upstream("fetching artist top tracks", err)
	}
	if tracks == nil {
		tracks = []spotify.FullTrack{}
	}
	return &TopTracks{Tracks: tracks}, nil
}

// Album returns an album by id.
func (c *Client) Album(ctx context.Context, id string) (*spotify.FullAlbum, error) {
	album, err := c.api.GetAlbum(ctx, spotify.ID(id))
	if err != nil {
		return nil, upstream("fetching album", err)
	}
	return album, nil
}
