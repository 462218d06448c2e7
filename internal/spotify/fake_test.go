package spotify

import (
	"context"
	"sync"

	"github.com/zmb3/spotify/v2"
)

// fakeAPI implements API for tests. Methods without a hook panic through the nil embedded interface.
type fakeAPI struct {
	API

	mu    sync.Mutex
	calls []string

	playerState     func() (*spotify.PlayerState, error)
	mutate          func(name string) error
	userHasTracks   func(ids []spotify.ID) ([]bool, error)
	currentTracks   func() (*spotify.SavedTrackPage, error)
	playlists       func() (*spotify.SimplePlaylistPage, error)
	albums          func() (*spotify.SavedAlbumPage, error)
	shows           func() (*spotify.SavedShowPage, error)
	followedArtists func() (*spotify.FullArtistCursorPage, error)
	search          func(query string, t spotify.SearchType) (*spotify.SearchResult, error)
	recentlyPlayed  func(opt *spotify.RecentlyPlayedOptions) ([]spotify.RecentlyPlayedItem, error)

	playOpt *spotify.PlayOptions
	seekPos int
	volume  int
}

func (f *fakeAPI) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeAPI) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI) mutation(name string) error {
	f.record(name)
	if f.mutate == nil {
		return nil
	}
	return f.mutate(name)
}

func (f *fakeAPI) PlayerState(context.Context, ...spotify.RequestOption) (*spotify.PlayerState, error) {
	f.record("PlayerState")
	return f.playerState()
}

func (f *fakeAPI) Play(context.Context) error     { return f.mutation("Play") }
func (f *fakeAPI) Pause(context.Context) error    { return f.mutation("Pause") }
func (f *fakeAPI) Next(context.Context) error     { return f.mutation("Next") }
func (f *fakeAPI) Previous(context.Context) error { return f.mutation("Previous") }

func (f *fakeAPI) PlayOpt(_ context.Context, opt *spotify.PlayOptions) error {
	f.playOpt = opt
	return f.mutation("PlayOpt")
}

func (f *fakeAPI) Seek(_ context.Context, position int) error {
	f.seekPos = position
	return f.mutation("Seek")
}

func (f *fakeAPI) Volume(_ context.Context, percent int) error {
	f.volume = percent
	return f.mutation("Volume")
}

func (f *fakeAPI) UserHasTracks(_ context.Context, ids ...spotify.ID) ([]bool, error) {
	f.record("UserHasTracks")
	return f.userHasTracks(ids)
}

func (f *fakeAPI) CurrentUsersTracks(context.Context, ...spotify.RequestOption) (*spotify.SavedTrackPage, error) {
	f.record("CurrentUsersTracks")
	return f.currentTracks()
}

func (f *fakeAPI) CurrentUsersPlaylists(context.Context, ...spotify.RequestOption) (*spotify.SimplePlaylistPage, error) {
	f.record("CurrentUsersPlaylists")
	return f.playlists()
}

func (f *fakeAPI) CurrentUsersAlbums(context.Context, ...spotify.RequestOption) (*spotify.SavedAlbumPage, error) {
	f.record("CurrentUsersAlbums")
	return f.albums()
}

func (f *fakeAPI) CurrentUsersShows(context.Context, ...spotify.RequestOption) (*spotify.SavedShowPage, error) {
	f.record("CurrentUsersShows")
	return f.shows()
}

func (f *fakeAPI) CurrentUsersFollowedArtists(context.Context, ...spotify.RequestOption) (*spotify.FullArtistCursorPage, error) {
	f.record("CurrentUsersFollowedArtists")
	return f.followedArtists()
}

func (f *fakeAPI) Search(_ context.Context, query string, t spotify.SearchType, _ ...spotify.RequestOption) (*spotify.SearchResult, error) {
	f.record("Search")
	return f.search(query, t)
}

func (f *fakeAPI) PlayerRecentlyPlayedOpt(_ context.Context, opt *spotify.RecentlyPlayedOptions) ([]spotify.RecentlyPlayedItem, error) {
	f.record("PlayerRecentlyPlayedOpt")
	return f.recentlyPlayed(opt)
}
