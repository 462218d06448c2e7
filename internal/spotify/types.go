package spotify

import "github.com/zmb3/spotify/v2"

// LikedItem is one saved track in playlist-item shape.
type LikedItem struct {
	Track   spotify.FullTrack `json:"track"`
	AddedAt string            `json:"added_at"`
}

// LikedPage is a page of saved tracks shaped like a playlist's items.
type LikedPage struct {
	Items  []LikedItem `json:"items"`
	Total  int         `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

// SavedAlbum is a library album flattened with the time it was saved.
type SavedAlbum struct {
	spotify.FullAlbum
	AddedAt string `json:"added_at"`
}

// SavedShow is a library show flattened with the time it was saved.
type SavedShow struct {
	spotify.FullShow
	AddedAt string `json:"added_at"`
}

// Library is the aggregated view of the user's collection.
type Library struct {
	Playlists  []spotify.SimplePlaylist `json:"playlists"`
	Albums     []SavedAlbum             `json:"albums"`
	Artists    []spotify.FullArtist     `json:"artists"`
	Podcasts   []SavedShow              `json:"podcasts"`
	LikedSongs *LikedSongsPlaylist      `json:"likedSongs"`
}

// LikedSongsPlaylist presents the saved-tracks collection as a playlist.
type LikedSongsPlaylist struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Images      []ImageRef     `json:"images"`
	Owner       PlaylistOwner  `json:"owner"`
	Tracks      PlaylistTracks `json:"tracks"`
	Type        string         `json:"type"`
	Public      bool           `json:"public"`
}

// ImageRef is an image by URL.
type ImageRef struct {
	URL string `json:"url"`
}

// PlaylistOwner names the owner of a playlist.
type PlaylistOwner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// PlaylistTracks is the track reference of a playlist.
type PlaylistTracks struct {
	Total int    `json:"total"`
	Href  string `json:"href"`
}

func newLikedSongsPlaylist(total int) *LikedSongsPlaylist {
	return &LikedSongsPlaylist{
		ID:          LikedSongsID,
		Name:        "Liked Songs",
		Description: "Your favorite tracks",
		Images: []ImageRef{
			{URL: "https://misc.scdn.co/liked-songs/liked-songs-300.png"},
			{URL: "https://misc.scdn.co/liked-songs/liked-songs-640.png"},
		},
		Owner:  PlaylistOwner{ID: "you", DisplayName: "You"},
		Tracks: PlaylistTracks{Total: total, Href: "https://api.spotify.com/v1/me/tracks"},
		Type:   "playlist",
	}
}

// FollowedArtists wraps the followed-artists cursor page under "artists".
type FollowedArtists struct {
	Artists *spotify.FullArtistCursorPage `json:"artists"`
}

// RecentlyPlayed wraps recently played items under "items".
type RecentlyPlayed struct {
	Items []spotify.RecentlyPlayedItem `json:"items"`
}

// NewReleases wraps the new releases page under "albums".
type NewReleases struct {
	Albums *spotify.SimpleAlbumPage `json:"albums"`
}

// TopTracks wraps an artist's top tracks under "tracks".
type TopTracks struct {
	Tracks []spotify.FullTrack `json:"tracks"`
}
