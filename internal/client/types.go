package client

// Image is an artwork reference.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// Artist is an artist as returned by the proxy.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// Album is an album as returned by the proxy.
type Album struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	URI         string   `json:"uri"`
	ReleaseDate string   `json:"release_date"`
	Artists     []Artist `json:"artists"`
	Images      []Image  `json:"images"`
}

// Track is a track as returned by the proxy.
type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	URI        string   `json:"uri"`
	DurationMs int      `json:"duration_ms"`
	Artists    []Artist `json:"artists"`
	Album      Album    `json:"album"`
}

// Playlist is a playlist summary.
type Playlist struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	URI    string  `json:"uri"`
	Images []Image `json:"images"`
	Owner  struct {
		DisplayName string `json:"display_name"`
	} `json:"owner"`
}

// Device is the playback device.
type Device struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	IsActive      bool   `json:"is_active"`
	VolumePercent *int   `json:"volume_percent"`
}

// PlaybackState is the body of GET /api/player. An idle player has a nil Item and Device.
type PlaybackState struct {
	IsPlaying  bool    `json:"is_playing"`
	ProgressMs int     `json:"progress_ms"`
	Item       *Track  `json:"item"`
	Device     *Device `json:"device"`
}

// Page is a list of items with the provider's paging total.
type Page[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// SearchResults is the body of GET /api/search.
type SearchResults struct {
	Tracks    *Page[Track]    `json:"tracks"`
	Artists   *Page[Artist]   `json:"artists"`
	Albums    *Page[Album]    `json:"albums"`
	Playlists *Page[Playlist] `json:"playlists"`
}

// Empty reports whether no section has any items.
func (r *SearchResults) Empty() bool {
	if r == nil {
		return true
	}
	return pageLen(r.Tracks) == 0 && pageLen(r.Artists) == 0 &&
		pageLen(r.Albums) == 0 && pageLen(r.Playlists) == 0
}

func pageLen[T any](p *Page[T]) int {
	if p == nil {
		return 0
	}
	return len(p.Items)
}

// User is the current user's profile.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Product     string `json:"product"`
	Country     string `json:"country"`
}
