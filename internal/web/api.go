package web

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/justestif/spotify-remote/internal/apierr"
	"github.com/justestif/spotify-remote/internal/spotify"
)

// Me returns the current user's profile (GET /api/me).
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.client(r).Me(r.Context())
	if err != nil {
		writeError(w, r, h.logger, "Failed to fetch user", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Playlists returns the user's playlists as a bare array (GET /api/playlists).
func (h *Handlers) Playlists(w http.ResponseWriter, r *http.Request) {
	playlists, err := h.client(r).Playlists(r.Context(), parseLimit(r, maxLimit))
	if err != nil {
		writeError(w, r, h.logger, "Failed to fetch playlists", err)
		return
	}
	writeJSON(w, http.StatusOK, playlists)
}

// PlaylistTracks returns a playlist's items (GET /api/playlists/{id}/tracks).
// The liked-songs id is answered from the saved-tracks library in the same envelope.
func (h *Handlers) PlaylistTracks(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	limit := parseLimit(r, maxLimit)
	offset := parseOffset(r)

	if id == spotify.LikedSongsID {
		page, err := h.client(r).LikedSongs(r.Context(), limit, offset)
		if err != nil {
			writeError(w, r, h.logger, "Failed to fetch playlist tracks", err)
			return
		}
		writeJSON(w, http.StatusOK, page)
		return
	}

	page, err := h.client(r).PlaylistTracks(r.Context(), id, limit, offset)
	if err != nil {
		writeError(w, r, h.logger, "Failed to fetch playlist tracks", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Player returns the playback state (GET /api/player). An idle player is reported
// as an explicit empty state rather than 204.
func (h *Handlers) Player(w http.ResponseWriter, r *http.Request) {
	state, err := h.client(r).PlayerState(r.Context())
	if err != nil {
		writeError(w, r, h.logger, "Failed to fetch player state", err)
		return
	}
	if state == nil {
		writeJSON(w, http.StatusOK, spotify.IdlePlayer{})
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// Play starts a track (PUT /api/player/play).
func (h *Handlers) Play(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err == nil && strings.TrimSpace(body.TrackID) == "" {
		err = apierr.Invalid("missing trackId")
	}
	if err != nil {
		writeError(w, r, h.logger, "Failed to play track", err)
		return
	}

	if err := h.client(r).Play(r.Context(), strings.TrimSpace(body.TrackID)); err != nil {
		writeError(w, r, h.logger, "Failed to play track", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Toggle pauses or resumes playback (PUT /api/player/toggle).
func (h *Handlers) Toggle(w http.ResponseWriter, r *http.Request) {
	if err := h.client(r).Toggle(r.Context()); err != nil {
		writeError(w, r, h.logger, "Toggle failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Next skips forward (POST /api/player/next).
func (h *Handlers) Next(w http.ResponseWriter, r *http.Request) {
	if err := h.client(r).Next(r.Context()); err != nil {
		writeError(w, r, h.logger, "Next track failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Previous skips back (POST /api/player/previous).
func (h *Handlers) Previous(w http.ResponseWriter, r *http.Request) {
	if err := h.client(r).Previous(r.Context()); err != nil {
		writeError(w, r, h.logger, "Previous track failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Seek moves the playhead (PUT /api/player/seek).
func (h *Handlers) Seek(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	var position int
	if err == nil {
		position, err = parsePosition(r, body)
	}
	if err != nil {
		writeError(w, r, h.logger, "Seek failed", err)
		return
	}

	if err := h.client(r).Seek(r.Context(), position); err != nil {
		writeError(w, r, h.logger, "Seek failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Volume sets the device volume (PUT /api/player/volume).
func (h *Handlers) Volume(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	var volume int
	if err == nil {
		volume, err = parseVolume(r, body)
	}
	if err != nil {
		writeError(w, r, h.logger, "Volume change failed", err)
		return
	}

	if err := h.client(r).Volume(r.Context(), volume); err != nil {
		writeError(w, r, h.logger, "Volume change failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Like saves a track (PUT /api/tracks/{id}/like).
func (h *Handlers) Like(w http.ResponseWriter, r *http.Request) {
	if err := h.client(r).Like(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, "Failed to like track", err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Unlike removes a saved track (DELETE /api/tracks/{id}/like).
func (h *Handlers) Unlike(w http.ResponseWriter, r *http.Request) {
	if err := h.client(r).Unlike(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, "Failed to unlike track", err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// LikedStatus reports whether each id is saved (GET /api/tracks/liked?ids=a,b).
func (h *Handlers) LikedStatus(w http.ResponseWriter, r *http.Request) {
	ids, err := parseIDs(r)
	if err != nil {
		writeError(w, r, h.logger, "Failed to check liked status", err)
		return
	}

	saved, err := h.client(r).LikedStatus(r.Context(), ids)
	if err != nil {
		writeError(w, r, h.logger, "Failed to check liked status", err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// TopArtists returns the user's top artists (GET /api/me/top/artists).
func (h *Handlers) TopArtists(w http.ResponseWriter, r *http.Request) {
	timeRange, err := parseTimeRange(r)
	if err != nil {
		writeError(w, r, h.logger, "Failed to fetch top artists", err)
		return
	}

	page, err := h.client(r).TopArtists(r.Context(), timeRange, parseLimit(r, defaultLimit))
	if err != nil {
		writeError(w, r, h.logger, "Failed to fetch top artists", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// TopTracks returns the user's top tracks (GET /api/me/top/tracks).
func (h *Handlers) TopTracks(w http.ResponseWriter, r *http.Request) {
	timeRange, err := parseTimeRange(r)
	if err != nil {
		writeError(w, r, h.logger, "Failed to fetch top tracks", err)
		return
	}

	page, err := h.client(r).TopTracks(r.Context(), timeRange, parseLimit(r, defaultLimit))
	if err != nil {
		writeError(w, r, h.logger, "Failed to fetch top tracks", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Following returns followed artists (GET /api/me/following).
func (h *Handlers) Following(w http.ResponseWriter, r *http.Request) {
	followed, err := h.client(r).Following(r.Context(), parseLimit(r, defaultLimit))
	if err != nil {
		writeError(w, r, h.logger, "Failed to fetch followed artists", err)
		return
	}
	writeJSON(w, http.StatusOK, followed)
}

// RecentlyPlayed returns recently played tracks (GET /api/me/player/recently-played).
func (h *Handlers) RecentlyPlayed(w http.ResponseWriter, r *http.Request) {
	recent, err := h.client(r).RecentlyPlayed(r.Context(), parseLimit(r, defaultLimit))
	if err != nil {
		writeError(w, r, h.logger, "Failed to fetch recently played", err)
		return
	}
	writeJSON(w, http.StatusOK, recent)
}

// NewReleases returns new album releases (GET /api/browse/new-releases).
func (h *Handlers) NewReleases(w http.ResponseWriter, r *http.Request) {
	h.newReleases(w, r, h.client(r))
}

func (h *Handlers) newReleases(w http.ResponseWriter, r *http.Request, c *spotify.Client) {
	releases, err := c.NewReleases(r.Context(), parseLimit(r, defaultLimit))
	if err != nil {
		writeError(w, r, h.logger, "Failed to fetch new releases", err)
		return
	}
	writeJSON(w, http.StatusOK, releases)
}

// Search runs a catalog search (GET /api/search?q=&type=&limit=).
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	h.search(w, r, h.client(r))
}

func (h *Handlers) search(w http.ResponseWriter, r *http.Request, c *spotify.Client) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, r, h.logger, "Search failed", apierr.Invalid("search query is required"))
		return
	}
	types, err := spotify.ParseSearchTypes(r.URL.Query().Get("type"))
	if err != nil {
		writeError(w, r, h.logger, "Search failed", err)
		return
	}

	result, err := c.Search(r.Context(), query, types, parseLimit(r, defaultLimit))
	if err != nil {
		writeError(w, r, h.logger, "Search failed", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Artist returns an artist (GET /api/artists/{id}).
func (h *Handlers) Artist(w http.ResponseWriter, r *http.Request) {
	h.artist(w, r, h.client(r))
}

func (h *Handlers) artist(w http.ResponseWriter, r *http.Request, c *spotify.Client) {
	artist, err := c.Artist(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, "Failed to fetch artist", err)
		return
	}
	writeJSON(w, http.StatusOK, artist)
}

// ArtistTopTracks returns an artist's top tracks (GET /api/artists/{id}/top-tracks).
func (h *Handlers) ArtistTopTracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.client(r).ArtistTopTracks(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, "Failed to fetch artist top tracks", err)
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

// Album returns an album (GET /api/albums/{id}).
func (h *Handlers) Album(w http.ResponseWriter, r *http.Request) {
	h.album(w, r, h.client(r))
}

func (h *Handlers) album(w http.ResponseWriter, r *http.Request, c *spotify.Client) {
	album, err := c.Album(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, "Failed to fetch album", err)
		return
	}
	writeJSON(w, http.StatusOK, album)
}

// Library aggregates the user's collection (GET /api/library).
func (h *Handlers) Library(w http.ResponseWriter, r *http.Request) {
	lib, err := h.client(r).Library(r.Context())
	if err != nil {
		writeError(w, r, h.logger, "Failed to load library", err)
		return
	}
	writeJSON(w, http.StatusOK, lib)
}

// LikedSongs returns the liked-songs pseudo-playlist (GET /api/library/liked-songs).
func (h *Handlers) LikedSongs(w http.ResponseWriter, r *http.Request) {
	playlist, err := h.client(r).LikedSongsSummary(r.Context())
	if err != nil {
		writeError(w, r, h.logger, "Failed to fetch Liked Songs", err)
		return
	}
	writeJSON(w, http.StatusOK, playlist)
}

// public wraps a catalog handler so it runs with the client-credentials token.
func (h *Handlers) public(fn func(http.ResponseWriter, *http.Request, *spotify.Client)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := h.publicClient(r)
		if err != nil {
			writeError(w, r, h.logger, "Catalog unavailable", err)
			return
		}
		fn(w, r, c)
	}
}
