package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/justestif/spotify-remote/internal/apierr"
)

// maxLikedBatch is the most ids the proxy accepts per liked-status request.
const maxLikedBatch = 50

// PlayerState returns the current playback state.
func (c *Client) PlayerState(ctx context.Context) (*PlaybackState, error) {
	var state PlaybackState
	if err := c.do(ctx, http.MethodGet, "/api/player", nil, nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Play starts the given track.
func (c *Client) Play(ctx context.Context, trackID string) error {
	body := map[string]string{"trackId": trackID}
	return c.do(ctx, http.MethodPut, "/api/player/play", nil, body, nil)
}

// Toggle pauses or resumes playback.
func (c *Client) Toggle(ctx context.Context) error {
	return c.do(ctx, http.MethodPut, "/api/player/toggle", nil, nil, nil)
}

// Next skips to the next track.
func (c *Client) Next(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/player/next", nil, nil, nil)
}

// Previous skips to the previous track.
func (c *Client) Previous(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/player/previous", nil, nil, nil)
}

// Seek moves playback to positionMs.
func (c *Client) Seek(ctx context.Context, positionMs int) error {
	body := map[string]int{"position_ms": positionMs}
	return c.do(ctx, http.MethodPut, "/api/player/seek", nil, body, nil)
}

// SetVolume sets the device volume in percent.
func (c *Client) SetVolume(ctx context.Context, percent int) error {
	body := map[string]int{"volume_percent": percent}
	return c.do(ctx, http.MethodPut, "/api/player/volume", nil, body, nil)
}

// Like saves a track to the library.
func (c *Client) Like(ctx context.Context, trackID string) error {
	return c.do(ctx, http.MethodPut, "/api/tracks/"+url.PathEscape(trackID)+"/like", nil, nil, nil)
}

// Unlike removes a track from the library.
func (c *Client) Unlike(ctx context.Context, trackID string) error {
	return c.do(ctx, http.MethodDelete, "/api/tracks/"+url.PathEscape(trackID)+"/like", nil, nil, nil)
}

// LikedStatus reports which of ids are saved. Ids are sent in batches of at most 50,
// paced by the client's limiter.
func (c *Client) LikedStatus(ctx context.Context, ids []string) (map[string]bool, error) {
	result := make(map[string]bool, len(ids))

	for i := 0; i < len(ids); i += maxLikedBatch {
		end := min(i+maxLikedBatch, len(ids))
		batch := ids[i:end]

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}

		var saved []bool
		query := url.Values{"ids": {strings.Join(batch, ",")}}
		if err := c.do(ctx, http.MethodGet, "/api/tracks/liked", query, nil, &saved); err != nil {
			return nil, err
		}
		if len(saved) != len(batch) {
			return nil, apierr.Upstream(http.StatusBadGateway,
				fmt.Sprintf("liked status returned %d results for %d ids", len(saved), len(batch)))
		}
		for j, id := range batch {
			result[id] = saved[j]
		}
	}

	return result, nil
}
