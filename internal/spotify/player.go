package spotify

import (
	"context"

	"github.com/zmb3/spotify/v2"
)

// IdlePlayer is the body sent when no device is active.
type IdlePlayer struct {
	IsPlaying bool      `json:"isPlaying"`
	Device    *struct{} `json:"device"`
	Item      *struct{} `json:"item"`
}

// PlayerState returns the current playback state, or nil when nothing is playing
// on any device (the provider answers 204).
func (c *Client) PlayerState(ctx context.Context) (*spotify.PlayerState, error) {
	state, err := c.api.PlayerState(ctx)
	if err != nil {
		return nil, upstream("getting player state", err)
	}
	if state == nil || (state.Item == nil && state.Device.ID == "") {
		return nil, nil
	}
	return state, nil
}

// Play starts the given track on the active device.
func (c *Client) Play(ctx context.Context, trackID string) error {
	opt := &spotify.PlayOptions{
		URIs: []spotify.URI{spotify.URI("spotify:track:" + trackID)},
	}
	if err := c.api.PlayOpt(ctx, opt); err != nil {
		return upstream("playing track", err)
	}
	return nil
}

// Toggle pauses when the player reports playing and resumes otherwise.
// The read and the write are two separate upstream calls.
func (c *Client) Toggle(ctx context.Context) error {
	state, err := c.PlayerState(ctx)
	if err != nil {
		return err
	}

	if state != nil && state.Playing {
		if err := c.api.Pause(ctx); err != nil {
			return upstream("pausing playback", err)
		}
		return nil
	}
	if err := c.api.Play(ctx); err != nil {
		return upstream("resuming playback", err)
	}
	return nil
}

// Next skips to the next track.
func (c *Client) Next(ctx context.Context) error {
	if err := c.api.Next(ctx); err != nil {
		return upstream("skipping to next", err)
	}
	return nil
}

// Previous skips to the previous track.
func (c *Client) Previous(ctx context.Context) error {
	if err := c.api.Previous(ctx); err != nil {
		return upstream("skipping to previous", err)
	}
	return nil
}

// Seek moves playback to positionMs.
func (c *Client) Seek(ctx context.Context, positionMs int) error {
	if err := c.api.Seek(ctx, positionMs); err != nil {
		return upstream("seeking", err)
	}
	return nil
}

// Volume sets the active device volume in percent.
func (c *Client) Volume(ctx context.Context, percent int) error {
	if err := c.api.Volume(ctx, percent); err != nil {
		return upstream("setting volume", err)
	}
	return nil
}
