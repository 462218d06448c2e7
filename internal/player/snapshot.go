// Package player keeps a local picture of the remote playback state and reconciles it
// with user gestures such as seeking and liking.
package player

import (
	"strings"

	"github.com/justestif/spotify-remote/internal/client"
)

// Snapshot is the last known playback state.
type Snapshot struct {
	TrackID      string
	Name         string
	Artists      string
	Album        string
	AlbumArt     string
	URI          string
	DurationMs   int
	ProgressMs   int
	IsPlaying    bool
	DeviceName   string
	DeviceVolume int
	HasVolume    bool
}

// Active reports whether a track is loaded.
func (s Snapshot) Active() bool {
	return s.TrackID != ""
}

// FromState converts the proxy's player payload. A nil state or a state with no item
// yields the zero Snapshot.
func FromState(state *client.PlaybackState) Snapshot {
	if state == nil {
		return Snapshot{}
	}

	var snap Snapshot
	snap.IsPlaying = state.IsPlaying
	if state.Device != nil {
		snap.DeviceName = state.Device.Name
		if state.Device.VolumePercent != nil {
			snap.DeviceVolume = *state.Device.VolumePercent
			snap.HasVolume = true
		}
	}

	item := state.Item
	if item == nil {
		return snap
	}

	names := make([]string, len(item.Artists))
	for i, a := range item.Artists {
		names[i] = a.Name
	}

	snap.TrackID = item.ID
	snap.Name = item.Name
	snap.Artists = strings.Join(names, ", ")
	snap.Album = item.Album.Name
	snap.URI = item.URI
	snap.DurationMs = item.DurationMs
	snap.ProgressMs = state.ProgressMs
	if len(item.Album.Images) > 0 {
		snap.AlbumArt = item.Album.Images[0].URL
	}
	return snap
}
