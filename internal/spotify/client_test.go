package spotify

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"
	"time"

	"github.com/zmb3/spotify/v2"

	"github.com/justestif/spotify-remote/internal/apierr"
)

func TestConvertSavedTrack(t *testing.T) {
	tests := []struct {
		name            string
		saved           spotify.SavedTrack
		expectedID      spotify.ID
		expectedName    string
		expectedAddedAt string
		expectedArtists int
	}{
		{
			name: "single artist",
			saved: spotify.SavedTrack{
				AddedAt: "2024-01-15T10:30:00Z",
				FullTrack: spotify.FullTrack{
					SimpleTrack: spotify.SimpleTrack{
						ID:   "track123",
						Name: "Test Song",
						Artists: []spotify.SimpleArtist{
							{Name: "Artist One"},
						},
					},
				},
			},
			expectedID:      "track123",
			expectedName:    "Test Song",
			expectedAddedAt: "2024-01-15T10:30:00Z",
			expectedArtists: 1,
		},
		{
			name: "multiple artists",
			saved: spotify.SavedTrack{
				AddedAt: "2023-06-20T15:45:00Z",
				FullTrack: spotify.FullTrack{
					SimpleTrack: spotify.SimpleTrack{
						ID:   "track456",
						Name: "Collab Track",
						Artists: []spotify.SimpleArtist{
							{Name: "Artist A"},
							{Name: "Artist B"},
							{Name: "Artist C"},
						},
					},
				},
			},
			expectedID:      "track456",
			expectedName:    "Collab Track",
			expectedAddedAt: "2023-06-20T15:45:00Z",
			expectedArtists: 3,
		},
		{
			name: "added_at passed through verbatim",
			saved: spotify.SavedTrack{
				AddedAt: "not-a-valid-timestamp",
				FullTrack: spotify.FullTrack{
					SimpleTrack: spotify.SimpleTrack{ID: "track789", Name: "Old Song"},
				},
			},
			expectedID:      "track789",
			expectedName:    "Old Song",
			expectedAddedAt: "not-a-valid-timestamp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := convertSavedTrack(tt.saved)

			if got.Track.ID != tt.expectedID {
				t.Errorf("ID = %q, want %q", got.Track.ID, tt.expectedID)
			}
			if got.Track.Name != tt.expectedName {
				t.Errorf("Name = %q, want %q", got.Track.Name, tt.expectedName)
			}
			if got.AddedAt != tt.expectedAddedAt {
				t.Errorf("AddedAt = %q, want %q", got.AddedAt, tt.expectedAddedAt)
			}
			if len(got.Track.Artists) != tt.expectedArtists {
				t.Errorf("len(Artists) = %d, want %d", len(got.Track.Artists), tt.expectedArtists)
			}
		})
	}
}

func TestLikedSongs_Reshape(t *testing.T) {
	page := &spotify.SavedTrackPage{
		Tracks: []spotify.SavedTrack{
			{AddedAt: "2024-01-01T00:00:00Z", FullTrack: spotify.FullTrack{SimpleTrack: spotify.SimpleTrack{ID: "a"}}},
			{AddedAt: "2024-01-02T00:00:00Z", FullTrack: spotify.FullTrack{SimpleTrack: spotify.SimpleTrack{ID: "b"}}},
		},
	}
	page.Total = 120
	page.Limit = 2
	page.Offset = 10

	api := &fakeAPI{currentTracks: func() (*spotify.SavedTrackPage, error) { return page, nil }}

	got, err := New(api).LikedSongs(context.Background(), 2, 10)
	if err != nil {
		t.Fatalf("LikedSongs() error = %v", err)
	}
	if got.Total != 120 || got.Limit != 2 || got.Offset != 10 {
		t.Errorf("paging = %d/%d/%d, want 120/2/10", got.Total, got.Limit, got.Offset)
	}
	if len(got.Items) != 2 || got.Items[1].Track.ID != "b" || got.Items[1].AddedAt != "2024-01-02T00:00:00Z" {
		t.Errorf("Items = %+v", got.Items)
	}
}

func TestLikedStatus_Batching(t *testing.T) {
	tests := []struct {
		name          string
		totalTracks   int
		expectedBatch []int
	}{
		{"empty", 0, nil},
		{"less than 50", 20, []int{20}},
		{"exactly 50", 50, []int{50}},
		{"more than 50", 120, []int{50, 50, 20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var batches []int
			api := &fakeAPI{userHasTracks: func(ids []spotify.ID) ([]bool, error) {
				batches = append(batches, len(ids))
				out := make([]bool, len(ids))
				for i, id := range ids {
					out[i] = id == "track-7"
				}
				return out, nil
			}}

			ids := make([]string, tt.totalTracks)
			for i := range ids {
				ids[i] = "track-" + string(rune('0'+i%10))
			}

			got, err := New(api).LikedStatus(context.Background(), ids)
			if err != nil {
				t.Fatalf("LikedStatus() error = %v", err)
			}
			if !reflect.DeepEqual(batches, tt.expectedBatch) {
				t.Errorf("batches = %v, want %v", batches, tt.expectedBatch)
			}
			if len(got) != tt.totalTracks {
				t.Fatalf("len(result) = %d, want %d", len(got), tt.totalTracks)
			}
			for i, liked := range got {
				if want := ids[i] == "track-7"; liked != want {
					t.Errorf("result[%d] = %v, want %v", i, liked, want)
				}
			}
		})
	}
}

func TestPlayerState(t *testing.T) {
	t.Run("nothing playing", func(t *testing.T) {
		api := &fakeAPI{playerState: func() (*spotify.PlayerState, error) {
			return &spotify.PlayerState{}, nil
		}}

		state, err := New(api).PlayerState(context.Background())
		if err != nil {
			t.Fatalf("PlayerState() error = %v", err)
		}
		if state != nil {
			t.Errorf("PlayerState() = %+v, want nil", state)
		}
	})

	t.Run("active device", func(t *testing.T) {
		api := &fakeAPI{playerState: func() (*spotify.PlayerState, error) {
			s := &spotify.PlayerState{}
			s.Device.ID = "device-1"
			s.Playing = true
			return s, nil
		}}

		state, err := New(api).PlayerState(context.Background())
		if err != nil {
			t.Fatalf("PlayerState() error = %v", err)
		}
		if state == nil || !state.Playing {
			t.Errorf("PlayerState() = %+v, want playing state", state)
		}
	})
}

func TestToggle(t *testing.T) {
	tests := []struct {
		name  string
		state func() *spotify.PlayerState
		want  string
	}{
		{
			name: "playing pauses",
			state: func() *spotify.PlayerState {
				s := &spotify.PlayerState{}
				s.Device.ID = "d"
				s.Playing = true
				return s
			},
			want: "Pause",
		},
		{
			name: "paused resumes",
			state: func() *spotify.PlayerState {
				s := &spotify.PlayerState{}
				s.Device.ID = "d"
				return s
			},
			want: "Play",
		},
		{
			name:  "idle resumes",
			state: func() *spotify.PlayerState { return &spotify.PlayerState{} },
			want:  "Play",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{playerState: func() (*spotify.PlayerState, error) { return tt.state(), nil }}

			if err := New(api).Toggle(context.Background()); err != nil {
				t.Fatalf("Toggle() error = %v", err)
			}

			calls := api.called()
			want := []string{"PlayerState", tt.want}
			if !reflect.DeepEqual(calls, want) {
				t.Errorf("calls = %v, want %v", calls, want)
			}
		})
	}
}

func TestPlay_SendsTrackURI(t *testing.T) {
	api := &fakeAPI{}

	if err := New(api).Play(context.Background(), "4uLU6hMCjMI75M1A2tKUQC"); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if api.playOpt == nil || len(api.playOpt.URIs) != 1 {
		t.Fatalf("PlayOpt options = %+v", api.playOpt)
	}
	if got := api.playOpt.URIs[0]; got != "spotify:track:4uLU6hMCjMI75M1A2tKUQC" {
		t.Errorf("URI = %q", got)
	}
}

func TestUpstreamErrorTranslation(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "provider envelope keeps status",
			err:         spotify.Error{Status: http.StatusNotFound, Message: "Player command failed: No active device found"},
			wantStatus:  http.StatusNotFound,
			wantMessage: "Player command failed: No active device found",
		},
		{
			name:        "provider envelope without status",
			err:         spotify.Error{Message: "boom"},
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "boom",
		},
		{
			name:       "transport failure",
			err:        errors.New("connection refused"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{mutate: func(string) error { return tt.err }}

			err := New(api).Next(context.Background())
			if err == nil {
				t.Fatal("Next() error = nil")
			}
			if got := apierr.Status(err); got != tt.wantStatus {
				t.Errorf("Status() = %d, want %d", got, tt.wantStatus)
			}
			if tt.wantMessage != "" && apierr.Message(err) != tt.wantMessage {
				t.Errorf("Message() = %q, want %q", apierr.Message(err), tt.wantMessage)
			}
		})
	}
}

func TestParseSearchTypes(t *testing.T) {
	tests := []struct {
		input   string
		want    spotify.SearchType
		wantErr bool
	}{
		{"", spotify.SearchTypeTrack | spotify.SearchTypeArtist | spotify.SearchTypeAlbum | spotify.SearchTypePlaylist, false},
		{"track", spotify.SearchTypeTrack, false},
		{"Track, show ,episode", spotify.SearchTypeTrack | spotify.SearchTypeShow | spotify.SearchTypeEpisode, false},
		{"track,genre", 0, true},
		{"track,", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSearchTypes(tt.input)
			if tt.wantErr {
				if !errors.Is(err, apierr.ErrInvalidArgument) {
					t.Errorf("ParseSearchTypes(%q) error = %v, want ErrInvalidArgument", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSearchTypes(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseSearchTypes(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestRecentlyPlayed(t *testing.T) {
	tests := []struct {
		name      string
		items     []spotify.RecentlyPlayedItem
		wantItems int
	}{
		{"nil becomes empty", nil, 0},
		{"items kept", []spotify.RecentlyPlayedItem{{PlayedAt: time.Unix(0, 0)}, {PlayedAt: time.Unix(60, 0)}}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sentLimit spotify.Numeric
			api := &fakeAPI{
				recentlyPlayed: func(opt *spotify.RecentlyPlayedOptions) ([]spotify.RecentlyPlayedItem, error) {
					sentLimit = opt.Limit
					return tt.items, nil
				},
			}

			got, err := New(api).RecentlyPlayed(context.Background(), 25)
			if err != nil {
				t.Fatalf("RecentlyPlayed() error = %v", err)
			}
			if sentLimit != 25 {
				t.Errorf("limit sent = %d, want 25", sentLimit)
			}
			if got.Items == nil {
				t.Fatal("Items is nil, want a non-nil slice")
			}
			if len(got.Items) != tt.wantItems {
				t.Errorf("len(Items) = %d, want %d", len(got.Items), tt.wantItems)
			}
		})
	}
}
