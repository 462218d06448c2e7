package web

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/justestif/spotify-remote/internal/apierr"
)

func TestParseLimit(t *testing.T) {
	tests := []struct {
		query string
		def   int
		want  int
	}{
		{"", 20, 20},
		{"?limit=10", 20, 10},
		{"?limit=0", 20, 1},
		{"?limit=-3", 20, 1},
		{"?limit=51", 20, 50},
		{"?limit=1000", 20, 50},
		{"?limit=abc", 20, 20},
		{"", 50, 50},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/x"+tt.query, nil)
			if got := parseLimit(r, tt.def); got != tt.want {
				t.Errorf("parseLimit(%q) = %d, want %d", tt.query, got, tt.want)
			}
		})
	}
}

func TestParseTimeRange(t *testing.T) {
	tests := []struct {
		query   string
		want    string
		wantErr bool
	}{
		{"", "medium_term", false},
		{"?time_range=short_term", "short_term", false},
		{"?time_range=long_term", "long_term", false},
		{"?time_range=all_time", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/x"+tt.query, nil)
			got, err := parseTimeRange(r)
			if tt.wantErr {
				if !errors.Is(err, apierr.ErrInvalidArgument) {
					t.Errorf("error = %v, want ErrInvalidArgument", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("parseTimeRange() = %q, %v, want %q", got, err, tt.want)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Bearer  abc ", "abc", true},
		{"", "", false},
		{"Bearer", "", false},
		{"Token abc", "", false},
		{"Bearer a b", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Header.Set("Authorization", tt.header)
			got, ok := bearerToken(r)
			if got != tt.want || ok != tt.ok {
				t.Errorf("bearerToken(%q) = %q, %v, want %q, %v", tt.header, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestOriginOf(t *testing.T) {
	if got := originOf("http://127.0.0.1:5173/"); got != "http://127.0.0.1:5173" {
		t.Errorf("originOf() = %q", got)
	}
	if got := originOf("https://remote.example.com/app/"); got != "https://remote.example.com" {
		t.Errorf("originOf() = %q", got)
	}
}
