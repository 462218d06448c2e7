package web

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/justestif/spotify-remote/internal/apierr"
)

const (
	defaultLimit = 20
	maxLimit     = 50
	maxLikedIDs  = 50
)

var timeRanges = map[string]bool{
	"short_term":  true,
	"medium_term": true,
	"long_term":   true,
}

// parseLimit reads ?limit, falling back to def and clamping to [1, 50].
func parseLimit(r *http.Request, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		n = def
	}
	return min(max(n, 1), maxLimit)
}

// parseOffset reads ?offset; negative or missing values mean 0.
func parseOffset(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// parseTimeRange reads ?time_range, defaulting to medium_term.
func parseTimeRange(r *http.Request) (string, error) {
	tr := r.URL.Query().Get("time_range")
	if tr == "" {
		return "medium_term", nil
	}
	if !timeRanges[tr] {
		return "", apierr.Invalid("time_range must be short_term, medium_term or long_term")
	}
	return tr, nil
}

// parseIDs reads the comma-separated ?ids list and enforces 1..50 entries.
func parseIDs(r *http.Request) ([]string, error) {
	var ids []string
	for _, id := range strings.Split(r.URL.Query().Get("ids"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, apierr.Invalid("missing track ids")
	}
	if len(ids) > maxLikedIDs {
		return nil, apierr.Invalid("at most %d ids per request", maxLikedIDs)
	}
	return ids, nil
}

// mutationBody carries the parameters of player mutations. Values may arrive in a
// JSON body or, for seek and volume, in the query string.
type mutationBody struct {
	TrackID       string       `json:"trackId"`
	PositionMs    *json.Number `json:"position_ms"`
	VolumePercent *json.Number `json:"volume_percent"`
	Volume        *json.Number `json:"volume"`
}

// decodeBody reads an optional JSON body. An empty body yields the zero value.
func decodeBody(r *http.Request) (mutationBody, error) {
	var body mutationBody
	if r.Body == nil {
		return body, nil
	}
	err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&body)
	if err != nil && !errors.Is(err, io.EOF) {
		return body, apierr.Invalid("malformed JSON body: %v", err)
	}
	return body, nil
}

// numberParam returns the first non-nil body value, or the named query parameter.
func numberParam(r *http.Request, query string, values ...*json.Number) (string, bool) {
	for _, v := range values {
		if v != nil {
			return v.String(), true
		}
	}
	if q := r.URL.Query().Get(query); q != "" {
		return q, true
	}
	return "", false
}

// parseVolume validates an integer volume in [0, 100].
func parseVolume(r *http.Request, body mutationBody) (int, error) {
	raw, ok := numberParam(r, "volume_percent", body.VolumePercent, body.Volume)
	if !ok {
		return 0, apierr.Invalid("missing volume_percent")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, apierr.Invalid("volume must be an integer, got %q", raw)
	}
	if f < 0 || f > 100 {
		return 0, apierr.Invalid("volume must be between 0 and 100, got %s", raw)
	}
	return int(f), nil
}

// parsePosition validates a non-negative seek position, truncated to whole milliseconds.
func parsePosition(r *http.Request, body mutationBody) (int, error) {
	raw, ok := numberParam(r, "position_ms", body.PositionMs)
	if !ok {
		return 0, apierr.Invalid("missing position_ms")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, apierr.Invalid("invalid position_ms %q", raw)
	}
	if f < 0 {
		return 0, apierr.Invalid("position_ms must be non-negative")
	}
	if f > math.MaxInt32 {
		return 0, apierr.Invalid("position_ms out of range")
	}
	return int(math.Trunc(f)), nil
}
