package auth

import (
	"crypto/subtle"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/justestif/spotify-remote/internal/apierr"
)

// StateTTL bounds how long a login nonce stays acceptable.
const StateTTL = 5 * time.Minute

// State is the CSRF nonce bound to one in-flight authorization redirect.
type State struct {
	Value    string
	IssuedAt time.Time
}

// Encode renders the state as a cookie value.
func (s State) Encode() string {
	return s.Value + "." + strconv.FormatInt(s.IssuedAt.Unix(), 10)
}

// ParseState decodes a cookie value produced by Encode.
func ParseState(raw string) (*State, error) {
	value, issued, ok := strings.Cut(raw, ".")
	if !ok || value == "" {
		return nil, fmt.Errorf("malformed state cookie")
	}
	unix, err := strconv.ParseInt(issued, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed state timestamp: %w", err)
	}
	return &State{Value: value, IssuedAt: time.Unix(unix, 0)}, nil
}

// Verify checks the state echoed by the provider against the nonce.
func (s State) Verify(returned string, now time.Time) error {
	if subtle.ConstantTimeCompare([]byte(returned), []byte(s.Value)) != 1 {
		return apierr.ErrCSRFMismatch
	}
	if now.Sub(s.IssuedAt) > StateTTL {
		return fmt.Errorf("%w: nonce expired", apierr.ErrCSRFMismatch)
	}
	return nil
}
