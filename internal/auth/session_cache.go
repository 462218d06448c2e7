// Package auth implements the OAuth side of spotify-remote: the authorization-code flow,
// refresh exchanges, the shared client-credentials token and the client's session file.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	configDirName   = "spotify-remote"
	sessionFileName = "session.json"
)

// Session is the user token pair held by the client. The server never stores it.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the access token has passed its expiry.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// SessionFromFragment builds a Session from the URL fragment the callback redirects to,
// e.g. "access_token=a&refresh_token=r&expires_in=3600". A full URL is accepted too.
func SessionFromFragment(raw string, now time.Time) (*Session, error) {
	if u, err := url.Parse(raw); err == nil && u.Fragment != "" {
		raw = u.Fragment
	}

	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing fragment: %w", err)
	}
	if e := values.Get("error"); e != "" {
		return nil, fmt.Errorf("login failed: %s", e)
	}

	session := &Session{
		AccessToken:  values.Get("access_token"),
		RefreshToken: values.Get("refresh_token"),
	}
	if session.AccessToken == "" {
		return nil, errors.New("fragment has no access_token")
	}
	if s := values.Get("expires_in"); s != "" {
		secs, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("parsing expires_in: %w", err)
		}
		session.ExpiresAt = now.Add(time.Duration(secs) * time.Second)
	}
	return session, nil
}

// SessionCache handles durable client-side storage of the user session.
type SessionCache struct {
	path string
}

// DefaultSessionCache returns a SessionCache using the default location:
// ~/.config/spotify-remote/session.json
func DefaultSessionCache() (*SessionCache, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("getting user config dir: %w", err)
	}

	path := filepath.Join(configDir, configDirName, sessionFileName)
	return &SessionCache{path: path}, nil
}

// NewSessionCache creates a SessionCache with a custom path.
func NewSessionCache(path string) *SessionCache {
	return &SessionCache{path: path}
}

// Load reads the stored session from disk.
// Returns (nil, nil) if no session file exists.
func (c *SessionCache) Load() (*Session, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading session file: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("parsing session file: %w", err)
	}

	return &session, nil
}

// Save writes the session to disk, creating the parent directory if needed.
func (c *SessionCache) Save(session *Session) error {
	if session == nil {
		return errors.New("cannot save nil session")
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	if err := os.WriteFile(c.path, data, 0600); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}

	return nil
}

// Delete removes the stored session.
// Returns nil if the file does not exist.
func (c *SessionCache) Delete() error {
	err := os.Remove(c.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session file: %w", err)
	}
	return nil
}
