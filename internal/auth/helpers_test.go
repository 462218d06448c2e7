package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// tokenServer is a stand-in for the provider's token endpoint.
type tokenServer struct {
	*httptest.Server

	calls atomic.Int32

	mu    sync.Mutex
	forms []url.Values
	users []string
}

// newTokenServer starts a token endpoint. respond receives the request number (1-based)
// and the parsed form and returns the status and JSON body to send.
func newTokenServer(t *testing.T, respond func(n int32, form url.Values) (int, any)) *tokenServer {
	t.Helper()
	ts := &tokenServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := ts.calls.Add(1)
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm() error = %v", err)
		}
		user, _, _ := r.BasicAuth()

		ts.mu.Lock()
		ts.forms = append(ts.forms, r.PostForm)
		ts.users = append(ts.users, user)
		ts.mu.Unlock()

		status, body := respond(n, r.PostForm)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *tokenServer) lastForm() url.Values {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if len(ts.forms) == 0 {
		return nil
	}
	return ts.forms[len(ts.forms)-1]
}

func (ts *tokenServer) lastUser() string {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if len(ts.users) == 0 {
		return ""
	}
	return ts.users[len(ts.users)-1]
}

func tokenBody(access, refresh string, expiresIn int) map[string]any {
	body := map[string]any{
		"access_token": access,
		"token_type":   "Bearer",
		"expires_in":   expiresIn,
	}
	if refresh != "" {
		body["refresh_token"] = refresh
	}
	return body
}
