// Package client talks to the spotify-remote proxy on behalf of a logged-in user.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/justestif/spotify-remote/internal/apierr"
	"github.com/justestif/spotify-remote/internal/auth"
)

// ErrNoSession is returned when no session has been stored yet.
var ErrNoSession = fmt.Errorf("%w: no stored session, run login first", apierr.ErrUnauthenticated)

// Sessions persists the user session between runs.
type Sessions interface {
	Load() (*auth.Session, error)
	Save(session *auth.Session) error
	Delete() error
}

// Client calls the proxy with the stored user session.
type Client struct {
	baseURL  *url.URL
	http     *http.Client
	sessions Sessions
	limiter  *rate.Limiter
	logger   *log.Logger
	now      func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLimiter paces batched requests such as liked-status lookups.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithClock sets the clock used for session expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New creates a Client for the proxy at baseURL.
func New(baseURL string, sessions Sessions, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing backend URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend URL %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL:  u,
		http:     &http.Client{Timeout: 15 * time.Second},
		sessions: sessions,
		limiter:  rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
		logger:   log.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// LoginURL returns the proxy URL that starts the authorization flow.
func (c *Client) LoginURL() string {
	return c.endpoint("/auth/login", nil)
}

// Session returns the stored session, or ErrNoSession.
func (c *Client) Session() (*auth.Session, error) {
	session, err := c.sessions.Load()
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if session == nil || session.AccessToken == "" {
		return nil, ErrNoSession
	}
	return session, nil
}

// SaveSession stores session for later runs.
func (c *Client) SaveSession(session *auth.Session) error {
	return c.sessions.Save(session)
}

// Logout discards the stored session.
func (c *Client) Logout() error {
	return c.sessions.Delete()
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends an authenticated request and decodes a JSON answer into out.
// A 401 from the proxy discards the stored session.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	session, err := c.Session()
	if err != nil {
		return err
	}

	resp, err := c.send(ctx, method, path, query, body, session.AccessToken)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		if err := c.sessions.Delete(); err != nil {
			c.logger.Warn("failed to discard session", "err", err)
		}
		return fmt.Errorf("%s %s: %w", method, path, apierr.ErrUnauthenticated)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: %w", method, path, decodeError(resp))
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return decodeJSON(resp, out)
}

// send builds and sends one request. An empty bearer sends no Authorization header.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any, bearer string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-Id", requestID)

	c.logger.Debug("request", "method", method, "path", path, "request_id", requestID)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

// decodeError turns a proxy error body into an *apierr.UpstreamError.
func decodeError(resp *http.Response) error {
	var body struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err := json.Unmarshal(data, &body); err != nil {
		return apierr.Upstream(resp.StatusCode, strings.TrimSpace(string(data)))
	}

	message := body.Details
	if message == "" {
		message = body.Error
	}
	if resp.StatusCode == http.StatusBadRequest {
		return errors.Join(apierr.ErrInvalidArgument, apierr.Upstream(resp.StatusCode, message))
	}
	return apierr.Upstream(resp.StatusCode, message)
}

func decodeJSON(resp *http.Response, out any) error {
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func secondsToDuration(s int) time.Duration {
	return time.Duration(s) * time.Second
}
