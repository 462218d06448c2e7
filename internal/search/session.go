// Package search runs type-ahead catalog searches with debouncing, caching and
// cancellation of superseded requests.
package search

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/justestif/spotify-remote/internal/client"
)

const (
	// DefaultDebounce is the quiet period after the last keystroke before a search runs.
	DefaultDebounce = 500 * time.Millisecond
	// DefaultTTL is how long a cached result stays valid.
	DefaultTTL = 5 * time.Minute
	// MaxLimit is the largest page the proxy accepts.
	MaxLimit = 50
)

// State is the visible state of a Session.
type State int

const (
	Idle State = iota
	Searching
	Results
	Empty
	Error
)

func (s State) String() string {
	switch s {
	case Searching:
		return "searching"
	case Results:
		return "results"
	case Empty:
		return "empty"
	case Error:
		return "error"
	default:
		return "idle"
	}
}

// Update is delivered to the OnChange callback on every state transition.
type Update struct {
	State   State
	Query   string
	Results *client.SearchResults
	Err     error
}

// Searcher performs one catalog search.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) (*client.SearchResults, error)
}

var _ Searcher = (*client.Client)(nil)

// Timer is a pending debounce callback.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules fn after d.
type AfterFunc func(d time.Duration, fn func()) Timer

type cacheEntry struct {
	results   *client.SearchResults
	expiresAt time.Time
}

// Session holds one search box.
type Session struct {
	searcher  Searcher
	debounce  time.Duration
	ttl       time.Duration
	limit     int
	logger    *log.Logger
	onChange  func(Update)
	now       func() time.Time
	afterFunc AfterFunc

	mu       sync.Mutex
	state    State
	query    string
	results  *client.SearchResults
	timer    Timer
	typed    uint64
	attempt  uint64
	cancel   context.CancelFunc
	cache    map[string]cacheEntry
	closed   bool
	inflight sync.WaitGroup
}

// Option configures a Session.
type Option func(*Session)

// WithDebounce sets the quiet period.
func WithDebounce(d time.Duration) Option {
	return func(s *Session) {
		s.debounce = d
	}
}

// WithTTL sets the cache lifetime.
func WithTTL(d time.Duration) Option {
	return func(s *Session) {
		s.ttl = d
	}
}

// WithLimit sets the page size, capped at MaxLimit.
func WithLimit(n int) Option {
	return func(s *Session) {
		s.limit = min(max(n, 1), MaxLimit)
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// WithOnChange registers the state callback. It runs with the session locked and must
// not call back into the Session.
func WithOnChange(fn func(Update)) Option {
	return func(s *Session) {
		s.onChange = fn
	}
}

// WithClock sets the clock used for cache expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// WithAfterFunc replaces the debounce scheduler.
func WithAfterFunc(fn AfterFunc) Option {
	return func(s *Session) {
		s.afterFunc = fn
	}
}

// NewSession creates a Session backed by searcher.
func NewSession(searcher Searcher, opts ...Option) *Session {
	s := &Session{
		searcher: searcher,
		debounce: DefaultDebounce,
		ttl:      DefaultTTL,
		limit:    20,
		logger:   log.Default(),
		now:      time.Now,
		afterFunc: func(d time.Duration, fn func()) Timer {
			return time.AfterFunc(d, fn)
		},
		cache: make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Normalize returns the cache key and outgoing query for raw input.
func Normalize(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Type records a keystroke. Only the last query of a quiet period is searched.
// A blank query clears the results immediately.
func (s *Session) Type(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.typed++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	if Normalize(query) == "" {
		s.clearLocked()
		return
	}

	typed := s.typed
	s.timer = s.afterFunc(s.debounce, func() {
		s.fire(typed, query)
	})
}

// Submit searches immediately, dropping any pending debounce.
func (s *Session) Submit(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.typed++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.startLocked(query)
}

func (s *Session) fire(typed uint64, query string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || typed != s.typed {
		return
	}
	s.timer = nil
	s.startLocked(query)
}

// startLocked serves query from the cache or launches a request. Callers hold s.mu.
func (s *Session) startLocked(raw string) {
	query := Normalize(raw)
	if query == "" {
		s.clearLocked()
		return
	}

	if entry, ok := s.cache[query]; ok && s.now().Before(entry.expiresAt) {
		s.logger.Debug("search cache hit", "query", query)
		s.supersedeLocked()
		s.settleLocked(query, entry.results, nil)
		return
	}

	s.supersedeLocked()
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	attempt := s.attempt

	s.query = query
	s.results = nil
	s.setLocked(Update{State: Searching, Query: query})

	s.inflight.Add(1)
	go s.run(ctx, attempt, query)
}

func (s *Session) run(ctx context.Context, attempt uint64, query string) {
	defer s.inflight.Done()

	results, err := s.searcher.Search(ctx, query, s.limit)

	s.mu.Lock()
	defer s.mu.Unlock()

	if attempt != s.attempt {
		s.logger.Debug("discarding superseded search", "query", query)
		return
	}
	s.cancel()
	s.cancel = nil

	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Warn("search failed", "query", query, "err", err)
		}
		s.settleLocked(query, nil, err)
		return
	}

	s.cache[query] = cacheEntry{results: results, expiresAt: s.now().Add(s.ttl)}
	s.settleLocked(query, results, nil)
}

// supersedeLocked cancels the in-flight request so its response is discarded.
func (s *Session) supersedeLocked() {
	s.attempt++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) clearLocked() {
	s.supersedeLocked()
	s.query = ""
	s.results = nil
	s.setLocked(Update{State: Idle})
}

func (s *Session) settleLocked(query string, results *client.SearchResults, err error) {
	s.query = query
	s.results = results

	switch {
	case err != nil:
		s.setLocked(Update{State: Error, Query: query, Err: err})
	case results.Empty():
		s.setLocked(Update{State: Empty, Query: query, Results: results})
	default:
		s.setLocked(Update{State: Results, Query: query, Results: results})
	}
}

func (s *Session) setLocked(u Update) {
	s.state = u.State
	if s.onChange != nil {
		s.onChange(u)
	}
}

// State returns the current state and results.
func (s *Session) State() (State, *client.SearchResults) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.results
}

// Wait blocks until no request is in flight.
func (s *Session) Wait() {
	s.inflight.Wait()
}

// Close stops the pending debounce, cancels the in-flight request and waits for it.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.attempt++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	s.inflight.Wait()
}
