package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"
	spotifyapi "github.com/zmb3/spotify/v2"

	"github.com/justestif/spotify-remote/internal/auth"
	"github.com/justestif/spotify-remote/internal/spotify"
)

const testFrontend = "http://127.0.0.1:5173/"

// fakeUpstream implements spotify.API. Unhooked methods panic through the nil embedded interface.
type fakeUpstream struct {
	spotify.API

	mu    sync.Mutex
	calls []string

	playerState   func() (*spotifyapi.PlayerState, error)
	mutate        func(name string) error
	userHasTracks func(ids []spotifyapi.ID) ([]bool, error)
	savedTracks   func() (*spotifyapi.SavedTrackPage, error)
	search        func(query string, t spotifyapi.SearchType) (*spotifyapi.SearchResult, error)

	seekPos int
	volume  int
	played  []spotifyapi.URI
}

func (f *fakeUpstream) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeUpstream) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeUpstream) mutation(name string) error {
	f.record(name)
	if f.mutate == nil {
		return nil
	}
	return f.mutate(name)
}

func (f *fakeUpstream) PlayerState(context.Context, ...spotifyapi.RequestOption) (*spotifyapi.PlayerState, error) {
	f.record("PlayerState")
	return f.playerState()
}

func (f *fakeUpstream) Play(context.Context) error     { return f.mutation("Play") }
func (f *fakeUpstream) Pause(context.Context) error    { return f.mutation("Pause") }
func (f *fakeUpstream) Next(context.Context) error     { return f.mutation("Next") }
func (f *fakeUpstream) Previous(context.Context) error { return f.mutation("Previous") }

func (f *fakeUpstream) PlayOpt(_ context.Context, opt *spotifyapi.PlayOptions) error {
	f.played = opt.URIs
	return f.mutation("PlayOpt")
}

func (f *fakeUpstream) Seek(_ context.Context, position int) error {
	f.seekPos = position
	return f.mutation("Seek")
}

func (f *fakeUpstream) Volume(_ context.Context, percent int) error {
	f.volume = percent
	return f.mutation("Volume")
}

func (f *fakeUpstream) AddTracksToLibrary(context.Context, ...spotifyapi.ID) error {
	return f.mutation("AddTracksToLibrary")
}

func (f *fakeUpstream) RemoveTracksFromLibrary(context.Context, ...spotifyapi.ID) error {
	return f.mutation("RemoveTracksFromLibrary")
}

func (f *fakeUpstream) UserHasTracks(_ context.Context, ids ...spotifyapi.ID) ([]bool, error) {
	f.record("UserHasTracks")
	return f.userHasTracks(ids)
}

func (f *fakeUpstream) CurrentUsersTracks(context.Context, ...spotifyapi.RequestOption) (*spotifyapi.SavedTrackPage, error) {
	f.record("CurrentUsersTracks")
	return f.savedTracks()
}

func (f *fakeUpstream) CurrentUsersTopArtists(context.Context, ...spotifyapi.RequestOption) (*spotifyapi.FullArtistPage, error) {
	f.record("CurrentUsersTopArtists")
	return &spotifyapi.FullArtistPage{}, nil
}

func (f *fakeUpstream) Search(_ context.Context, query string, t spotifyapi.SearchType, _ ...spotifyapi.RequestOption) (*spotifyapi.SearchResult, error) {
	f.record("Search")
	return f.search(query, t)
}

// testEnv is a proxy wired to a fake upstream and a fake token endpoint.
type testEnv struct {
	handler     http.Handler
	upstream    *fakeUpstream
	tokenCalls  atomic.Int32
	grantCounts sync.Map // grant_type -> *atomic.Int32

	mu     sync.Mutex
	tokens []string // bearer tokens handed to the upstream factory
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{upstream: &fakeUpstream{}}

	tokenSrv := httptest.NewServer(http.HandlerFunc(env.serveToken))
	t.Cleanup(tokenSrv.Close)

	logger := log.New(io.Discard)
	flow := auth.NewFlow("client-id", "client-secret", "http://127.0.0.1:5000/auth/callback",
		auth.WithEndpoint("https://accounts.example.com/authorize", tokenSrv.URL))
	tokens := auth.NewTokenStore("client-id", "client-secret",
		auth.WithTokenURL(tokenSrv.URL), auth.WithStoreLogger(logger))

	factory := func(_ context.Context, accessToken string) *spotify.Client {
		env.mu.Lock()
		env.tokens = append(env.tokens, accessToken)
		env.mu.Unlock()
		return spotify.New(env.upstream)
	}

	env.handler = NewServer(ServerConfig{
		Addr:        "127.0.0.1:0",
		FrontendURI: testFrontend,
		Flow:        flow,
		Tokens:      tokens,
		Upstream:    factory,
		Logger:      logger,
	}).Handler()
	return env
}

// serveToken answers every grant type the proxy uses.
func (env *testEnv) serveToken(w http.ResponseWriter, r *http.Request) {
	env.tokenCalls.Add(1)
	_ = r.ParseForm()
	grant := r.PostForm.Get("grant_type")
	counter, _ := env.grantCounts.LoadOrStore(grant, new(atomic.Int32))
	counter.(*atomic.Int32).Add(1)

	w.Header().Set("Content-Type", "application/json")
	body := map[string]any{"token_type": "Bearer", "expires_in": 3600}

	switch {
	case grant == "authorization_code" && r.PostForm.Get("code") == "good-code":
		body["access_token"] = "user-access"
		body["refresh_token"] = "user-refresh"
	case grant == "refresh_token" && r.PostForm.Get("refresh_token") == "good-refresh":
		body["access_token"] = "refreshed-access"
	case grant == "refresh_token" && r.PostForm.Get("refresh_token") == "rotating-refresh":
		body["access_token"] = "refreshed-access"
		body["refresh_token"] = "rotated-refresh"
	case grant == "client_credentials":
		body["access_token"] = "app-token"
	default:
		w.WriteHeader(http.StatusBadRequest)
		body = map[string]any{"error": "invalid_grant"}
	}
	_ = json.NewEncoder(w).Encode(body)
}

func (env *testEnv) grants(grant string) int32 {
	counter, ok := env.grantCounts.Load(grant)
	if !ok {
		return 0
	}
	return counter.(*atomic.Int32).Load()
}

func (env *testEnv) factoryTokens() []string {
	env.mu.Lock()
	defer env.mu.Unlock()
	return append([]string(nil), env.tokens...)
}

// do sends a request through the proxy. A non-empty bearer is sent in the Authorization header.
func (env *testEnv) do(t *testing.T, method, target, bearer, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding error body %q: %v", rec.Body.String(), err)
	}
	return body
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
