package web

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/justestif/spotify-remote/internal/apierr"
	"github.com/justestif/spotify-remote/internal/auth"
	"github.com/justestif/spotify-remote/internal/spotify"
)

// Handlers contains HTTP handlers for the proxy.
type Handlers struct {
	flow     *auth.Flow
	tokens   *auth.TokenStore
	upstream spotify.Factory
	frontend string
	logger   *log.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(flow *auth.Flow, tokens *auth.TokenStore, upstream spotify.Factory, frontend string, logger *log.Logger) *Handlers {
	return &Handlers{
		flow:     flow,
		tokens:   tokens,
		upstream: upstream,
		frontend: frontend,
		logger:   logger,
	}
}

// Login starts the authorization-code flow (GET /auth/login).
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	state, authURL, err := h.flow.Begin()
	if err != nil {
		h.logger.Error("failed to generate state", "err", err)
		http.Error(w, "Failed to generate state", http.StatusInternalServerError)
		return
	}

	setStateCookie(w, state)
	h.logger.Debug("authorization", "state", auth.FlowRedirected)
	http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
}

// Callback completes the flow (GET /auth/callback). Tokens are handed to the
// frontend in the URL fragment and never stored here.
func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	stored := readStateCookie(r)
	clearStateCookie(w)

	query := r.URL.Query()
	h.logger.Debug("authorization", "state", auth.FlowCallbackPending)

	token, err := h.flow.Complete(r.Context(), query.Get("code"), query.Get("state"), stored)
	switch {
	case errors.Is(err, apierr.ErrCSRFMismatch):
		h.logger.Warn("authorization", "state", auth.FlowDenied, "err", err, "provider_error", query.Get("error"))
		http.Redirect(w, r, h.frontendURL("invalid_state", nil), http.StatusFound)
		return
	case err != nil:
		h.logger.Error("authorization", "state", auth.FlowDenied, "err", err)
		http.Redirect(w, r, h.frontendURL("token_exchange_failed", nil), http.StatusFound)
		return
	}

	fragment := url.Values{
		"access_token":  {token.AccessToken},
		"refresh_token": {token.RefreshToken},
		"expires_in":    {strconv.Itoa(auth.ExpiresIn(token))},
	}
	h.logger.Info("authorization", "state", auth.FlowGranted)
	http.Redirect(w, r, h.frontendURL("", fragment), http.StatusFound)
}

// frontendURL builds a redirect to the frontend with either ?error=code or a fragment.
func (h *Handlers) frontendURL(errCode string, fragment url.Values) string {
	u, err := url.Parse(h.frontend)
	if err != nil {
		return h.frontend
	}
	if errCode != "" {
		q := u.Query()
		q.Set("error", errCode)
		u.RawQuery = q.Encode()
	}
	if fragment != nil {
		u.Fragment = ""
		u.RawFragment = ""
		return u.String() + "#" + fragment.Encode()
	}
	return u.String()
}

// refreshResponse is the body of a successful refresh.
type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Refresh exchanges a refresh token for a new access token (POST /auth/refresh).
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshToken := refreshTokenFrom(r)
	if refreshToken == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "No refresh token available"})
		return
	}

	token, err := h.flow.Refresh(r.Context(), refreshToken)
	if err != nil {
		writeError(w, r, h.logger, "Failed to refresh token", err)
		return
	}

	resp := refreshResponse{
		AccessToken: token.AccessToken,
		ExpiresIn:   auth.ExpiresIn(token),
	}
	if token.RefreshToken != "" && token.RefreshToken != refreshToken {
		resp.RefreshToken = token.RefreshToken
	}
	writeJSON(w, http.StatusOK, resp)
}

// refreshTokenFrom looks for the refresh token in a JSON body, a form value, then the legacy cookie.
func refreshTokenFrom(r *http.Request) string {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" && r.Body != nil {
		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&body); err == nil && body.RefreshToken != "" {
			return body.RefreshToken
		}
	} else if v := strings.TrimSpace(r.FormValue("refresh_token")); v != "" {
		return v
	}

	if cookie, err := r.Cookie(legacyRefreshCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// Logout clears auth cookies and redirects to the frontend (GET /auth/logout).
// The client discards its own copy of the session.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	clearLegacyCookies(w)
	clearStateCookie(w)
	http.Redirect(w, r, h.frontend, http.StatusFound)
}

// Health reports liveness (GET /healthz).
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requireBearer rejects requests without a well-formed bearer token before any upstream call.
func (h *Handlers) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "Not authenticated"})
			return
		}
		next.ServeHTTP(w, r.WithContext(withBearer(r.Context(), token)))
	})
}

// client builds an upstream client for the caller's bearer token.
func (h *Handlers) client(r *http.Request) *spotify.Client {
	return h.upstream(r.Context(), bearerFrom(r.Context()))
}

// publicClient builds an upstream client with the shared client-credentials token.
func (h *Handlers) publicClient(r *http.Request) (*spotify.Client, error) {
	token, err := h.tokens.Token(r.Context())
	if err != nil {
		return nil, err
	}
	return h.upstream(r.Context(), token), nil
}
