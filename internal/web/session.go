package web

import (
	"context"
	"net/http"
	"strings"

	"github.com/justestif/spotify-remote/internal/auth"
)

const (
	stateCookieName = "spotify_auth_state"
	stateCookiePath = "/auth"

	legacyAccessCookie  = "spotify_access_token"
	legacyRefreshCookie = "spotify_refresh_token"
)

type ctxKey int

const bearerKey ctxKey = iota

// setStateCookie stores the login nonce for validation on callback.
func setStateCookie(w http.ResponseWriter, state auth.State) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state.Encode(),
		Path:     stateCookiePath,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(auth.StateTTL.Seconds()),
	})
}

// readStateCookie returns the stored nonce, or nil when the cookie is missing or garbled.
func readStateCookie(r *http.Request) *auth.State {
	cookie, err := r.Cookie(stateCookieName)
	if err != nil {
		return nil
	}
	state, err := auth.ParseState(cookie.Value)
	if err != nil {
		return nil
	}
	return state
}

// clearStateCookie removes the login nonce.
func clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     stateCookiePath,
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// clearLegacyCookies removes token cookies set by older deployments.
func clearLegacyCookies(w http.ResponseWriter) {
	for _, name := range []string{legacyAccessCookie, legacyRefreshCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			MaxAge:   -1,
		})
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

func withBearer(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerKey, token)
}

func bearerFrom(ctx context.Context) string {
	token, _ := ctx.Value(bearerKey).(string)
	return token
}
