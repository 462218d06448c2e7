// Package apierr defines the error taxonomy shared by the proxy server and its client.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors.
var (
	// ErrUnauthenticated is returned when a bearer token is missing or malformed,
	// or when the backend answered 401.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrInvalidArgument is returned when a client-supplied parameter fails validation.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUpstreamAuth is returned when the client-credentials exchange fails.
	ErrUpstreamAuth = errors.New("client credentials exchange failed")

	// ErrRefresh is returned when the provider rejects a refresh token.
	ErrRefresh = errors.New("refresh token rejected")

	// ErrCSRFMismatch is returned when the auth callback state does not match the stored nonce.
	ErrCSRFMismatch = errors.New("oauth state mismatch")

	// ErrTokenExchange is returned when the authorization code could not be exchanged.
	ErrTokenExchange = errors.New("token exchange failed")
)

// UpstreamError is a non-2xx answer from the provider.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error %d: %s", e.Status, e.Message)
}

// Invalid wraps ErrInvalidArgument with a description of the offending parameter.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// Upstream builds an UpstreamError, defaulting the status to 500.
func Upstream(status int, message string) *UpstreamError {
	if status < 100 {
		status = http.StatusInternalServerError
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return &UpstreamError{Status: status, Message: message}
}

// Status maps an error to the HTTP status the proxy answers with.
func Status(err error) int {
	var upstream *UpstreamError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrInvalidArgument), errors.Is(err, ErrRefresh):
		return http.StatusBadRequest
	case errors.Is(err, ErrUpstreamAuth):
		return http.StatusBadGateway
	case errors.As(err, &upstream):
		return upstream.Status
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the human-readable detail for err.
func Message(err error) string {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Message
	}
	return err.Error()
}
