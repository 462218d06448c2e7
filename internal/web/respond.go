package web

import (
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/justestif/spotify-remote/internal/apierr"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status and writes {"error": summary, "details": ...}.
func writeError(w http.ResponseWriter, r *http.Request, logger *log.Logger, summary string, err error) {
	status := apierr.Status(err)
	if status >= http.StatusInternalServerError {
		logger.Error(summary, "err", err, "request_id", middleware.GetReqID(r.Context()))
	} else {
		logger.Warn(summary, "err", err, "status", status, "request_id", middleware.GetReqID(r.Context()))
	}
	writeJSON(w, status, errorBody{Error: summary, Details: apierr.Message(err)})
}
