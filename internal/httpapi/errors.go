package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/martinricard/d2loadout-widget/internal/bungie"
	"github.com/martinricard/d2loadout-widget/internal/widget"
)

// errorBody is the JSON envelope of every failed request.
type errorBody struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	ErrorCode any    `json:"errorCode,omitempty"`
}

type failureKind int

const (
	failSearch failureKind = iota
	failLoadout
	failStatus
)

var failureTitles = map[failureKind]string{
	failSearch:  "Player search failed",
	failLoadout: "Failed to fetch loadout",
	failStatus:  "Status check failed",
}

// fail maps a service error onto a status code and envelope. Upstream Bungie
// failures keep their message and ErrorCode; transport failures become 502.
func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error, kind failureKind, subject string) {
	var apiErr *bungie.APIError
	switch {
	case errors.Is(err, bungie.ErrMissingAPIKey):
		writeError(w, http.StatusInternalServerError, "Server configuration error", "Bungie API key not configured", nil)
		return
	case errors.Is(err, bungie.ErrPlayerNotFound):
		writeError(w, http.StatusNotFound, "Player not found", "No player found with Bungie name: "+subject, nil)
		return
	case errors.Is(err, widget.ErrNoCharacters):
		writeError(w, http.StatusNotFound, "No characters found", "This player has no Destiny 2 characters", nil)
		return
	case errors.Is(err, widget.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "Invalid request", err.Error(), nil)
		return
	}

	h.logger.Error("request failed",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)

	title := failureTitles[kind]
	switch {
	case errors.As(err, &apiErr):
		writeError(w, upstreamStatus(apiErr), title, apiErr.Message, apiErr.ErrorCode)
	case bungie.IsUnavailable(err):
		writeError(w, http.StatusBadGateway, title, "Bungie API unavailable: "+err.Error(), "Unavailable")
	default:
		writeError(w, http.StatusInternalServerError, title, err.Error(), "Unknown")
	}
}

// upstreamStatus passes through Bungie's HTTP status. A failure reported in
// a 2xx/3xx envelope becomes 503 for maintenance, 404 when it names a missing
// resource and 502 otherwise.
func upstreamStatus(e *bungie.APIError) int {
	if e.Status >= http.StatusBadRequest {
		return e.Status
	}
	if e.Maintenance() {
		return http.StatusServiceUnavailable
	}
	if e.NotFound() {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

func writeError(w http.ResponseWriter, status int, title, message string, code any) {
	writeJSON(w, status, errorBody{Success: false, Error: title, Message: message, ErrorCode: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
