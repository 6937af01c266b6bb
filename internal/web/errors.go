package web

// errors.go keeps error responses uniform: the technical error is logged
// with the request ID, the client receives core.MapError's message and code.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/csvimp/internal/atlas"
	"github.com/JonMunkholm/csvimp/internal/core"
	"github.com/JonMunkholm/csvimp/internal/dataset"
	"github.com/JonMunkholm/csvimp/internal/logging"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

func errorResponse(err error) *ErrorResponse {
	msg := core.MapError(err)
	return &ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	}
}

// respondError logs err and writes its user-facing form.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	resp := errorResponse(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", resp.Code,
	)

	if statusCode == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "30")
	}
	writeJSON(w, statusCode, resp)
}

// statusFor picks the HTTP status for a request-level error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, atlas.ErrMapNotFound):
		return http.StatusNotFound
	case errors.Is(err, dataset.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrNoData),
		errors.Is(err, core.ErrNoFields),
		errors.Is(err, core.ErrNoMap),
		errors.Is(err, core.ErrUnsupportedAction),
		errors.Is(err, core.ErrPreSQL),
		errors.Is(err, core.ErrPostSQL):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
