package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/classsync/internal/domain"
	"github.com/classsync/internal/pkg/token"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Success bool   `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// MeEnvelope describes the logged-in student.
type MeEnvelope struct {
	Identity string `json:"identity"`
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps service errors to a status code and a client-safe message.
// Unknown errors are logged and reported as 500 without detail.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrForbiddenDomain):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, "invalid request")
	case errors.Is(err, domain.ErrCodeMismatch):
		writeError(w, http.StatusBadRequest, domain.ErrCodeMismatch.Error())
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, token.ErrDecode),
		errors.Is(err, token.ErrSignatureInvalid):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrCatalogMissing):
		slog.Error("schedule data missing", "err", err)
		writeError(w, http.StatusInternalServerError, "schedule data unavailable")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
	case errors.Is(err, domain.ErrDeliveryFailed):
		writeError(w, http.StatusInternalServerError, "failed to send email")
	default:
		slog.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
