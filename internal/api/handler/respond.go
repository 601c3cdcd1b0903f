package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mediahaul/mediahaul/internal/domain"
)

// ErrorResponse is the JSON error body every endpoint shares.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// statusFor maps domain errors onto HTTP statuses. Anything unmapped is a
// 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyURL),
		errors.Is(err, domain.ErrUnsupportedListing),
		errors.Is(err, domain.ErrPlaylistUnsupported):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNoProvider):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrJobNotFound),
		errors.Is(err, domain.ErrSourceNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateSource):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}
