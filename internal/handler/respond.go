package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/daftar-app/daftar/internal/policy"
	"github.com/daftar-app/daftar/internal/repository"
	"github.com/daftar-app/daftar/internal/validation"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps the error taxonomy onto HTTP: field-keyed
// validation errors are 422, policy denials 403, missing resources 404,
// everything else 500.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		respondJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": verrs})
		return
	}

	if errors.Is(err, policy.ErrForbidden) {
		respondError(w, http.StatusForbidden, "forbidden")
		return
	}

	if errors.Is(err, repository.ErrLicenseNotFound) ||
		errors.Is(err, repository.ErrReportNotFound) ||
		errors.Is(err, repository.ErrUserNotFound) {
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	slog.Error("request failed", "error", err, "method", r.Method, "path", r.URL.Path)
	respondError(w, http.StatusInternalServerError, "internal error")
}
