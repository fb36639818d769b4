package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hugh/blogit/internal/api/dto"
	"github.com/hugh/blogit/internal/validation"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.ErrorResponse{Error: msg})
}

// decode reads a JSON body into v. It writes a 400 and returns false when the
// body is malformed or a required top-level key is missing.
func decode(w http.ResponseWriter, r *http.Request, v interface{ Validate() map[string]string }) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	for _, msg := range v.Validate() {
		writeError(w, http.StatusBadRequest, msg)
		return false
	}
	return true
}

// writeFailure renders validation errors as a 422 and anything else as an
// opaque 500. Callers handle their own sentinel errors first.
func writeFailure(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var errs validation.Errors
	if errors.As(err, &errs) {
		writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{Errors: errs})
		return
	}

	logger.Error("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}
