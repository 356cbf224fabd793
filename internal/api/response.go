package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/trznica/internal/service"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// serviceError maps a service-layer error to an HTTP response. Permission
// failures on row-scoped endpoints answer 404 so callers cannot probe which
// rows exist.
func serviceError(w http.ResponseWriter, err error) {
	switch {
	case service.IsValidation(err):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrPermissionDenied):
		jsonError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrInvalidTransition):
		jsonError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInsufficientInventory), errors.Is(err, service.ErrInsufficientReservation):
		jsonError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrSyncDisabled):
		jsonError(w, http.StatusServiceUnavailable, "square sync is disabled")
	default:
		slog.Error("request failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}
