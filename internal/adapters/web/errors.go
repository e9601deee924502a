package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"pharma-erp/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDomainError maps a core error to its HTTP shape. Core errors carry a
// single human-readable message; there is never partial state to explain.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *core.ValidationError
		notFoundErr   *core.NotFoundError
		stockErr      *core.InsufficientStockError
	)
	switch {
	case errors.As(err, &validationErr):
		writeError(w, r, validationErr.Error(), "VALIDATION", http.StatusUnprocessableEntity)
	case errors.As(err, &stockErr):
		writeError(w, r, stockErr.Error(), "INSUFFICIENT_STOCK", http.StatusConflict)
	case errors.As(err, &notFoundErr):
		writeError(w, r, notFoundErr.Error(), "NOT_FOUND", http.StatusNotFound)
	case errors.Is(err, core.ErrTransientConflict):
		writeError(w, r, err.Error(), "CONFLICT", http.StatusServiceUnavailable)
	default:
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}
