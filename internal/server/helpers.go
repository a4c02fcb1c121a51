package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/xuanruli/apex-trade/internal/models"
)

// ErrorResponse is the standard error format for REST API responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message})
}

// WriteDomainError maps a service error onto the HTTP status it deserves.
func WriteDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrNotFound):
		WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrNoPosition), errors.Is(err, models.ErrInsufficientShares):
		WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrConflict):
		WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrUpstream):
		WriteError(w, http.StatusBadGateway, err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

// RequireMethod validates the HTTP method and returns true if it matches.
// If it doesn't match, it writes a 405 response and returns false.
func RequireMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	return false
}

// DecodeJSON reads and decodes JSON from the request body into v.
// Returns false and writes a 400 error if decoding fails.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil {
		WriteError(w, http.StatusBadRequest, "Request body is required")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return false
	}
	return true
}

// PathParam extracts the path segment between prefix and suffix.
// For /api/admin/transactions/{id}, PathParam(r, "/api/admin/transactions/", "")
// extracts the {id} part.
func PathParam(r *http.Request, prefix, suffix string) string {
	path := strings.TrimPrefix(r.URL.Path, prefix)
	if suffix != "" {
		path = strings.TrimSuffix(path, suffix)
	}
	return strings.Trim(path, "/")
}
