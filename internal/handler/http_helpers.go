package handler

import (
	"encoding/json"
	"net/http"

	"paper-registry/internal/domain"
	apperrors "paper-registry/pkg/errors"
)

type contextKey string

const callerContextKey contextKey = "caller"

// GetCallerFromContext extracts the authenticated caller from request context
func GetCallerFromContext(r *http.Request) (*domain.Caller, bool) {
	caller, ok := r.Context().Value(callerContextKey).(*domain.Caller)
	return caller, ok
}

// errorResponse is the body of every failed request
type errorResponse struct {
	Error     string                   `json:"error"`
	ErrorKind string                   `json:"error_kind,omitempty"`
	Report    *domain.ValidationReport `json:"report,omitempty"`
}

// writeError writes an error response (helper function)
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, errorResponse{Error: message})
}

// writeAppError maps err to its status code and user-facing message
func writeAppError(w http.ResponseWriter, err error, report *domain.ValidationReport) {
	resp := errorResponse{
		Error:  apperrors.UserMessage(err),
		Report: report,
	}
	if appErr, ok := apperrors.As(err); ok {
		resp.ErrorKind = string(appErr.Type)
	}
	writeJSON(w, apperrors.GetStatusCode(err), resp)
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}
