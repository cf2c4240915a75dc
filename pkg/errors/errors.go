package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType represents the failure kinds a validation run can end with
type ErrorType string

const (
	ErrorTypeInvalidInput              ErrorType = "invalid_input"
	ErrorTypeMalformedDocument         ErrorType = "malformed_document"
	ErrorTypeInfrastructureUnavailable ErrorType = "infrastructure_unavailable"
	ErrorTypeLedgerUnavailable         ErrorType = "ledger_unavailable"
	ErrorTypeSignerRejected            ErrorType = "signer_rejected"
	ErrorTypeInsufficientResources     ErrorType = "insufficient_resources"
	ErrorTypeCanceled                  ErrorType = "canceled"
	ErrorTypeNotFound                  ErrorType = "not_found"
	ErrorTypeInternal                  ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"-"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Details != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Details)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

func newError(t ErrorType, status int, message string, cause error) *AppError {
	return &AppError{
		Type:       t,
		Message:    message,
		StatusCode: status,
		Cause:      cause,
	}
}

// NewInvalidInputError is returned for empty, missing or non-PDF submissions
func NewInvalidInputError(message string, details ...string) *AppError {
	err := newError(ErrorTypeInvalidInput, http.StatusBadRequest, message, nil)
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

// NewMalformedDocumentError is returned when the payload cannot be parsed as a document
func NewMalformedDocumentError(message string, cause error) *AppError {
	return newError(ErrorTypeMalformedDocument, http.StatusUnprocessableEntity, message, cause)
}

// NewInfrastructureUnavailableError is returned when a local primitive (the hash function) is missing
func NewInfrastructureUnavailableError(message string, cause error) *AppError {
	return newError(ErrorTypeInfrastructureUnavailable, http.StatusInternalServerError, message, cause)
}

// NewLedgerUnavailableError wraps network and RPC failures talking to the ledger
func NewLedgerUnavailableError(message string, cause error) *AppError {
	return newError(ErrorTypeLedgerUnavailable, http.StatusServiceUnavailable, message, cause)
}

// NewSignerRejectedError covers denied authorization and ledger-side rejection of a commit
func NewSignerRejectedError(message string, cause error) *AppError {
	return newError(ErrorTypeSignerRejected, http.StatusForbidden, message, cause)
}

// NewInsufficientResourcesError is returned when the signer cannot pay for the operation
func NewInsufficientResourcesError(message string, cause error) *AppError {
	return newError(ErrorTypeInsufficientResources, http.StatusPaymentRequired, message, cause)
}

// NewCanceledError is returned when the caller abandons a run
func NewCanceledError(message string, cause error) *AppError {
	return newError(ErrorTypeCanceled, http.StatusRequestTimeout, message, cause)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return newError(ErrorTypeNotFound, http.StatusNotFound, message, nil)
}

// NewInternalError creates a new internal server error
func NewInternalError(message string, cause error) *AppError {
	return newError(ErrorTypeInternal, http.StatusInternalServerError, message, cause)
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the error type of err, or ErrorTypeInternal for foreign errors.
func KindOf(err error) ErrorType {
	if appErr, ok := As(err); ok {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// IsType checks if the error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == errorType
}

// GetStatusCode returns the HTTP status code for an error
func GetStatusCode(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// UserMessage returns the message safe to show to whoever submitted the document.
func UserMessage(err error) string {
	appErr, ok := As(err)
	if !ok {
		return "An error occurred during validation."
	}
	switch appErr.Type {
	case ErrorTypeSignerRejected, ErrorTypeInsufficientResources, ErrorTypeLedgerUnavailable:
		return appErr.Message + ". Please ensure the signer is connected and has sufficient ETH for gas fees."
	default:
		return appErr.Message
	}
}
