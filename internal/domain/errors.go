package domain

import "errors"

// Domain errors
var (
	ErrAlreadyRecorded   = errors.New("digest already recorded")
	ErrNoSigner          = errors.New("no signer configured")
	ErrPreviewNotFound   = errors.New("preview not found")
	ErrPageOutOfRange    = errors.New("page out of range")
	ErrNoDocumentLoaded  = errors.New("no document loaded")
	ErrUnsupportedAction = errors.New("unsupported action")
)

// ValidationError represents a validation error with field and message information.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}
