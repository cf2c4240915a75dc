package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"paper-registry/internal/domain"
	apperrors "paper-registry/pkg/errors"
)

// multipartMemory is how much of a multipart upload is buffered in memory.
const multipartMemory = 32 << 20

// ValidationHandler handles document validation requests
type ValidationHandler struct {
	inspector     domain.DocumentInspector
	validation    domain.ValidationService
	registry      domain.Registry
	maxUploadSize int64
	logger        domain.Logger
}

// NewValidationHandler creates a new validation handler
func NewValidationHandler(
	inspector domain.DocumentInspector,
	validation domain.ValidationService,
	registry domain.Registry,
	maxUploadSize int64,
	logger domain.Logger,
) *ValidationHandler {
	return &ValidationHandler{
		inspector:     inspector,
		validation:    validation,
		registry:      registry,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

// validationResponse is the body of a completed run
type validationResponse struct {
	domain.ValidationReport
	RunID string         `json:"run_id"`
	State domain.State   `json:"state"`
	Trail []domain.State `json:"trail"`
}

type checkResponse struct {
	validationResponse
	Record *domain.ValidationRecord `json:"record"`
}

func newValidationResponse(o *domain.ValidationOutcome) validationResponse {
	return validationResponse{
		ValidationReport: o.Report(),
		RunID:            o.RunID,
		State:            o.State,
		Trail:            o.Trail,
	}
}

func reportOf(o *domain.ValidationOutcome) *domain.ValidationReport {
	if o == nil {
		return nil
	}
	report := o.Report()
	return &report
}

// Validate handles POST /api/v1/validations
func (h *ValidationHandler) Validate(w http.ResponseWriter, r *http.Request) {
	doc, err := readDocument(w, r, h.inspector, h.maxUploadSize)
	if err != nil {
		writeAppError(w, err, nil)
		return
	}

	outcome, err := h.validation.Run(r.Context(), doc)
	if err != nil {
		writeAppError(w, err, reportOf(outcome))
		return
	}

	status := http.StatusOK
	if outcome.State == domain.StateDone {
		status = http.StatusCreated
	}
	writeJSON(w, status, newValidationResponse(outcome))
}

// Check handles POST /api/v1/checks
func (h *ValidationHandler) Check(w http.ResponseWriter, r *http.Request) {
	doc, err := readDocument(w, r, h.inspector, h.maxUploadSize)
	if err != nil {
		writeAppError(w, err, nil)
		return
	}

	outcome, record, err := h.validation.Check(r.Context(), doc)
	if err != nil {
		writeAppError(w, err, reportOf(outcome))
		return
	}
	writeJSON(w, http.StatusOK, checkResponse{
		validationResponse: newValidationResponse(outcome),
		Record:             record,
	})
}

// GetRecord handles GET /api/v1/records/{digest}
func (h *ValidationHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	digest, err := domain.ParseDigest(mux.Vars(r)["digest"])
	if err != nil {
		writeAppError(w, apperrors.NewInvalidInputError("Invalid paper hash", err.Error()), nil)
		return
	}

	record, err := h.registry.Details(r.Context(), digest)
	if err != nil {
		h.logger.Error("Failed to read ledger record", err, "digest", digest.Hex())
		writeAppError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// readDocument pulls the "file" part out of a multipart upload and runs it
// through the inspector.
func readDocument(w http.ResponseWriter, r *http.Request, inspector domain.DocumentInspector, maxSize int64) (*domain.Document, error) {
	if maxSize > 0 {
		// Leave headroom for the multipart envelope; the inspector enforces the exact limit.
		r.Body = http.MaxBytesReader(w, r.Body, maxSize+(1<<20))
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperrors.NewInvalidInputError("File too large")
		}
		return nil, apperrors.NewInvalidInputError("Please select a PDF file", err.Error())
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, apperrors.NewInvalidInputError("Please select a PDF file", "file is required")
	}
	defer file.Close()

	payload, err := io.ReadAll(file)
	if err != nil {
		return nil, apperrors.NewInvalidInputError("Failed to read upload", err.Error())
	}
	return inspector.Inspect(header.Filename, payload, header.Header.Get("Content-Type"))
}
