package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"paper-registry/internal/domain"
	"paper-registry/internal/service"
	apperrors "paper-registry/pkg/errors"
)

// PreviewHandler serves page-by-page previews of uploaded documents
type PreviewHandler struct {
	inspector     domain.DocumentInspector
	previews      *service.PreviewManager
	maxUploadSize int64
	logger        domain.Logger
}

// NewPreviewHandler creates a new preview handler
func NewPreviewHandler(inspector domain.DocumentInspector, previews *service.PreviewManager, maxUploadSize int64, logger domain.Logger) *PreviewHandler {
	return &PreviewHandler{
		inspector:     inspector,
		previews:      previews,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

type previewResponse struct {
	ID           string `json:"id"`
	DocumentName string `json:"document_name"`
	domain.PreviewState
}

// pageRequest selects a page either directly or by stepping.
type pageRequest struct {
	Page   int    `json:"page,omitempty"`
	Action string `json:"action,omitempty"` // "next" or "prev"
}

func toPreviewResponse(s *service.PreviewSession) previewResponse {
	return previewResponse{
		ID:           s.ID,
		DocumentName: s.DocumentName,
		PreviewState: s.Controller.State(),
	}
}

// Create handles POST /api/v1/previews
func (h *PreviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	doc, err := readDocument(w, r, h.inspector, h.maxUploadSize)
	if err != nil {
		writeAppError(w, err, nil)
		return
	}

	session, err := h.previews.Open(doc)
	if err != nil {
		h.logger.Error("Failed to open preview", err, "document", doc.Name)
		writeAppError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, toPreviewResponse(session))
}

// Get handles GET /api/v1/previews/{id}
func (h *PreviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toPreviewResponse(session))
}

// RequestPage handles POST /api/v1/previews/{id}/page
func (h *PreviewHandler) RequestPage(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req pageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var err error
	switch {
	case req.Action == "next":
		_, err = session.Controller.Next()
	case req.Action == "prev":
		_, err = session.Controller.Prev()
	case req.Action == "" && req.Page != 0:
		err = session.Controller.RequestPage(req.Page)
	default:
		err = domain.ErrUnsupportedAction
	}

	switch {
	case errors.Is(err, domain.ErrPageOutOfRange), errors.Is(err, domain.ErrUnsupportedAction):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, domain.ErrNoDocumentLoaded):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		writeAppError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusAccepted, toPreviewResponse(session))
}

// Frame handles GET /api/v1/previews/{id}/frame
func (h *PreviewHandler) Frame(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	frame, ok := session.Surface.Frame()
	if !ok {
		writeError(w, http.StatusNotFound, "No page rendered yet")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Preview-Page", strconv.Itoa(frame.Page))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(frame.Image)
}

// Delete handles DELETE /api/v1/previews/{id}
func (h *PreviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.previews.Close(mux.Vars(r)["id"]); err != nil {
		writeAppError(w, apperrors.NewNotFoundError("Preview not found"), nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PreviewHandler) session(w http.ResponseWriter, r *http.Request) (*service.PreviewSession, bool) {
	session, err := h.previews.Get(mux.Vars(r)["id"])
	if err != nil {
		writeAppError(w, apperrors.NewNotFoundError("Preview not found"), nil)
		return nil, false
	}
	return session, true
}
