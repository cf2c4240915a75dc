package service

import (
	"bytes"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"paper-registry/internal/domain"
	apperrors "paper-registry/pkg/errors"
)

func init() {
	// Keep pdfcpu from creating a config directory in the user's home.
	model.ConfigPath = "disable"
}

// DocumentInspector is the single entry point for submitted files. Uploads
// and CLI paths are held to the same rules.
type DocumentInspector struct {
	maxFileSize int64
	logger      domain.Logger
}

// NewDocumentInspector creates an inspector enforcing maxFileSize (0 disables the limit)
func NewDocumentInspector(maxFileSize int64, logger domain.Logger) *DocumentInspector {
	return &DocumentInspector{
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// Inspect validates a submitted file and returns it as a Document.
// declaredType may be empty when the caller has no content type.
func (i *DocumentInspector) Inspect(name string, payload []byte, declaredType string) (*domain.Document, error) {
	name = sanitizeName(name)
	if len(payload) == 0 {
		return nil, apperrors.NewInvalidInputError("Please select a PDF file", "document is empty")
	}
	if i.maxFileSize > 0 && int64(len(payload)) > i.maxFileSize {
		return nil, apperrors.NewInvalidInputError("File too large", "maximum size is "+(&domain.Document{Size: i.maxFileSize}).DisplaySize())
	}
	if !isAcceptedDeclaredType(declaredType) {
		return nil, apperrors.NewInvalidInputError("Unsupported file type. Only PDF documents are accepted.", declaredType)
	}
	if sniffed := http.DetectContentType(payload); sniffed != domain.PDFContentType {
		return nil, apperrors.NewInvalidInputError("Unsupported file type. Only PDF documents are accepted.", sniffed)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.Validate(bytes.NewReader(payload), conf); err != nil {
		return nil, apperrors.NewMalformedDocumentError("Document is not a valid PDF", err)
	}
	pageCount, err := api.PageCount(bytes.NewReader(payload), conf)
	if err != nil {
		return nil, apperrors.NewMalformedDocumentError("Failed to read page count", err)
	}

	doc := domain.NewDocument(name, payload)
	doc.ContentType = domain.PDFContentType
	doc.PageCount = pageCount

	i.logger.Debug("Document accepted", "name", doc.Name, "size", doc.DisplaySize(), "pages", pageCount)
	return doc, nil
}

// DeclaredTypeForPath guesses a content type from a file extension, so CLI
// input goes through the same declared-type check as uploads.
func DeclaredTypeForPath(path string) string {
	return mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
}

func isAcceptedDeclaredType(declared string) bool {
	if declared == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return false
	}
	return mediaType == domain.PDFContentType || mediaType == "application/octet-stream"
}

// sanitizeName strips any path components from a client-supplied file name.
func sanitizeName(name string) string {
	name = strings.TrimSpace(filepath.Base(strings.ReplaceAll(name, "\\", "/")))
	if name == "" || name == "." || name == "/" {
		return "document.pdf"
	}
	return name
}
