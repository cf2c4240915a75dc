package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"

	"paper-registry/internal/domain"
	apperrors "paper-registry/pkg/errors"
)

// PageSource is an opened document whose pages can be read as text.
// *fitz.Document satisfies it.
type PageSource interface {
	NumPage() int
	Text(pageNumber int) (string, error)
	Close() error
}

// PageOpener parses a payload into a PageSource.
type PageOpener func(payload []byte) (PageSource, error)

// OpenWithFitz opens a PDF payload with MuPDF.
func OpenWithFitz(payload []byte) (PageSource, error) {
	doc, err := fitz.NewFromMemory(payload)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// PDFTextExtractor implements domain.TextExtractor
type PDFTextExtractor struct {
	open   PageOpener
	logger domain.Logger
}

// NewPDFTextExtractor creates an extractor backed by go-fitz
func NewPDFTextExtractor(logger domain.Logger) *PDFTextExtractor {
	return NewPDFTextExtractorWithOpener(OpenWithFitz, logger)
}

// NewPDFTextExtractorWithOpener creates an extractor over a custom parser
func NewPDFTextExtractorWithOpener(open PageOpener, logger domain.Logger) *PDFTextExtractor {
	return &PDFTextExtractor{
		open:   open,
		logger: logger,
	}
}

// ExtractText reads every page in order. Each page's fragments are joined
// with one space, each page is followed by one space and the result is
// trimmed. Any page failure fails the whole document.
func (e *PDFTextExtractor) ExtractText(ctx context.Context, payload []byte) (string, error) {
	src, err := e.open(payload)
	if err != nil {
		return "", apperrors.NewMalformedDocumentError("failed to open PDF", err)
	}
	defer src.Close()

	numPages := src.NumPage()
	var sb strings.Builder
	for pageNum := 0; pageNum < numPages; pageNum++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		e.logger.Debug("PDF extracting page", "page", pageNum+1, "total", numPages)

		text, err := src.Text(pageNum)
		if err != nil {
			return "", apperrors.NewMalformedDocumentError(fmt.Sprintf("failed to extract text from page %d", pageNum+1), err)
		}
		sb.WriteString(strings.Join(pageFragments(text), " "))
		sb.WriteString(" ")
	}

	return strings.TrimSpace(sb.String()), nil
}

// pageFragments splits a page's text into its non-blank lines. MuPDF ends
// every text block with an empty line.
func pageFragments(text string) []string {
	lines := strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '\r' })
	fragments := lines[:0]
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fragments = append(fragments, line)
	}
	return fragments
}
