package service

import (
	"context"
	"sync"

	"github.com/gen2brain/go-fitz"

	"paper-registry/internal/domain"
	apperrors "paper-registry/pkg/errors"
)

// previewScale matches the 1.5x viewport of the browser preview.
const previewScale = 1.5

// FitzRenderer rasterizes pages with MuPDF. Closing waits for a render in
// progress; MuPDF frees its context under a running call otherwise.
type FitzRenderer struct {
	mu     sync.Mutex
	doc    *fitz.Document
	dpi    float64
	closed bool
}

// NewFitzRenderer opens payload for rendering
func NewFitzRenderer(payload []byte) (domain.PageRenderer, error) {
	doc, err := fitz.NewFromMemory(payload)
	if err != nil {
		return nil, apperrors.NewMalformedDocumentError("failed to open PDF", err)
	}
	return &FitzRenderer{doc: doc, dpi: 72 * previewScale}, nil
}

// PageCount returns the number of pages
func (r *FitzRenderer) PageCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0
	}
	return r.doc.NumPage()
}

// RenderPage renders a 1-based page as PNG
func (r *FitzRenderer) RenderPage(ctx context.Context, page int) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, domain.ErrNoDocumentLoaded
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.doc.ImagePNG(page-1, r.dpi)
}

// Close releases the MuPDF document
func (r *FitzRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return r.doc.Close()
}

// PreviewController renders one page at a time. While a render is in flight
// only the most recent page request is kept; older pending requests are
// dropped.
type PreviewController struct {
	renderer domain.PageRenderer
	surface  domain.Surface
	logger   domain.Logger

	mu           sync.Mutex
	currentPage  int
	rendering    bool
	pendingPage  int // 0 means none
	lastRendered int
	generation   int
	idle         chan struct{}
	ctx          context.Context
	cancel       context.CancelFunc
}

// NewPreviewController creates a controller positioned on page 1
func NewPreviewController(renderer domain.PageRenderer, surface domain.Surface, logger domain.Logger) *PreviewController {
	ctx, cancel := context.WithCancel(context.Background())
	idle := make(chan struct{})
	close(idle)
	return &PreviewController{
		renderer:    renderer,
		surface:     surface,
		logger:      logger,
		currentPage: 1,
		idle:        idle,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Show renders the current page; called once the document is loaded.
func (c *PreviewController) Show() error {
	c.mu.Lock()
	page := c.currentPage
	c.mu.Unlock()
	return c.RequestPage(page)
}

// RequestPage renders page now, or makes it the pending request if a render
// is already running.
func (c *PreviewController) RequestPage(page int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.renderer == nil {
		return domain.ErrNoDocumentLoaded
	}
	if page < 1 || page > c.renderer.PageCount() {
		return domain.ErrPageOutOfRange
	}
	c.currentPage = page
	if c.rendering {
		c.pendingPage = page
		return nil
	}
	c.startLocked(page)
	return nil
}

// Next moves forward one page. It does nothing on the last page.
func (c *PreviewController) Next() (int, error) {
	c.mu.Lock()
	if c.renderer == nil {
		c.mu.Unlock()
		return 0, domain.ErrNoDocumentLoaded
	}
	page := c.currentPage
	if page >= c.renderer.PageCount() {
		c.mu.Unlock()
		return page, nil
	}
	c.mu.Unlock()
	return page + 1, c.RequestPage(page + 1)
}

// Prev moves back one page. It does nothing on the first page.
func (c *PreviewController) Prev() (int, error) {
	c.mu.Lock()
	if c.renderer == nil {
		c.mu.Unlock()
		return 0, domain.ErrNoDocumentLoaded
	}
	page := c.currentPage
	if page <= 1 {
		c.mu.Unlock()
		return page, nil
	}
	c.mu.Unlock()
	return page - 1, c.RequestPage(page - 1)
}

// State returns a snapshot of the controller.
func (c *PreviewController) State() domain.PreviewState {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := domain.PreviewState{
		CurrentPage: c.currentPage,
		Rendering:   c.rendering,
		LastPage:    c.lastRendered,
	}
	if c.renderer != nil {
		s.PageCount = c.renderer.PageCount()
	}
	if c.pendingPage != 0 {
		p := c.pendingPage
		s.PendingPage = &p
	}
	return s
}

// Wait blocks until no render is in flight.
func (c *PreviewController) Wait(ctx context.Context) error {
	c.mu.Lock()
	idle := c.idle
	c.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reset drops the document: in-flight output is discarded, the surface is
// cleared and the renderer is closed. A render in flight owns the renderer,
// so it is closed by the render goroutine once that render returns; Wait
// reports when that has happened.
func (c *PreviewController) Reset() error {
	c.mu.Lock()
	c.cancel()
	c.generation++
	c.currentPage = 1
	c.pendingPage = 0
	c.lastRendered = 0
	renderer := c.renderer
	c.renderer = nil
	inFlight := c.rendering
	c.rendering = false
	c.mu.Unlock()

	c.surface.Clear()
	if renderer != nil && !inFlight {
		return renderer.Close()
	}
	return nil
}

func (c *PreviewController) startLocked(page int) {
	c.rendering = true
	c.idle = make(chan struct{})
	go c.renderLoop(c.renderer, page, c.generation, c.idle)
}

func (c *PreviewController) renderLoop(renderer domain.PageRenderer, page, generation int, idle chan struct{}) {
	for {
		img, err := renderer.RenderPage(c.ctx, page)

		c.mu.Lock()
		if generation != c.generation {
			c.mu.Unlock()
			if err := renderer.Close(); err != nil {
				c.logger.Warn("Failed to close preview renderer", "error", err)
			}
			close(idle)
			return
		}
		if err != nil {
			c.logger.Warn("Preview render failed", "page", page, "error", err)
		} else {
			c.lastRendered = page
			c.surface.Draw(domain.Frame{Page: page, Image: img})
		}
		if c.pendingPage == 0 {
			c.rendering = false
			close(idle)
			c.mu.Unlock()
			return
		}
		page = c.pendingPage
		c.pendingPage = 0
		c.mu.Unlock()
	}
}

// MemorySurface keeps the most recent frame.
type MemorySurface struct {
	mu    sync.RWMutex
	frame *domain.Frame
}

// NewMemorySurface creates an empty surface
func NewMemorySurface() *MemorySurface {
	return &MemorySurface{}
}

// Draw replaces the current frame
func (s *MemorySurface) Draw(frame domain.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = &frame
}

// Clear removes the current frame
func (s *MemorySurface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = nil
}

// Frame returns the current frame, if any
func (s *MemorySurface) Frame() (domain.Frame, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.frame == nil {
		return domain.Frame{}, false
	}
	return *s.frame, true
}
