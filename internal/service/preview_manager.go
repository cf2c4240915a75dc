package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"paper-registry/internal/domain"
)

// RendererOpener opens a payload for page rendering.
type RendererOpener func(payload []byte) (domain.PageRenderer, error)

// PreviewSession pairs a controller with the surface it draws on.
type PreviewSession struct {
	ID           string
	DocumentName string
	Controller   *PreviewController
	Surface      *MemorySurface
}

// PreviewManager keeps preview sessions for a limited idle time.
type PreviewManager struct {
	sessions *cache.Cache
	open     RendererOpener
	logger   domain.Logger
}

// NewPreviewManager creates a manager whose sessions expire after ttl
func NewPreviewManager(ttl time.Duration, open RendererOpener, logger domain.Logger) *PreviewManager {
	sessions := cache.New(ttl, ttl/2)
	sessions.OnEvicted(func(id string, v interface{}) {
		if s, ok := v.(*PreviewSession); ok {
			if err := s.Controller.Reset(); err != nil {
				logger.Warn("Failed to release preview", "preview_id", id, "error", err)
			}
		}
	})
	return &PreviewManager{
		sessions: sessions,
		open:     open,
		logger:   logger,
	}
}

// Open loads doc and starts rendering its first page.
func (m *PreviewManager) Open(doc *domain.Document) (*PreviewSession, error) {
	renderer, err := m.open(doc.Payload)
	if err != nil {
		return nil, err
	}

	surface := NewMemorySurface()
	s := &PreviewSession{
		ID:           uuid.New().String(),
		DocumentName: doc.Name,
		Controller:   NewPreviewController(renderer, surface, m.logger),
		Surface:      surface,
	}
	if renderer.PageCount() > 0 {
		if err := s.Controller.Show(); err != nil {
			_ = s.Controller.Reset()
			return nil, err
		}
	}

	m.sessions.SetDefault(s.ID, s)
	m.logger.Info("Preview opened", "preview_id", s.ID, "document", doc.Name, "pages", renderer.PageCount())
	return s, nil
}

// Get returns a live session and extends its lifetime.
func (m *PreviewManager) Get(id string) (*PreviewSession, error) {
	v, ok := m.sessions.Get(id)
	if !ok {
		return nil, domain.ErrPreviewNotFound
	}
	s := v.(*PreviewSession)
	m.sessions.SetDefault(id, s)
	return s, nil
}

// Close removes a session and releases its document.
func (m *PreviewManager) Close(id string) error {
	if _, ok := m.sessions.Get(id); !ok {
		return domain.ErrPreviewNotFound
	}
	m.sessions.Delete(id)
	return nil
}

// CloseAll releases every session.
func (m *PreviewManager) CloseAll() {
	for id := range m.sessions.Items() {
		m.sessions.Delete(id)
	}
}
