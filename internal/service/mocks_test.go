package service

import (
	"context"
	"sync"

	"paper-registry/internal/domain"
)

// MockLogger discards everything.
type MockLogger struct{}

func (l *MockLogger) Info(msg string, fields ...interface{})             {}
func (l *MockLogger) Error(msg string, err error, fields ...interface{}) {}
func (l *MockLogger) Debug(msg string, fields ...interface{})            {}
func (l *MockLogger) Warn(msg string, fields ...interface{})             {}
func (l *MockLogger) With(fields ...interface{}) domain.Logger           { return l }

// MockExtractor returns a fixed text or error.
type MockExtractor struct {
	text  string
	err   error
	calls int
}

func (m *MockExtractor) ExtractText(ctx context.Context, payload []byte) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.text, nil
}

// MockRegistry is an in-memory ledger that counts calls.
type MockRegistry struct {
	mu       sync.Mutex
	recorded map[domain.ContentDigest]string

	isRecordedErr error
	recordErr     error
	detailsErr    error

	// beforeRecord runs inside Record before the digest is stored.
	beforeRecord func(ctx context.Context) error

	isRecordedCalls int
	recordCalls     int
}

func NewMockRegistry() *MockRegistry {
	return &MockRegistry{recorded: make(map[domain.ContentDigest]string)}
}

func (m *MockRegistry) IsRecorded(ctx context.Context, digest domain.ContentDigest) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.isRecordedCalls++
	if m.isRecordedErr != nil {
		return false, m.isRecordedErr
	}
	_, ok := m.recorded[digest]
	return ok, nil
}

func (m *MockRegistry) Record(ctx context.Context, digest domain.ContentDigest, signer domain.Signer) error {
	m.mu.Lock()
	m.recordCalls++
	m.mu.Unlock()

	if m.beforeRecord != nil {
		if err := m.beforeRecord(ctx); err != nil {
			return err
		}
	}
	if m.recordErr != nil {
		return m.recordErr
	}
	identity, err := signer.Authorize(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.recorded[digest] = identity
	return nil
}

func (m *MockRegistry) Details(ctx context.Context, digest domain.ContentDigest) (*domain.ValidationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.detailsErr != nil {
		return nil, m.detailsErr
	}
	identity, ok := m.recorded[digest]
	if !ok {
		return &domain.ValidationRecord{Digest: digest}, nil
	}
	return &domain.ValidationRecord{Digest: digest, Recorded: true, RecordedBy: identity}, nil
}

func (m *MockRegistry) Network() string { return "testnet" }

func (m *MockRegistry) has(digest domain.ContentDigest) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.recorded[digest]
	return ok
}

// MockSigner authorizes a fixed identity or fails with err.
type MockSigner struct {
	identity string
	err      error
}

func (s *MockSigner) Accounts(ctx context.Context) ([]string, error) {
	if s.identity == "" {
		return nil, nil
	}
	return []string{s.identity}, nil
}

func (s *MockSigner) Authorize(ctx context.Context) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.identity, nil
}
