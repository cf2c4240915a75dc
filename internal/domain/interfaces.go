package domain

import (
	"context"
	"time"
)

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	With(fields ...interface{}) Logger
}

// Config defines the interface for configuration management
type Config interface {
	GetServerPort() string
	GetMaxFileSize() int64
	GetLogLevel() string

	GetLedgerBackend() string
	GetRPCURL() (string, error)
	GetNetworkName() string
	GetContractAddress() string
	GetPrivateKey() string
	GetLedgerTimeout() time.Duration
	GetLocalLedgerPath() string
	GetLocalSigner() string

	GetSupabaseURL() string
	GetSupabaseKey() string
	GetAllowedOrigins() []string
	GetValidationRatePerMinute() int
	GetPreviewTTL() time.Duration
}

// TextExtractor turns a PDF payload into its concatenated page text.
type TextExtractor interface {
	ExtractText(ctx context.Context, payload []byte) (string, error)
}

// Digester derives the content identifier of extracted text.
type Digester interface {
	Digest(text string) (ContentDigest, error)
}

// Registry is the client side of the on-chain paper registry.
type Registry interface {
	// IsRecorded always reads the ledger; results are never cached.
	IsRecorded(ctx context.Context, digest ContentDigest) (bool, error)
	// Record commits digest on behalf of signer. Not idempotent.
	Record(ctx context.Context, digest ContentDigest, signer Signer) error
	// Details returns the ledger's record for digest.
	Details(ctx context.Context, digest ContentDigest) (*ValidationRecord, error)
	// Network is the display name of the ledger network.
	Network() string
}

// Signer is an identity that can authorize state-mutating ledger operations.
type Signer interface {
	// Accounts lists the identities currently authorized.
	Accounts(ctx context.Context) ([]string, error)
	// Authorize requests authorization and returns the identity that will sign.
	// It may block until the request is approved, denied or ctx is done.
	Authorize(ctx context.Context) (string, error)
}

// ValidationService is the use-case surface consumed by handlers and the CLI.
type ValidationService interface {
	Run(ctx context.Context, doc *Document) (*ValidationOutcome, error)
	Check(ctx context.Context, doc *Document) (*ValidationOutcome, *ValidationRecord, error)
}

// PageRenderer rasterizes single pages of an opened document.
type PageRenderer interface {
	PageCount() int
	RenderPage(ctx context.Context, page int) ([]byte, error)
	Close() error
}

// Surface receives rendered preview frames.
type Surface interface {
	Draw(frame Frame)
	Clear()
}

// DocumentInspector accepts or refuses a submitted file.
type DocumentInspector interface {
	Inspect(name string, payload []byte, declaredType string) (*Document, error)
}
