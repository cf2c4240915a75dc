// Package local provides a development ledger stored in Pebble. It follows
// the registry contract's rules: a digest can be recorded once, by whoever
// commits it first.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"paper-registry/internal/domain"
	apperrors "paper-registry/pkg/errors"
)

// NetworkName is reported as the ledger network for the local backend.
const NetworkName = "local"

var keyPrefix = []byte("paper/")

// entry is the stored value for a recorded digest.
type entry struct {
	RecordedBy string    `json:"recorded_by"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Ledger implements domain.Registry on a Pebble database.
type Ledger struct {
	db     *pebble.DB
	logger domain.Logger
	now    func() time.Time

	// mu serializes the read-then-write in Record.
	mu sync.Mutex
}

// Open opens or creates a ledger at path.
func Open(path string, logger domain.Logger) (*Ledger, error) {
	return open(path, &pebble.Options{Cache: pebble.NewCache(8 << 20)}, logger)
}

// OpenInMemory creates a ledger that lives only as long as the process.
func OpenInMemory(logger domain.Logger) (*Ledger, error) {
	return open("", &pebble.Options{FS: vfs.NewMem()}, logger)
}

func open(path string, opts *pebble.Options, logger domain.Logger) (*Ledger, error) {
	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, apperrors.NewLedgerUnavailableError("Failed to open local ledger", err)
	}
	logger.Info("Local ledger opened", "path", path)
	return &Ledger{db: db, logger: logger, now: time.Now}, nil
}

// Close flushes and closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Network implements domain.Registry
func (l *Ledger) Network() string {
	return NetworkName
}

// IsRecorded implements domain.Registry
func (l *Ledger) IsRecorded(ctx context.Context, digest domain.ContentDigest) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	e, err := l.get(digest)
	if err != nil {
		return false, err
	}
	return e != nil, nil
}

// Record implements domain.Registry. A digest that is already present is
// refused the same way the contract reverts.
func (l *Ledger) Record(ctx context.Context, digest domain.ContentDigest, signer domain.Signer) error {
	if signer == nil {
		return apperrors.NewSignerRejectedError("No signer is connected", domain.ErrNoSigner)
	}
	identity, err := signer.Authorize(ctx)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	existing, err := l.get(digest)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperrors.NewSignerRejectedError("Ledger refused the commit: paper already validated", domain.ErrAlreadyRecorded)
	}

	value, err := json.Marshal(entry{RecordedBy: identity, RecordedAt: l.now().UTC()})
	if err != nil {
		return apperrors.NewInternalError("Failed to encode ledger entry", err)
	}
	if err := l.db.Set(key(digest), value, pebble.Sync); err != nil {
		return apperrors.NewLedgerUnavailableError("Failed to write local ledger", err)
	}

	l.logger.Info("Digest recorded", "digest", digest.Hex(), "recorded_by", identity)
	return nil
}

// Details implements domain.Registry
func (l *Ledger) Details(ctx context.Context, digest domain.ContentDigest) (*domain.ValidationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, err := l.get(digest)
	if err != nil {
		return nil, err
	}
	record := &domain.ValidationRecord{Digest: digest}
	if e != nil {
		record.Recorded = true
		record.RecordedBy = e.RecordedBy
		record.RecordedAt = e.RecordedAt
	}
	return record, nil
}

// Count returns the number of recorded digests.
func (l *Ledger) Count() (int, error) {
	iter, err := l.db.NewIter(&pebble.IterOptions{
		LowerBound: keyPrefix,
		UpperBound: []byte("paper0"),
	})
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	n := 0
	for iter.First(); iter.Valid(); iter.Next() {
		n++
	}
	return n, iter.Error()
}

func (l *Ledger) get(digest domain.ContentDigest) (*entry, error) {
	value, closer, err := l.db.Get(key(digest))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewLedgerUnavailableError("Failed to read local ledger", err)
	}
	defer closer.Close()

	var e entry
	if err := json.Unmarshal(value, &e); err != nil {
		return nil, apperrors.NewInternalError("Corrupt ledger entry", err)
	}
	return &e, nil
}

func key(digest domain.ContentDigest) []byte {
	k := make([]byte, 0, len(keyPrefix)+domain.DigestSize)
	k = append(k, keyPrefix...)
	return append(k, digest[:]...)
}
