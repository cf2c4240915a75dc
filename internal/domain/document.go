package domain

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// PDFContentType is the only content type accepted at the document boundary.
const PDFContentType = "application/pdf"

// DigestSize is the width of a ContentDigest in bytes.
const DigestSize = 32

// Document is a submitted file. It is immutable once read.
type Document struct {
	Name        string `json:"name"`
	Payload     []byte `json:"-"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	PageCount   int    `json:"page_count,omitempty"`
}

// NewDocument builds a Document from a name and its bytes.
func NewDocument(name string, payload []byte) *Document {
	return &Document{
		Name:    name,
		Payload: payload,
		Size:    int64(len(payload)),
	}
}

// IsEmpty reports whether the document has no bytes to process.
func (d *Document) IsEmpty() bool {
	return d == nil || d.Size <= 0 || len(d.Payload) == 0
}

// DisplaySize formats the size in megabytes with two decimals.
func (d *Document) DisplaySize() string {
	return fmt.Sprintf("%.2f MB", float64(d.Size)/(1024*1024))
}

// ContentDigest is the fixed-width identifier derived from document text.
type ContentDigest [DigestSize]byte

// Hex returns the 0x-prefixed lowercase hex form.
func (c ContentDigest) Hex() string {
	return "0x" + hex.EncodeToString(c[:])
}

func (c ContentDigest) String() string {
	return c.Hex()
}

// IsZero reports whether the digest was never set.
func (c ContentDigest) IsZero() bool {
	return c == ContentDigest{}
}

// MarshalText encodes the digest as hex so JSON carries the same form users see.
func (c ContentDigest) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// UnmarshalText accepts the hex form with or without 0x.
func (c *ContentDigest) UnmarshalText(text []byte) error {
	d, err := ParseDigest(string(text))
	if err != nil {
		return err
	}
	*c = d
	return nil
}

// ParseDigest parses a 32-byte hex digest, with or without the 0x prefix.
func ParseDigest(s string) (ContentDigest, error) {
	var d ContentDigest
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if len(s) != DigestSize*2 {
		return d, &ValidationError{Field: "digest", Message: fmt.Sprintf("expected %d hex characters, got %d", DigestSize*2, len(s))}
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return d, &ValidationError{Field: "digest", Message: "not a hex string"}
	}
	copy(d[:], b)
	return d, nil
}

// ValidationRecord is the ledger's view of a digest.
type ValidationRecord struct {
	Digest     ContentDigest `json:"digest"`
	Recorded   bool          `json:"recorded"`
	RecordedBy string        `json:"recorded_by,omitempty"`
	RecordedAt time.Time     `json:"recorded_at,omitempty"`
}
