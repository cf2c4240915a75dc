package service

import (
	"github.com/ethereum/go-ethereum/crypto"

	"paper-registry/internal/domain"
	apperrors "paper-registry/pkg/errors"
)

// HashFunc is a 32-byte hash primitive.
type HashFunc func(data ...[]byte) [domain.DigestSize]byte

// Keccak256 is the digest primitive the registry contract expects.
func Keccak256(data ...[]byte) [domain.DigestSize]byte {
	return crypto.Keccak256Hash(data...)
}

// DigestService turns extracted text into a ContentDigest.
type DigestService struct {
	hash HashFunc
}

// NewDigestService creates a keccak256 digest service
func NewDigestService() *DigestService {
	return &DigestService{hash: Keccak256}
}

// NewDigestServiceWithHash creates a digest service over an arbitrary primitive.
func NewDigestServiceWithHash(hash HashFunc) *DigestService {
	return &DigestService{hash: hash}
}

// Digest hashes the UTF-8 bytes of text. The empty string is a valid input.
func (s *DigestService) Digest(text string) (domain.ContentDigest, error) {
	if s == nil || s.hash == nil {
		return domain.ContentDigest{}, apperrors.NewInfrastructureUnavailableError("hash primitive unavailable", nil)
	}
	return domain.ContentDigest(s.hash([]byte(text))), nil
}
