package local

import (
	"context"

	"paper-registry/internal/domain"
	apperrors "paper-registry/pkg/errors"
)

// Signer is a fixed identity that authorizes every request.
type Signer struct {
	identity string
}

// NewSigner creates a signer for identity. An empty identity denies everything.
func NewSigner(identity string) *Signer {
	return &Signer{identity: identity}
}

// Accounts implements domain.Signer
func (s *Signer) Accounts(ctx context.Context) ([]string, error) {
	if s.identity == "" {
		return nil, nil
	}
	return []string{s.identity}, nil
}

// Authorize implements domain.Signer
func (s *Signer) Authorize(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.identity == "" {
		return "", apperrors.NewSignerRejectedError("No signer is connected", domain.ErrNoSigner)
	}
	return s.identity, nil
}
