package supabase

import (
	"fmt"

	"paper-registry/internal/domain"

	"github.com/supabase-community/supabase-go"
)

// AuthClient validates Supabase access tokens for the API's mutating routes
type AuthClient struct {
	client *supabase.Client
	logger domain.Logger
}

// NewAuthClient connects to the Supabase project at url with its anon key
func NewAuthClient(url, anonKey string, logger domain.Logger) (*AuthClient, error) {
	if url == "" || anonKey == "" {
		return nil, fmt.Errorf("supabase URL and key must be provided")
	}

	client, err := supabase.NewClient(url, anonKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create Supabase client: %w", err)
	}

	logger.Info("Supabase auth client initialized", "url", url)
	return &AuthClient{client: client, logger: logger}, nil
}

// ValidateToken resolves a Supabase JWT to the caller it was issued to
func (s *AuthClient) ValidateToken(token string) (*domain.Caller, error) {
	// Headers set on the shared client do not reach GoTrue; scope the token instead.
	user, err := s.client.Auth.WithToken(token).GetUser()
	if err != nil {
		s.logger.Debug("Supabase rejected token", "error", err)
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user not found")
	}

	return &domain.Caller{
		ID:    user.ID.String(),
		Email: user.Email,
	}, nil
}
