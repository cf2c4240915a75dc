package domain

// Caller is the authenticated submitter of a request.
type Caller struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// TokenValidator resolves a bearer token to its caller.
type TokenValidator interface {
	ValidateToken(token string) (*Caller, error)
}
