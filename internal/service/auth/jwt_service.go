package auth

import (
	"context"
	"slices"
	"time"
)

// Scopes understood by the thing API.
const (
	ScopeReadThing  = "read:thing"
	ScopeWriteThing = "write:thing"
)

// JWTService defines operations for managing JWT authentication tokens.
type JWTService interface {
	// GenerateToken creates a signed token for user carrying the given scopes.
	GenerateToken(ctx context.Context, user string, scopes []string) (string, error)

	// ValidateToken validates the provided token string and extracts the claims.
	// Returns an error if validation fails (expired, invalid signature, etc.).
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims is the decoded content of a validated token.
type Claims struct {
	// User names the caller the token was issued for.
	User string `json:"user,omitempty"`

	// Scopes lists the privileges granted to the caller.
	Scopes []string `json:"scope,omitempty"`

	// Standard registered JWT claims
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}

// HasScope reports whether the claims grant scope.
func (c *Claims) HasScope(scope string) bool {
	if c == nil {
		return false
	}
	return slices.Contains(c.Scopes, scope)
}
