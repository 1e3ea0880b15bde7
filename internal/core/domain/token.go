package domain

import "time"

// TokenKind discriminates access tokens from refresh tokens. Access tokens
// carry the zero value.
type TokenKind string

const (
	TokenAccess  TokenKind = ""
	TokenRefresh TokenKind = "refresh"
)

// TokenClaims is the verified content of a bearer token.
type TokenClaims struct {
	ID        string
	Subject   string
	Kind      TokenKind
	IssuedAt  time.Time
	ExpiresAt time.Time
}
