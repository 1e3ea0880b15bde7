package ports

import (
	"context"
	"time"

	"github.com/99minutos/auth-system/internal/core/domain"
)

// SignupInput carries the fields accepted by the signup flow.
type SignupInput struct {
	Username string
	Email    string
	Password string
	Roles    []string
}

// Authenticator turns a bearer token into the user it was issued to.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

type AuthService interface {
	Authenticator
	Signup(ctx context.Context, in SignupInput) (*domain.User, error)
	Signin(ctx context.Context, username, password string) (string, *domain.User, error)
}

// TokenService issues and verifies signed, time-bound bearer tokens.
type TokenService interface {
	Issue(subjectID string, kind domain.TokenKind, ttl time.Duration) (string, error)
	Verify(token string) (*domain.TokenClaims, error)
}

// PasswordHasher computes and checks one-way password digests.
type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Verify(ctx context.Context, plaintext, digest string) error
}

// Executor runs CPU-bound work, possibly on a bounded set of goroutines.
type Executor interface {
	Do(ctx context.Context, fn func()) error
}
