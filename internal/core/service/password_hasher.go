package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/auth-system/internal/core/domain"
	"github.com/99minutos/auth-system/internal/core/ports"
)

// DefaultBcryptCost is used when the configured cost is outside bcrypt's range.
const DefaultBcryptCost = 8

// maxPasswordBytes is the longest input bcrypt reads in full. Longer inputs
// would be compared on their prefix only.
const maxPasswordBytes = 72

// BcryptHasher implements ports.PasswordHasher with bcrypt. Each digest embeds
// its own salt and cost, so digests produced under an older cost still verify.
type BcryptHasher struct {
	cost int
	exec ports.Executor
}

// NewBcryptHasher returns a hasher using cost. When exec is non-nil all bcrypt
// work is handed to it, which lets the caller bound concurrent hashing.
func NewBcryptHasher(cost int, exec ports.Executor) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &BcryptHasher{cost: cost, exec: exec}
}

// Cost returns the work factor new digests are created with.
func (h *BcryptHasher) Cost() int {
	return h.cost
}

func (h *BcryptHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	var (
		digest []byte
		err    error
	)
	if runErr := h.run(ctx, func() {
		digest, err = bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	}); runErr != nil {
		return "", runErr
	}

	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: password must not exceed 72 bytes", domain.ErrInvalidInput)
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// Verify returns nil when plaintext matches digest, domain.ErrPasswordMismatch
// when it does not and domain.ErrMalformedDigest when digest cannot be parsed.
func (h *BcryptHasher) Verify(ctx context.Context, plaintext, digest string) error {
	if len(plaintext) > maxPasswordBytes {
		return domain.ErrPasswordMismatch
	}

	var err error
	if runErr := h.run(ctx, func() {
		err = bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	}); runErr != nil {
		return runErr
	}

	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return domain.ErrPasswordMismatch
	default:
		return fmt.Errorf("%w: %v", domain.ErrMalformedDigest, err)
	}
}

func (h *BcryptHasher) run(ctx context.Context, fn func()) error {
	if h.exec == nil {
		fn()
		return nil
	}
	return h.exec.Do(ctx, fn)
}
