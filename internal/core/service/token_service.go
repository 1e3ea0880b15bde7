package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/99minutos/auth-system/internal/core/domain"
)

const (
	DefaultAccessTokenTTL  = 24 * time.Hour
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// tokenClaims is the signed payload. Access tokens omit "type".
type tokenClaims struct {
	Kind domain.TokenKind `json:"type,omitempty"`
	jwt.RegisteredClaims
}

// JWTTokenService issues HS256 tokens signed with a single process-wide
// secret. Rotating the secret means constructing a new service, which
// invalidates every token issued by the previous one.
type JWTTokenService struct {
	secret []byte
	now    func() time.Time
	parser *jwt.Parser
}

// TokenOption customises a JWTTokenService.
type TokenOption func(*JWTTokenService)

// WithClock overrides the time source used for iat, exp and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(s *JWTTokenService) {
		s.now = now
	}
}

func NewTokenService(secret string, opts ...TokenOption) (*JWTTokenService, error) {
	if secret == "" {
		return nil, errors.New("token service: signing secret is empty")
	}

	s := &JWTTokenService{
		secret: []byte(secret),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
		jwt.WithStrictDecoding(),
	)
	return s, nil
}

// Issue signs a token for subjectID that expires ttl after now. Every token
// carries a random jti, so two tokens issued in the same second differ.
func (s *JWTTokenService) Issue(subjectID string, kind domain.TokenKind, ttl time.Duration) (string, error) {
	if subjectID == "" {
		return "", errors.New("issue token: empty subject")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("issue token: non-positive ttl %s", ttl)
	}

	now := s.now()
	claims := tokenClaims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature first and the expiry second. A token signed
// with another secret reports domain.ErrInvalidSignature even when it has
// also expired.
func (s *JWTTokenService) Verify(raw string) (*domain.TokenClaims, error) {
	claims := &tokenClaims{}
	_, err := s.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed), errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
			return nil, fmt.Errorf("%w: %w", domain.ErrTokenMalformed, err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("%w: %w", domain.ErrTokenExpired, err)
		default:
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidSignature, err)
		}
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", domain.ErrTokenMalformed)
	}

	out := &domain.TokenClaims{
		ID:      claims.ID,
		Subject: claims.Subject,
		Kind:    claims.Kind,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
