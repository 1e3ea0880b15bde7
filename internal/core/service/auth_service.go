package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/auth-system/internal/core/domain"
	"github.com/99minutos/auth-system/internal/core/ports"
)

const defaultDirectoryTimeout = 5 * time.Second

// AuthConfig holds the tunables of the signup, signin and access flows.
type AuthConfig struct {
	AccessTokenTTL   time.Duration
	DirectoryTimeout time.Duration
	// HideUserExistence reports unknown usernames as invalid credentials
	// and spends one bcrypt comparison on them, so signin responses do not
	// reveal which usernames exist.
	HideUserExistence bool
}

// AuthService implements signup, signin and bearer-token authentication.
type AuthService struct {
	users  ports.UserDirectory
	roles  ports.RoleCatalog
	hasher ports.PasswordHasher
	tokens ports.TokenService
	cfg    AuthConfig
	log    zerolog.Logger

	dummyOnce   sync.Once
	dummyDigest string
}

func NewAuthService(
	users ports.UserDirectory,
	roles ports.RoleCatalog,
	hasher ports.PasswordHasher,
	tokens ports.TokenService,
	cfg AuthConfig,
	log zerolog.Logger,
) *AuthService {
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = DefaultAccessTokenTTL
	}
	if cfg.DirectoryTimeout <= 0 {
		cfg.DirectoryTimeout = defaultDirectoryTimeout
	}
	return &AuthService{
		users:  users,
		roles:  roles,
		hasher: hasher,
		tokens: tokens,
		cfg:    cfg,
		log:    log,
	}
}

// Signup validates in, hashes the password and inserts the user. Uniqueness
// is left to the directory; no token is issued.
func (s *AuthService) Signup(ctx context.Context, in ports.SignupInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	if username == "" || email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", domain.ErrInvalidInput)
	}

	roles, err := s.resolveRoles(ctx, in.Roles)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Roles:        roles,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	dctx, cancel := context.WithTimeout(ctx, s.cfg.DirectoryTimeout)
	defer cancel()

	created, err := s.users.Create(dctx, user)
	if err != nil {
		return nil, s.directoryError(err, "create user")
	}

	s.log.Info().
		Str("user_id", created.ID).
		Strs("roles", created.RoleNames()).
		Msg("user registered")
	return created, nil
}

// Signin checks username and password and returns a fresh access token.
func (s *AuthService) Signin(ctx context.Context, username, password string) (string, *domain.User, error) {
	if username == "" || password == "" {
		return "", nil, fmt.Errorf("%w: username and password are required", domain.ErrInvalidInput)
	}

	user, err := s.findByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) && s.cfg.HideUserExistence {
			s.burnComparison(ctx, password)
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := s.hasher.Verify(ctx, password, user.PasswordHash); err != nil {
		switch {
		case errors.Is(err, domain.ErrPasswordMismatch):
			return "", nil, domain.ErrInvalidCredentials
		case errors.Is(err, domain.ErrMalformedDigest):
			s.log.Warn().Err(err).Str("user_id", user.ID).Msg("stored password digest is malformed")
			return "", nil, domain.ErrInvalidCredentials
		default:
			return "", nil, err
		}
	}

	token, err := s.tokens.Issue(user.ID, domain.TokenAccess, s.cfg.AccessTokenTTL)
	if err != nil {
		return "", nil, err
	}

	s.log.Debug().Str("user_id", user.ID).Msg("user signed in")
	return token, user, nil
}

// Authenticate verifies an access token and loads the user it names.
// Refresh tokens are rejected.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrNoToken
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, domain.ErrTokenExpired) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidToken, err)
	}
	if claims.Kind != domain.TokenAccess {
		return nil, fmt.Errorf("%w: %q token cannot access resources", domain.ErrInvalidToken, claims.Kind)
	}

	dctx, cancel := context.WithTimeout(ctx, s.cfg.DirectoryTimeout)
	defer cancel()

	user, err := s.users.FindByID(dctx, claims.Subject)
	if err != nil {
		return nil, s.directoryError(err, "find user by id")
	}
	return user, nil
}

func (s *AuthService) findByUsername(ctx context.Context, username string) (*domain.User, error) {
	dctx, cancel := context.WithTimeout(ctx, s.cfg.DirectoryTimeout)
	defer cancel()

	user, err := s.users.FindByUsername(dctx, username)
	if err != nil {
		return nil, s.directoryError(err, "find user by username")
	}
	return user, nil
}

// resolveRoles maps requested role names onto the catalog. No names means the
// default role; any unknown name fails the whole request.
func (s *AuthService) resolveRoles(ctx context.Context, requested []string) ([]domain.Role, error) {
	names := make([]string, 0, len(requested))
	seen := make(map[string]struct{}, len(requested))
	for _, n := range requested {
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		names = append(names, n)
	}
	if len(names) == 0 {
		names = []string{domain.DefaultRole}
	}

	dctx, cancel := context.WithTimeout(ctx, s.cfg.DirectoryTimeout)
	defer cancel()

	found, err := s.roles.FindByNames(dctx, names)
	if err != nil {
		return nil, s.directoryError(err, "resolve roles")
	}

	byName := make(map[string]domain.Role, len(found))
	for _, r := range found {
		byName[r.Name] = r
	}

	roles := make([]domain.Role, 0, len(names))
	for _, n := range names {
		r, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvalidRole, n)
		}
		roles = append(roles, r)
	}
	return roles, nil
}

// directoryError turns deadline failures into domain.ErrDirectoryUnavailable
// and logs them. Other errors pass through untouched.
func (s *AuthService) directoryError(err error, op string) error {
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, domain.ErrDirectoryUnavailable) {
		err = fmt.Errorf("%w: %w", domain.ErrDirectoryUnavailable, err)
	}
	if errors.Is(err, domain.ErrDirectoryUnavailable) {
		s.log.Warn().Err(err).Str("op", op).Msg("directory call failed")
	}
	return err
}

func (s *AuthService) burnComparison(ctx context.Context, password string) {
	s.dummyOnce.Do(func() {
		digest, err := s.hasher.Hash(context.Background(), "timing-equaliser")
		if err != nil {
			s.log.Warn().Err(err).Msg("could not prepare dummy digest")
			return
		}
		s.dummyDigest = digest
	})
	if s.dummyDigest == "" {
		return
	}
	_ = s.hasher.Verify(ctx, password, s.dummyDigest)
}
