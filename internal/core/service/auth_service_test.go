package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/auth-system/internal/core/domain"
	"github.com/99minutos/auth-system/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stubs
// ---------------------------------------------------------------------------

type stubUserDirectory struct {
	mu         sync.Mutex
	byID       map[string]*domain.User
	seq        int
	findErr    error         // if set, every Find* returns this error
	createWait time.Duration // if set, Create blocks until ctx expires or the wait elapses
}

func newStubUserDirectory() *stubUserDirectory {
	return &stubUserDirectory{byID: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.Roles = append([]domain.Role(nil), u.Roles...)
	return &clone
}

func (r *stubUserDirectory) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if r.createWait > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.createWait):
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.byID {
		if u.Username == user.Username {
			return nil, domain.ErrUsernameTaken
		}
		if u.Email == user.Email {
			return nil, domain.ErrEmailTaken
		}
	}
	r.seq++
	created := cloneUser(user)
	created.ID = fmt.Sprintf("u%d", r.seq)
	r.byID[created.ID] = created
	return cloneUser(created), nil
}

func (r *stubUserDirectory) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserDirectory) FindByID(_ context.Context, id string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserDirectory) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

type stubRoleCatalog struct{}

func (stubRoleCatalog) Seed(context.Context, []string) (int, error) { return 0, nil }

func (stubRoleCatalog) FindByNames(_ context.Context, names []string) ([]domain.Role, error) {
	var out []domain.Role
	for _, n := range names {
		if domain.IsKnownRole(n) {
			out = append(out, domain.Role{ID: "r-" + n, Name: n})
		}
	}
	return out, nil
}

type harness struct {
	svc    *AuthService
	users  *stubUserDirectory
	tokens *JWTTokenService
}

func newHarness(t *testing.T, cfg AuthConfig) *harness {
	t.Helper()
	tokens, err := NewTokenService("secret")
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	users := newStubUserDirectory()
	svc := NewAuthService(users, stubRoleCatalog{}, NewBcryptHasher(bcrypt.MinCost, nil), tokens, cfg, zerolog.Nop())
	return &harness{svc: svc, users: users, tokens: tokens}
}

func (h *harness) signup(t *testing.T, username, email, password string, roles ...string) *domain.User {
	t.Helper()
	u, err := h.svc.Signup(context.Background(), ports.SignupInput{Username: username, Email: email, Password: password, Roles: roles})
	if err != nil {
		t.Fatalf("signup %s: %v", username, err)
	}
	return u
}

// ---------------------------------------------------------------------------
// Signup
// ---------------------------------------------------------------------------

func TestAuthService_Signup_Success(t *testing.T) {
	h := newHarness(t, AuthConfig{})

	user := h.signup(t, "alice", "alice@x.com", "secret1")

	if user.ID == "" {
		t.Fatalf("expected id to be assigned")
	}
	if user.PasswordHash == "secret1" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret1")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if len(user.Roles) != 1 || user.Roles[0].Name != domain.RoleUser {
		t.Fatalf("expected default role, got %+v", user.Roles)
	}
}

func TestAuthService_Signup_RequestedRoles(t *testing.T) {
	h := newHarness(t, AuthConfig{})

	user := h.signup(t, "mod", "mod@x.com", "secret1", domain.RoleModerator, domain.RoleUser, domain.RoleModerator)

	names := user.RoleNames()
	if len(names) != 2 || names[0] != domain.RoleModerator || names[1] != domain.RoleUser {
		t.Fatalf("unexpected roles: %v", names)
	}
}

func TestAuthService_Signup_UnknownRole(t *testing.T) {
	h := newHarness(t, AuthConfig{})

	_, err := h.svc.Signup(context.Background(), ports.SignupInput{
		Username: "eve", Email: "eve@x.com", Password: "secret1", Roles: []string{"user", "superuser"},
	})
	if !errors.Is(err, domain.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if h.users.count() != 0 {
		t.Fatalf("no user should be stored")
	}
}

func TestAuthService_Signup_MissingFields(t *testing.T) {
	h := newHarness(t, AuthConfig{})

	cases := []ports.SignupInput{
		{Email: "a@x.com", Password: "secret1"},
		{Username: "alice", Password: "secret1"},
		{Username: "alice", Email: "a@x.com"},
		{Username: "   ", Email: "a@x.com", Password: "secret1"},
		{},
	}
	for _, in := range cases {
		if _, err := h.svc.Signup(context.Background(), in); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("input %+v: expected ErrInvalidInput, got %v", in, err)
		}
	}
}

func TestAuthService_Signup_Duplicate(t *testing.T) {
	h := newHarness(t, AuthConfig{})

	h.signup(t, "bob", "bob@x.com", "secret1")

	_, err := h.svc.Signup(context.Background(), ports.SignupInput{Username: "bob", Email: "other@x.com", Password: "secret2"})
	if !errors.Is(err, domain.ErrDuplicateUser) || !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	_, err = h.svc.Signup(context.Background(), ports.SignupInput{Username: "bobby", Email: "bob@x.com", Password: "secret2"})
	if !errors.Is(err, domain.ErrDuplicateUser) || !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	if h.users.count() != 1 {
		t.Fatalf("expected exactly one stored user, got %d", h.users.count())
	}
}

func TestAuthService_Signup_ConcurrentDuplicates(t *testing.T) {
	h := newHarness(t, AuthConfig{})

	const n = 8
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		created    int
		duplicates int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := h.svc.Signup(context.Background(), ports.SignupInput{
				Username: "carol", Email: fmt.Sprintf("carol%d@x.com", i), Password: "secret1",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, domain.ErrDuplicateUser):
				duplicates++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if created != 1 || duplicates != n-1 {
		t.Fatalf("expected 1 created and %d duplicates, got %d and %d", n-1, created, duplicates)
	}
}

func TestAuthService_Signup_DirectoryTimeout(t *testing.T) {
	h := newHarness(t, AuthConfig{DirectoryTimeout: 20 * time.Millisecond})
	h.users.createWait = time.Second

	_, err := h.svc.Signup(context.Background(), ports.SignupInput{Username: "slow", Email: "slow@x.com", Password: "secret1"})
	if !errors.Is(err, domain.ErrDirectoryUnavailable) {
		t.Fatalf("expected ErrDirectoryUnavailable, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Signin
// ---------------------------------------------------------------------------

func TestAuthService_Signin_Success(t *testing.T) {
	h := newHarness(t, AuthConfig{AccessTokenTTL: time.Hour})
	created := h.signup(t, "carol", "carol@x.com", "s3cret", domain.RoleAdmin)

	token, user, err := h.svc.Signin(context.Background(), "carol", "s3cret")
	if err != nil {
		t.Fatalf("signin failed: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token, got empty")
	}
	if user == nil || user.ID != created.ID || user.Email != "carol@x.com" {
		t.Fatalf("unexpected user: %+v", user)
	}

	claims, err := h.tokens.Verify(token)
	if err != nil {
		t.Fatalf("token invalid: %v", err)
	}
	if claims.Subject != created.ID {
		t.Fatalf("expected subject %s, got %s", created.ID, claims.Subject)
	}
	if claims.Kind != domain.TokenAccess {
		t.Fatalf("signin must issue access tokens, got kind %q", claims.Kind)
	}
	if ttl := claims.ExpiresAt.Sub(claims.IssuedAt); ttl != time.Hour {
		t.Fatalf("expected 1h ttl, got %s", ttl)
	}
}

func TestAuthService_Signin_InvalidPassword(t *testing.T) {
	h := newHarness(t, AuthConfig{})
	h.signup(t, "dave", "dave@x.com", "goodpass")

	if _, _, err := h.svc.Signin(context.Background(), "dave", "badpass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Signin_UserNotFound(t *testing.T) {
	h := newHarness(t, AuthConfig{})

	if _, _, err := h.svc.Signin(context.Background(), "ghost", "pass"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAuthService_Signin_HideUserExistence(t *testing.T) {
	h := newHarness(t, AuthConfig{HideUserExistence: true})
	h.signup(t, "dave", "dave@x.com", "goodpass")

	_, _, errUnknown := h.svc.Signin(context.Background(), "ghost", "pass")
	_, _, errWrong := h.svc.Signin(context.Background(), "dave", "badpass")

	if !errors.Is(errUnknown, domain.ErrInvalidCredentials) || !errors.Is(errWrong, domain.ErrInvalidCredentials) {
		t.Fatalf("expected both to be ErrInvalidCredentials, got %v and %v", errUnknown, errWrong)
	}
	if errors.Is(errUnknown, domain.ErrUserNotFound) {
		t.Fatalf("unknown user must not be distinguishable")
	}
}

func TestAuthService_Signin_MalformedStoredDigest(t *testing.T) {
	h := newHarness(t, AuthConfig{})
	created := h.signup(t, "erin", "erin@x.com", "secret1")

	h.users.mu.Lock()
	h.users.byID[created.ID].PasswordHash = "garbage"
	h.users.mu.Unlock()

	if _, _, err := h.svc.Signin(context.Background(), "erin", "secret1"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Signin_MissingFields(t *testing.T) {
	h := newHarness(t, AuthConfig{})

	if _, _, err := h.svc.Signin(context.Background(), "", "pass"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, _, err := h.svc.Signin(context.Background(), "alice", ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAuthService_Signin_ConcurrentDistinctTokens(t *testing.T) {
	h := newHarness(t, AuthConfig{})
	h.signup(t, "frank", "frank@x.com", "secret1")

	const n = 20
	tokens := make([]string, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], _, errs[i] = h.svc.Signin(context.Background(), "frank", "secret1")
		}(i)
	}
	wg.Wait()

	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("signin %d failed: %v", i, errs[i])
		}
		if _, err := h.tokens.Verify(tokens[i]); err != nil {
			t.Fatalf("token %d invalid: %v", i, err)
		}
		if _, dup := seen[tokens[i]]; dup {
			t.Fatalf("token %d duplicated", i)
		}
		seen[tokens[i]] = struct{}{}
	}
}

// ---------------------------------------------------------------------------
// Authenticate
// ---------------------------------------------------------------------------

func TestAuthService_Authenticate(t *testing.T) {
	h := newHarness(t, AuthConfig{})
	created := h.signup(t, "gina", "gina@x.com", "secret1", domain.RoleModerator)

	token, _, err := h.svc.Signin(context.Background(), "gina", "secret1")
	if err != nil {
		t.Fatalf("signin: %v", err)
	}

	user, err := h.svc.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.ID != created.ID || !user.HasAnyRole(domain.RoleModerator) {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestAuthService_Authenticate_Failures(t *testing.T) {
	h := newHarness(t, AuthConfig{})
	created := h.signup(t, "hank", "hank@x.com", "secret1")

	other, err := NewTokenService("other-secret")
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	foreign, _ := other.Issue(created.ID, domain.TokenAccess, time.Hour)
	refresh, _ := h.tokens.Issue(created.ID, domain.TokenRefresh, time.Hour)
	orphan, _ := h.tokens.Issue("missing", domain.TokenAccess, time.Hour)

	past := time.Now().Add(-2 * time.Hour)
	expiredSvc, _ := NewTokenService("secret", WithClock(func() time.Time { return past }))
	expired, _ := expiredSvc.Issue(created.ID, domain.TokenAccess, time.Hour)

	cases := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", domain.ErrNoToken},
		{"garbage", "not-a-token", domain.ErrInvalidToken},
		{"foreign secret", foreign, domain.ErrInvalidToken},
		{"refresh token", refresh, domain.ErrInvalidToken},
		{"expired", expired, domain.ErrTokenExpired},
		{"unknown subject", orphan, domain.ErrUserNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := h.svc.Authenticate(context.Background(), tc.token); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestAuthService_Authenticate_DirectoryUnavailable(t *testing.T) {
	h := newHarness(t, AuthConfig{})
	created := h.signup(t, "ivan", "ivan@x.com", "secret1")
	token, _ := h.tokens.Issue(created.ID, domain.TokenAccess, time.Hour)

	h.users.findErr = fmt.Errorf("find user: %w", context.DeadlineExceeded)

	if _, err := h.svc.Authenticate(context.Background(), token); !errors.Is(err, domain.ErrDirectoryUnavailable) {
		t.Fatalf("expected ErrDirectoryUnavailable, got %v", err)
	}
}
