package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-system/internal/core/domain"
)

type stubAuthenticator struct {
	users map[string]*domain.User
	err   error
	calls int
}

func (s *stubAuthenticator) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[token]
	if !ok {
		return nil, domain.ErrInvalidToken
	}
	return u, nil
}

func newContext(headers map[string]string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestVerifyToken_ValidToken(t *testing.T) {
	alice := &domain.User{ID: "u1", Username: "alice"}
	auth := &stubAuthenticator{users: map[string]*domain.User{"good": alice}}
	c, rec := newContext(map[string]string{TokenHeader: "good"})

	called := false
	handler := VerifyToken(auth)(func(c echo.Context) error {
		called = true
		user, ok := CurrentUser(c)
		if !ok || user.ID != "u1" {
			t.Fatalf("user not set: %+v", user)
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestVerifyToken_BearerFallback(t *testing.T) {
	auth := &stubAuthenticator{users: map[string]*domain.User{"good": {ID: "u1"}}}
	c, _ := newContext(map[string]string{echo.HeaderAuthorization: "Bearer good"})

	handler := VerifyToken(auth)(func(c echo.Context) error { return nil })
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
}

func TestVerifyToken_MissingToken(t *testing.T) {
	for name, headers := range map[string]map[string]string{
		"no header":    nil,
		"blank header": {TokenHeader: "   "},
		"non-bearer":   {echo.HeaderAuthorization: "Token abc"},
		"empty bearer": {echo.HeaderAuthorization: "Bearer "},
	} {
		t.Run(name, func(t *testing.T) {
			auth := &stubAuthenticator{}
			c, _ := newContext(headers)

			handler := VerifyToken(auth)(func(c echo.Context) error {
				t.Fatalf("should not reach next")
				return nil
			})

			if err := handler(c); !errors.Is(err, domain.ErrNoToken) {
				t.Fatalf("expected ErrNoToken, got %v", err)
			}
			if auth.calls != 0 {
				t.Fatalf("authenticator must not be called without a token")
			}
		})
	}
}

func TestVerifyToken_AuthenticatorErrors(t *testing.T) {
	cases := []error{
		fmt.Errorf("%w: %w", domain.ErrInvalidToken, domain.ErrInvalidSignature),
		domain.ErrTokenExpired,
		domain.ErrUserNotFound,
		fmt.Errorf("%w: timeout", domain.ErrDirectoryUnavailable),
	}
	for _, want := range cases {
		auth := &stubAuthenticator{err: want}
		c, _ := newContext(map[string]string{TokenHeader: "whatever"})

		handler := VerifyToken(auth)(func(c echo.Context) error {
			t.Fatalf("should not reach next")
			return nil
		})

		if err := handler(c); !errors.Is(err, want) {
			t.Fatalf("expected %v, got %v", want, err)
		}
	}
}
