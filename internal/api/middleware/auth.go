package middleware

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-system/internal/api/metrics"
	"github.com/99minutos/auth-system/internal/core/domain"
	"github.com/99minutos/auth-system/internal/core/ports"
)

// TokenHeader carries the access token on protected requests.
const TokenHeader = "x-access-token"

// userKey is the echo context key holding the admitted *domain.User.
const userKey = "user"

// VerifyToken authenticates the access token and injects the resolved user
// into the context. Requests without a token fail with domain.ErrNoToken.
func VerifyToken(auth ports.Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractToken(c)
			if token == "" {
				metrics.AccessDecisionsTotal.WithLabelValues("no_token").Inc()
				return domain.ErrNoToken
			}

			user, err := auth.Authenticate(c.Request().Context(), token)
			if err != nil {
				metrics.AccessDecisionsTotal.WithLabelValues(decision(err)).Inc()
				return err
			}

			metrics.AccessDecisionsTotal.WithLabelValues("authenticated").Inc()
			c.Set(userKey, user)
			return next(c)
		}
	}
}

// CurrentUser returns the user admitted by VerifyToken, if any.
func CurrentUser(c echo.Context) (*domain.User, bool) {
	user, ok := c.Get(userKey).(*domain.User)
	return user, ok && user != nil
}

// extractToken reads x-access-token, falling back to an
// "Authorization: Bearer" header.
func extractToken(c echo.Context) string {
	h := c.Request().Header
	if token := strings.TrimSpace(h.Get(TokenHeader)); token != "" {
		return token
	}

	parts := strings.SplitN(h.Get(echo.HeaderAuthorization), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func decision(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoToken):
		return "no_token"
	case errors.Is(err, domain.ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, domain.ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, domain.ErrUserNotFound):
		return "user_not_found"
	default:
		return "error"
	}
}
