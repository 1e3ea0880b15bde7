package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-system/internal/api/metrics"
	"github.com/99minutos/auth-system/internal/core/domain"
)

// RequireRoles admits users holding at least one of allowedRoles. It must run
// after VerifyToken.
func RequireRoles(allowedRoles ...string) echo.MiddlewareFunc {
	denied := requireMessage(allowedRoles)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := CurrentUser(c)
			if !ok {
				metrics.AccessDecisionsTotal.WithLabelValues("no_token").Inc()
				return domain.ErrNoToken
			}
			if !user.HasAnyRole(allowedRoles...) {
				metrics.AccessDecisionsTotal.WithLabelValues("forbidden").Inc()
				return &echo.HTTPError{
					Code:     http.StatusForbidden,
					Message:  denied,
					Internal: domain.ErrForbidden,
				}
			}

			metrics.AccessDecisionsTotal.WithLabelValues("allowed").Inc()
			return next(c)
		}
	}
}

// requireMessage renders "Require Admin Role!" or
// "Require Moderator or Admin Role!".
func requireMessage(roles []string) string {
	titled := make([]string, 0, len(roles))
	for _, r := range roles {
		if r == "" {
			continue
		}
		titled = append(titled, strings.ToUpper(r[:1])+r[1:])
	}
	return "Require " + strings.Join(titled, " or ") + " Role!"
}
