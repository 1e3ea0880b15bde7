package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-system/internal/core/domain"
)

// ctxUser returns the user admitted by middleware.VerifyToken. A missing user
// means the route was registered without the middleware.
func ctxUser(c echo.Context) (*domain.User, error) {
	user, _ := c.Get("user").(*domain.User)
	if user == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized!")
	}
	return user, nil
}
