package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-system/internal/api/metrics"
	"github.com/99minutos/auth-system/internal/core/domain"
	"github.com/99minutos/auth-system/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Signup registers a new user account.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "User registration details"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /api/auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		metrics.SignupsTotal.WithLabelValues("invalid_input").Inc()
		return &echo.HTTPError{Code: http.StatusBadRequest, Message: "Failed! invalid payload", Internal: err}
	}
	if err := c.Validate(&req); err != nil {
		metrics.SignupsTotal.WithLabelValues("invalid_input").Inc()
		return &echo.HTTPError{Code: http.StatusBadRequest, Message: "Failed! " + err.Error(), Internal: err}
	}

	_, err := h.authService.Signup(c.Request().Context(), ports.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Roles:    req.Roles,
	})
	if err != nil {
		metrics.SignupsTotal.WithLabelValues(signupResult(err)).Inc()
		return err
	}

	metrics.SignupsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "User was registered successfully!"})
}

// Signin authenticates a user and returns an access token.
//
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signinRequest  true  "Signin credentials"
// @Success      200   {object}  signinResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /api/auth/signin [post]
func (h *AuthHandler) Signin(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.CredentialCheckDuration.Observe(time.Since(start).Seconds()) }()

	var req signinRequest
	if err := c.Bind(&req); err != nil {
		metrics.SigninsTotal.WithLabelValues("invalid_input").Inc()
		return &echo.HTTPError{Code: http.StatusBadRequest, Message: "Failed! invalid payload", Internal: err}
	}
	if err := c.Validate(&req); err != nil {
		metrics.SigninsTotal.WithLabelValues("invalid_input").Inc()
		return &echo.HTTPError{Code: http.StatusBadRequest, Message: "Failed! " + err.Error(), Internal: err}
	}

	token, user, err := h.authService.Signin(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		metrics.SigninsTotal.WithLabelValues(signinResult(err)).Inc()
		return err
	}

	metrics.SigninsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, signinResponse{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		Roles:       user.RoleNames(),
		AccessToken: token,
	})
}

func signupResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrDuplicateUser):
		return "duplicate"
	case errors.Is(err, domain.ErrInvalidRole):
		return "invalid_role"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	default:
		return "error"
	}
}

func signinResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	default:
		return "error"
	}
}
