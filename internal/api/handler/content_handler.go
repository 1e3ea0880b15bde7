package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ContentHandler serves the sample resources used to exercise each access tier.
type ContentHandler struct{}

func NewContentHandler() *ContentHandler {
	return &ContentHandler{}
}

// Welcome handles GET /.
//
// @Summary      Service banner
// @Tags         content
// @Produce      json
// @Success      200  {object}  messageResponse
// @Router       / [get]
func (h *ContentHandler) Welcome(c echo.Context) error {
	return c.JSON(http.StatusOK, messageResponse{Message: "Welcome to the auth system."})
}

// Public handles GET /api/test/all.
//
// @Summary      Public content
// @Tags         content
// @Produce      json
// @Success      200  {object}  messageResponse
// @Router       /api/test/all [get]
func (h *ContentHandler) Public(c echo.Context) error {
	return c.JSON(http.StatusOK, messageResponse{Message: "Public Content."})
}

// UserBoard handles GET /api/test/user.
//
// @Summary      Content for any signed-in user
// @Tags         content
// @Produce      json
// @Security     AccessToken
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /api/test/user [get]
func (h *ContentHandler) UserBoard(c echo.Context) error {
	return h.board(c, "User Content.")
}

// ModeratorBoard handles GET /api/test/mod.
//
// @Summary      Moderator content
// @Tags         content
// @Produce      json
// @Security     AccessToken
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /api/test/mod [get]
func (h *ContentHandler) ModeratorBoard(c echo.Context) error {
	return h.board(c, "Moderator Content.")
}

// AdminBoard handles GET /api/test/admin.
//
// @Summary      Admin content
// @Tags         content
// @Produce      json
// @Security     AccessToken
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /api/test/admin [get]
func (h *ContentHandler) AdminBoard(c echo.Context) error {
	return h.board(c, "Admin Content.")
}

func (h *ContentHandler) board(c echo.Context, msg string) error {
	if _, err := ctxUser(c); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: msg})
}
