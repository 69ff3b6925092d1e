package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/zeeeeby/cathouse-server/internal/apperr"
	"github.com/zeeeeby/cathouse-server/internal/models"
	"github.com/zeeeeby/cathouse-server/internal/search"
	"github.com/zeeeeby/cathouse-server/internal/service"
)

type UserHTTP struct {
	Svc    *service.AuthService
	Search *search.Users
}

func (h *UserHTTP) SearchUsers(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return apperr.New(apperr.BadRequest, "query is required")
	}
	if h.Search == nil {
		return apperr.New(apperr.Internal, "search is not available")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	from, limit := search.Paginate(page, size)

	total, users, err := h.Search.Search(c.Request().Context(), query, from, limit)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "internal server error", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"total": total,
		"users": users,
	})
}

func (h *UserHTTP) GiveRole(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return apperr.New(apperr.BadRequest, "invalid user id")
	}

	var req struct {
		Role models.RoleName `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.BadRequest, "invalid body")
	}

	if err := h.Svc.GrantRole(c.Request().Context(), uint(id), req.Role); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "role granted"})
}
