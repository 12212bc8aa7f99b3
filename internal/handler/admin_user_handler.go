package handler

import (
	"net/http"
	"strconv"

	"pharmacy/internal/middleware"
	"pharmacy/internal/repository"
	"pharmacy/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /api/admin/users のHTTP
type AdminUserHandler struct {
	uc *usecase.AdminUserUsecase
}

func NewAdminUserHandler(uc *usecase.AdminUserUsecase) *AdminUserHandler {
	return &AdminUserHandler{uc: uc}
}

func (h *AdminUserHandler) RegisterRoutes(e *echo.Echo, sessionRepo repository.SessionRepository, userRepo repository.UserRepository) {
	admin := e.Group(
		"/api/admin",
		middleware.SessionGate(sessionRepo, userRepo),
		middleware.AdminRoleGuard(),
	)

	admin.GET("/users", h.list)
}

func (h *AdminUserHandler) list(c echo.Context) error {
	page := 1
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid page"})
		}
		page = p
	}

	limit := 10
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid limit"})
		}
		limit = l
	}

	out, err := h.uc.ListUsers(c.Request().Context(), usecase.ListUsersInput{
		Page:   page,
		Limit:  limit,
		Search: c.QueryParam("search"),
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
