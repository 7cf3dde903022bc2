package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/military-registry/personnel-api/internal/core/domain"
	"github.com/military-registry/personnel-api/internal/core/ports"
)

// UserHandler serves account administration. Routes are admin only.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// List handles GET /api/users.
//
// @Summary      List user accounts
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dataResponse{data=[]domain.User}
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /api/users [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.service.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, success(users))
}

// UpdateRole handles PUT /api/users/:id/role. Admins cannot change their own role.
//
// @Summary      Change the role of a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User id"
// @Param        body  body      updateRoleRequest  true  "New role (admin or user)"
// @Success      200   {object}  dataResponse{data=domain.User}
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/users/{id}/role [put]
func (h *UserHandler) UpdateRole(c echo.Context) error {
	requester, err := currentIdentity(c)
	if err != nil {
		return err
	}

	var req updateRoleRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.service.UpdateRole(c.Request().Context(), requester, c.Param("id"), domain.Role(req.Role))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, success(user))
}
