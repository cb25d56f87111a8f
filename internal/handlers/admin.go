package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/museum/internal/logging"
	authmw "github.com/Skotchmaster/museum/internal/middleware/auth"
	"github.com/Skotchmaster/museum/internal/models"
	"github.com/Skotchmaster/museum/internal/service"
	"github.com/Skotchmaster/museum/internal/transport"
	"github.com/Skotchmaster/museum/internal/util"
)

type AdminHandler struct {
	Svc *service.AdminService
}

// Users lists every account except the calling admin.
func (h *AdminHandler) Users(c echo.Context) error {
	p := page(c)
	offset, limit := util.Calculate(p, util.DefaultPageSize)

	total, users, err := h.Svc.ListUsers(c.Request().Context(), authmw.MustUserID(c), offset, limit)
	if err != nil {
		return err
	}
	return list(c, p, offset, limit, total, users)
}

func (h *AdminHandler) SetRole(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin_set_role")

	userID, err := idParam(c, "userId")
	if err != nil {
		return err
	}
	var req transport.RoleRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if userID == authmw.MustUserID(c) {
		l.Warnw("set_role_rejected", "status", 400, "reason", "own role")
		return echo.NewHTTPError(http.StatusBadRequest, "cannot change your own role")
	}

	user, err := h.Svc.SetRole(ctx, userID, role)
	if err != nil {
		return httpError(err, "user not found")
	}
	return c.JSON(http.StatusOK, user)
}
