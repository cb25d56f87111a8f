package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/museum/internal/logging"
	"github.com/Skotchmaster/museum/pkg/db"
)

type HealthHandler struct {
	DB *gorm.DB
}

func (h *HealthHandler) Live(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HealthHandler) Ready(c echo.Context) error {
	ctx := c.Request().Context()
	if err := db.Ping(ctx, h.DB); err != nil {
		logging.FromContext(ctx).Warnw("readiness_failed", "error", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
}
