package auth

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/museum/internal/logging"
	"github.com/Skotchmaster/museum/internal/models"
)

type EditChecker interface {
	CanEdit(ctx context.Context, userID uint, role models.Role, categoryID uint) (bool, error)
}

// CategoryAuthorize runs after Authenticate and admits admins, and curators
// assigned to the category named by the path parameter param.
func CategoryAuthorize(param string, checker EditChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			l := logging.FromContext(ctx).With("middleware", "category_authorize")

			claims, ok := UserFrom(c)
			if !ok {
				l.Errorw("category_authorize_failed", "status", 500, "reason", "no authenticated user")
				return echo.NewHTTPError(http.StatusInternalServerError, "Missing a user!")
			}
			userID, err := claims.UserID()
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "Missing a user!")
			}
			categoryID, err := strconv.ParseUint(c.Param(param), 10, 64)
			if err != nil || categoryID == 0 {
				return echo.NewHTTPError(http.StatusBadRequest, "Missing category id!")
			}

			allowed, err := checker.CanEdit(ctx, userID, claims.Role, uint(categoryID))
			if err != nil {
				l.Errorw("category_authorize_failed", "status", 500, "error", err)
				return echo.NewHTTPError(http.StatusInternalServerError, "Something went wrong in user category authorization!")
			}
			if !allowed {
				l.Warnw("category_authorize_failed", "status", 403, "user_id", userID, "category_id", categoryID)
				return echo.NewHTTPError(http.StatusForbidden, "Access to the resource is forbidden!")
			}
			return next(c)
		}
	}
}
