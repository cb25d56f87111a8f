package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/museum/internal/errs"
	"github.com/Skotchmaster/museum/internal/util"
)

// bind decodes the body into req and validates it. Validation errors are
// returned unchanged so the error handler can list the failing fields.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	return c.Validate(req)
}

// idParam parses a positive numeric path parameter.
func idParam(c echo.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be a positive integer")
	}
	return uint(v), nil
}

// httpError maps domain sentinels to responses. Anything unknown is returned
// as is and becomes a 500 in the error handler.
func httpError(err error, notFound string) error {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, notFound)
	case errors.Is(err, errs.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, "resource already exists")
	case errors.Is(err, errs.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "Access to the resource is forbidden!")
	case errors.Is(err, errs.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return err
}

// page reads the 1-based page query parameter.
func page(c echo.Context) int {
	p := util.ParseIntDefault(c.QueryParam("page"), 1)
	if p < 1 {
		return 1
	}
	return p
}

func list[T any](c echo.Context, p, offset, limit int, total int64, data []T) error {
	if data == nil {
		data = []T{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"data": data,
		"meta": util.Meta(p, offset, limit, total),
	})
}
