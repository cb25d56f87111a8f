package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/museum/internal/logging"
	"github.com/Skotchmaster/museum/internal/repo"
	"github.com/Skotchmaster/museum/internal/service"
	"github.com/Skotchmaster/museum/internal/transport"
	"github.com/Skotchmaster/museum/internal/util"
)

const msgMuseumNotFound = "museum not found"

type MuseumHandler struct {
	Svc *service.CatalogService
}

func (h *MuseumHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	p := page(c)
	offset, limit := util.Calculate(p, util.DefaultPageSize)

	total, museums, err := h.Svc.ListMuseums(ctx, offset, limit)
	if err != nil {
		logging.FromContext(ctx).Errorw("list_museums_failed", "error", err)
		return err
	}
	return list(c, p, offset, limit, total, museums)
}

func (h *MuseumHandler) Search(c echo.Context) error {
	ctx := c.Request().Context()
	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter q is required")
	}
	p := page(c)
	offset, limit := util.Calculate(p, util.DefaultPageSize)

	total, museums, err := h.Svc.SearchMuseums(ctx, q, offset, limit)
	if err != nil {
		logging.FromContext(ctx).Errorw("search_museums_failed", "q", q, "error", err)
		return err
	}
	return list(c, p, offset, limit, total, museums)
}

func (h *MuseumHandler) Get(c echo.Context) error {
	id, err := idParam(c, "museumId")
	if err != nil {
		return err
	}
	m, err := h.Svc.GetMuseum(c.Request().Context(), id)
	if err != nil {
		return httpError(err, msgMuseumNotFound)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *MuseumHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	var req transport.MuseumRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	m, err := h.Svc.CreateMuseum(ctx, req.Name, req.Description)
	if err != nil {
		return httpError(err, msgMuseumNotFound)
	}
	logging.FromContext(ctx).Infow("museum_created", "museum_id", m.ID)
	return c.JSON(http.StatusCreated, m)
}

func (h *MuseumHandler) Update(c echo.Context) error {
	id, err := idParam(c, "museumId")
	if err != nil {
		return err
	}
	var req transport.MuseumRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	m, err := h.Svc.UpdateMuseum(c.Request().Context(), id, repo.MuseumPatch{
		Name:        &req.Name,
		Description: &req.Description,
	})
	if err != nil {
		return httpError(err, msgMuseumNotFound)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *MuseumHandler) Delete(c echo.Context) error {
	id, err := idParam(c, "museumId")
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteMuseum(c.Request().Context(), id); err != nil {
		return httpError(err, msgMuseumNotFound)
	}
	return c.NoContent(http.StatusNoContent)
}
