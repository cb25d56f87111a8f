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

const msgCategoryNotFound = "category not found"

type CategoryHandler struct {
	Svc *service.CatalogService
}

func (h *CategoryHandler) List(c echo.Context) error {
	museumID, err := idParam(c, "museumId")
	if err != nil {
		return err
	}
	p := page(c)
	offset, limit := util.Calculate(p, util.DefaultPageSize)

	total, cats, err := h.Svc.ListCategories(c.Request().Context(), museumID, offset, limit)
	if err != nil {
		return httpError(err, msgMuseumNotFound)
	}
	return list(c, p, offset, limit, total, cats)
}

func (h *CategoryHandler) Search(c echo.Context) error {
	museumID, err := idParam(c, "museumId")
	if err != nil {
		return err
	}
	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter q is required")
	}
	p := page(c)
	offset, limit := util.Calculate(p, util.DefaultPageSize)

	total, cats, err := h.Svc.SearchCategories(c.Request().Context(), museumID, q, offset, limit)
	if err != nil {
		return httpError(err, msgMuseumNotFound)
	}
	return list(c, p, offset, limit, total, cats)
}

func (h *CategoryHandler) Get(c echo.Context) error {
	museumID, err := idParam(c, "museumId")
	if err != nil {
		return err
	}
	id, err := idParam(c, "categoryId")
	if err != nil {
		return err
	}
	cat, err := h.Svc.GetCategory(c.Request().Context(), museumID, id)
	if err != nil {
		return httpError(err, msgCategoryNotFound)
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *CategoryHandler) Create(c echo.Context) error {
	museumID, err := idParam(c, "museumId")
	if err != nil {
		return err
	}
	var req transport.CategoryRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	cat, err := h.Svc.CreateCategory(c.Request().Context(), museumID, req.Name, req.Description)
	if err != nil {
		return httpError(err, msgMuseumNotFound)
	}
	return c.JSON(http.StatusCreated, cat)
}

func (h *CategoryHandler) Update(c echo.Context) error {
	museumID, err := idParam(c, "museumId")
	if err != nil {
		return err
	}
	id, err := idParam(c, "categoryId")
	if err != nil {
		return err
	}
	var req transport.CategoryRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	cat, err := h.Svc.UpdateCategory(c.Request().Context(), museumID, id, repo.CategoryPatch{
		Name:        &req.Name,
		Description: &req.Description,
	})
	if err != nil {
		return httpError(err, msgCategoryNotFound)
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *CategoryHandler) Delete(c echo.Context) error {
	museumID, err := idParam(c, "museumId")
	if err != nil {
		return err
	}
	id, err := idParam(c, "categoryId")
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteCategory(c.Request().Context(), museumID, id); err != nil {
		return httpError(err, msgCategoryNotFound)
	}
	return c.NoContent(http.StatusNoContent)
}

// Users lists the curators assigned to a category.
func (h *CategoryHandler) Users(c echo.Context) error {
	museumID, err := idParam(c, "museumId")
	if err != nil {
		return err
	}
	id, err := idParam(c, "categoryId")
	if err != nil {
		return err
	}
	users, err := h.Svc.CategoryUsers(c.Request().Context(), museumID, id)
	if err != nil {
		return httpError(err, msgCategoryNotFound)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": users})
}

func (h *CategoryHandler) AddUser(c echo.Context) error {
	ctx := c.Request().Context()
	museumID, err := idParam(c, "museumId")
	if err != nil {
		return err
	}
	id, err := idParam(c, "categoryId")
	if err != nil {
		return err
	}
	var req transport.AddUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.Svc.AddCurator(ctx, museumID, id, req.UserID); err != nil {
		return httpError(err, "category or user not found")
	}
	logging.FromContext(ctx).Infow("curator_assigned", "category_id", id, "user_id", req.UserID)
	return c.NoContent(http.StatusCreated)
}

func (h *CategoryHandler) RemoveUser(c echo.Context) error {
	ctx := c.Request().Context()
	museumID, err := idParam(c, "museumId")
	if err != nil {
		return err
	}
	id, err := idParam(c, "categoryId")
	if err != nil {
		return err
	}
	userID, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.Svc.RemoveCurator(ctx, museumID, id, userID); err != nil {
		return httpError(err, "curator assignment not found")
	}
	logging.FromContext(ctx).Infow("curator_removed", "category_id", id, "user_id", userID)
	return c.NoContent(http.StatusNoContent)
}
