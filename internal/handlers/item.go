package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/museum/internal/logging"
	authmw "github.com/Skotchmaster/museum/internal/middleware/auth"
	"github.com/Skotchmaster/museum/internal/repo"
	"github.com/Skotchmaster/museum/internal/service"
	"github.com/Skotchmaster/museum/internal/transport"
	"github.com/Skotchmaster/museum/internal/util"
)

const msgItemNotFound = "item not found"

type ItemHandler struct {
	Svc  *service.CatalogService
	Auth *authmw.Authenticator
}

func (h *ItemHandler) scope(c echo.Context) (museumID, categoryID uint, err error) {
	if museumID, err = idParam(c, "museumId"); err != nil {
		return 0, 0, err
	}
	if categoryID, err = idParam(c, "categoryId"); err != nil {
		return 0, 0, err
	}
	return museumID, categoryID, nil
}

func (h *ItemHandler) List(c echo.Context) error {
	museumID, categoryID, err := h.scope(c)
	if err != nil {
		return err
	}
	p := page(c)
	size := util.ClampItemPageSize(util.ParseIntDefault(c.QueryParam("pageSize"), util.DefaultItemPageSize))
	offset, limit := util.Calculate(p, size)

	total, items, err := h.Svc.ListItems(c.Request().Context(), museumID, categoryID, offset, limit)
	if err != nil {
		return httpError(err, msgCategoryNotFound)
	}
	return list(c, p, offset, limit, total, items)
}

// Get is public. canEdit is true only for a caller who may change the item.
func (h *ItemHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	museumID, categoryID, err := h.scope(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	item, err := h.Svc.GetItem(ctx, museumID, categoryID, id)
	if err != nil {
		return httpError(err, msgItemNotFound)
	}

	canEdit := false
	if claims := h.Auth.CurrentUser(c); claims != nil {
		if userID, err := claims.UserID(); err == nil {
			canEdit, err = h.Svc.CanEdit(ctx, userID, claims.Role, categoryID)
			if err != nil {
				logging.FromContext(ctx).Warnw("can_edit_failed", "user_id", userID, "error", err)
				canEdit = false
			}
		}
	}
	return c.JSON(http.StatusOK, transport.ItemResponse{Item: *item, CanEdit: canEdit})
}

func (h *ItemHandler) Create(c echo.Context) error {
	museumID, categoryID, err := h.scope(c)
	if err != nil {
		return err
	}
	var req transport.ItemRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	item, err := h.Svc.CreateItem(c.Request().Context(), museumID, categoryID, req.Title, req.Description)
	if err != nil {
		return httpError(err, msgCategoryNotFound)
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *ItemHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()
	museumID, categoryID, err := h.scope(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req transport.ItemRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	claims, ok := authmw.UserFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "Missing a user!")
	}
	item, err := h.Svc.UpdateItem(ctx, authmw.MustUserID(c), claims.Role, museumID, categoryID, id, repo.ItemPatch{
		Title:       &req.Title,
		Description: &req.Description,
		CategoryID:  req.NewCategoryID,
	})
	if err != nil {
		return httpError(err, msgItemNotFound)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *ItemHandler) Delete(c echo.Context) error {
	museumID, categoryID, err := h.scope(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteItem(c.Request().Context(), museumID, categoryID, id); err != nil {
		return httpError(err, msgItemNotFound)
	}
	return c.NoContent(http.StatusNoContent)
}
