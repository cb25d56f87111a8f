package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/museum/internal/errs"
	"github.com/Skotchmaster/museum/internal/logging"
	authmw "github.com/Skotchmaster/museum/internal/middleware/auth"
	"github.com/Skotchmaster/museum/internal/service"
	"github.com/Skotchmaster/museum/internal/transport"
)

const (
	MsgMissingRefresh = "Missing a refresh token!"
	MsgRefreshReuse   = "Refresh token reuse detected!"
	MsgRefreshInvalid = "Invalid or expired refresh token"
	MsgBadCredentials = "email or password is incorrect!"
	MsgEmailTaken     = "user with that email already exists!"
)

type AuthHandler struct {
	Svc     *service.AuthService
	Cookies CookieConfig
}

func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req transport.RegisterRequest
	if err := bind(c, &req); err != nil {
		l.Warnw("register_rejected", "reason", "invalid body", "error", err)
		return err
	}

	_, err := h.Svc.Register(ctx, service.RegisterInput{
		Name:     req.Name,
		Surname:  req.Surname,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, errs.ErrConflict) {
			return echo.NewHTTPError(http.StatusConflict, MsgEmailTaken)
		}
		return err
	}

	l.Infow("register_successful")
	return c.NoContent(http.StatusCreated)
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := bind(c, &req); err != nil {
		l.Warnw("login_rejected", "reason", "invalid body", "error", err)
		return err
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, errs.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusBadRequest, MsgBadCredentials)
		}
		return err
	}

	c.SetCookie(h.Cookies.CreateCookie(res.Refresh.Value, res.Refresh.ExpiresAt))
	l.Infow("login_successful", "user_id", res.User.ID)

	return c.JSON(http.StatusOK, transport.LoginResponse{
		AccessToken: res.Access.Value,
		ExpiresIn:   res.Access.ExpiresInMillis(),
		Name:        res.User.Name,
		Surname:     res.User.Surname,
		Email:       res.User.Email,
		Role:        res.User.Role,
	})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	cookie, err := c.Cookie(RefreshCookie)
	if err != nil || cookie.Value == "" {
		l.Warnw("refresh_failed", "status", 403, "reason", "no cookie")
		return echo.NewHTTPError(http.StatusForbidden, MsgMissingRefresh)
	}

	res, err := h.Svc.Refresh(ctx, cookie.Value)
	if err != nil {
		return err
	}

	if err := res.Outcome.Err(); err != nil {
		c.SetCookie(h.Cookies.DeleteCookie())
		if errors.Is(err, errs.ErrRefreshReuse) {
			l.Warnw("refresh_failed", "status", 403, "reason", "reuse", "user_id", res.UserID)
			return echo.NewHTTPError(http.StatusForbidden, MsgRefreshReuse)
		}
		l.Warnw("refresh_failed", "status", 403, "reason", "invalid token")
		return echo.NewHTTPError(http.StatusForbidden, MsgRefreshInvalid)
	}

	// set only once the store has committed the rotation
	c.SetCookie(h.Cookies.CreateCookie(res.Refresh.Value, res.Refresh.ExpiresAt))
	return c.JSON(http.StatusCreated, transport.RefreshResponse{
		AccessToken: res.Access.Value,
		ExpiresIn:   res.Access.ExpiresInMillis(),
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	userID := authmw.MustUserID(c)
	var rt string
	if cookie, err := c.Cookie(RefreshCookie); err == nil {
		rt = cookie.Value
	}

	if err := h.Svc.Logout(ctx, userID, rt); err != nil {
		c.SetCookie(h.Cookies.DeleteCookie())
		l.Errorw("logout_failed", "status", 500, "reason", "cannot revoke refresh token", "error", err)
		return err
	}

	c.SetCookie(h.Cookies.DeleteCookie())
	l.Infow("successful_logout", "user_id", userID)
	return c.NoContent(http.StatusOK)
}

func (h *AuthHandler) Me(c echo.Context) error {
	ctx := c.Request().Context()
	user, err := h.Svc.Me(ctx, authmw.MustUserID(c))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return err
	}
	return c.JSON(http.StatusOK, user)
}
