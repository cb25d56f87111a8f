// Package auth holds the echo middleware guarding routes with bearer access
// tokens and role allow-lists.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/museum/internal/errs"
	"github.com/Skotchmaster/museum/internal/logging"
	"github.com/Skotchmaster/museum/internal/models"
	"github.com/Skotchmaster/museum/pkg/tokens"
)

const (
	MsgMissingToken = "Missing Access Token!"
	MsgNotBearer    = "Access token must be a Bearer!"
	MsgExpiredToken = "Expired access token"
	MsgInvalidToken = "Invalid access token"
	MsgAuthFailed   = "Failed to authenticate!"
	MsgInsufficient = "Insufficient privileges!"

	bearerPrefix = "Bearer "
	ctxClaims    = "auth.claims"
)

type Verifier interface {
	VerifyAccess(token string) (*tokens.Claims, error)
}

type Authenticator struct {
	Tokens Verifier
}

func New(v Verifier) *Authenticator {
	return &Authenticator{Tokens: v}
}

// bearer extracts the token from the Authorization header.
func bearer(c echo.Context) (string, error) {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if h == "" {
		return "", errs.ErrMissingToken
	}
	if !strings.HasPrefix(h, bearerPrefix) {
		return "", errs.ErrMalformedScheme
	}
	token := strings.TrimSpace(strings.TrimPrefix(h, bearerPrefix))
	if token == "" {
		return "", errs.ErrMissingToken
	}
	return token, nil
}

func (a *Authenticator) verify(c echo.Context) (*tokens.Claims, error) {
	token, err := bearer(c)
	if err != nil {
		return nil, err
	}
	return a.Tokens.VerifyAccess(token)
}

// Authenticate admits requests carrying a valid access token whose role is in
// roles. Roles have no ordering: list every role the route admits. With no
// roles any authenticated user is admitted.
func (a *Authenticator) Authenticate(roles ...models.Role) echo.MiddlewareFunc {
	allowed := models.NewRoleSet(roles...)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			l := logging.FromContext(c.Request().Context()).With("middleware", "authenticate")

			claims, err := a.verify(c)
			switch {
			case err == nil:
			case errors.Is(err, errs.ErrMissingToken):
				return echo.NewHTTPError(http.StatusUnauthorized, MsgMissingToken)
			case errors.Is(err, errs.ErrMalformedScheme):
				return echo.NewHTTPError(http.StatusBadRequest, MsgNotBearer)
			case errors.Is(err, errs.ErrTokenExpired):
				return echo.NewHTTPError(http.StatusUnauthorized, MsgExpiredToken)
			case errors.Is(err, errs.ErrTokenInvalid):
				l.Warnw("auth_failed", "status", 401, "reason", "invalid token", "error", err)
				return echo.NewHTTPError(http.StatusUnauthorized, MsgInvalidToken)
			default:
				l.Errorw("auth_failed", "status", 500, "error", err)
				return echo.NewHTTPError(http.StatusInternalServerError, MsgAuthFailed)
			}

			if len(roles) > 0 {
				if err := authorize(claims, allowed); err != nil {
					l.Warnw("auth_failed", "status", 403, "error", err, "user", claims.Subject)
					return echo.NewHTTPError(http.StatusForbidden, MsgInsufficient)
				}
			}

			c.Set(ctxClaims, claims)
			return next(c)
		}
	}
}

func authorize(claims *tokens.Claims, allowed models.RoleSet) error {
	if allowed.Contains(claims.Role) {
		return nil
	}
	return fmt.Errorf("%w: role %s", errs.ErrInsufficientRole, claims.Role)
}

// CurrentUser verifies the request's access token if there is one. It never
// responds; any failure yields nil.
func (a *Authenticator) CurrentUser(c echo.Context) *tokens.Claims {
	if claims, ok := UserFrom(c); ok {
		return claims
	}
	claims, err := a.verify(c)
	if err != nil {
		return nil
	}
	return claims
}

// UserFrom returns the claims stored by Authenticate.
func UserFrom(c echo.Context) (*tokens.Claims, bool) {
	claims, ok := c.Get(ctxClaims).(*tokens.Claims)
	return claims, ok && claims != nil
}

// MustUserID returns the authenticated user's id, or 0 when Authenticate did not run.
func MustUserID(c echo.Context) uint {
	claims, ok := UserFrom(c)
	if !ok {
		return 0
	}
	id, err := claims.UserID()
	if err != nil {
		return 0
	}
	return id
}
