package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/museum/internal/errs"
	"github.com/Skotchmaster/museum/internal/models"
	"github.com/Skotchmaster/museum/pkg/tokens"
)

func newTestIssuer() *tokens.Issuer {
	return tokens.NewIssuer([]byte("test-access-secret"), []byte("test-refresh-secret"))
}

func accessToken(t *testing.T, iss *tokens.Issuer, id uint, role models.Role) string {
	t.Helper()
	tok, err := iss.IssueAccessToken(id, role)
	require.NoError(t, err)
	return tok.Value
}

func run(t *testing.T, mw echo.MiddlewareFunc, header string) (*httptest.ResponseRecorder, echo.Context, bool, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	err := mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})(c)
	return rec, c, called, err
}

func requireHTTPError(t *testing.T, err error, code int, msg string) {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError, got %v", err)
	assert.Equal(t, code, he.Code)
	assert.Equal(t, msg, he.Message)
}

func TestAuthenticate_Failures(t *testing.T) {
	iss := newTestIssuer()
	a := New(iss)

	expiredIss := newTestIssuer()
	expiredIss.AccessTTL = -time.Minute
	expired := accessToken(t, expiredIss, 1, models.RoleAdmin)

	otherIss := tokens.NewIssuer([]byte("other"), []byte("other-refresh"))
	forged := accessToken(t, otherIss, 1, models.RoleAdmin)

	refresh, err := iss.IssueRefreshToken(1, models.RoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		code   int
		msg    string
	}{
		{name: "missing", header: "", code: http.StatusUnauthorized, msg: MsgMissingToken},
		{name: "not bearer", header: "Basic dXNlcjpwYXNz", code: http.StatusBadRequest, msg: MsgNotBearer},
		{name: "empty bearer", header: "Bearer ", code: http.StatusUnauthorized, msg: MsgMissingToken},
		{name: "expired", header: "Bearer " + expired, code: http.StatusUnauthorized, msg: MsgExpiredToken},
		{name: "garbage", header: "Bearer abc.def.ghi", code: http.StatusUnauthorized, msg: MsgInvalidToken},
		{name: "forged", header: "Bearer " + forged, code: http.StatusUnauthorized, msg: MsgInvalidToken},
		{name: "refresh token", header: "Bearer " + refresh.Value, code: http.StatusUnauthorized, msg: MsgInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, called, err := run(t, a.Authenticate(models.RoleAdmin), tt.header)
			assert.False(t, called)
			requireHTTPError(t, err, tt.code, tt.msg)
		})
	}
}

type failingVerifier struct{}

func (failingVerifier) VerifyAccess(string) (*tokens.Claims, error) {
	return nil, errors.New("key store unavailable")
}

func TestAuthenticate_VerifierFailureIs500(t *testing.T) {
	a := New(failingVerifier{})

	_, c, called, err := run(t, a.Authenticate(models.RoleAdmin), "Bearer anything")
	assert.False(t, called)
	requireHTTPError(t, err, http.StatusInternalServerError, MsgAuthFailed)
	assert.Nil(t, a.CurrentUser(c))
}

func TestAuthenticate_Roles(t *testing.T) {
	iss := newTestIssuer()
	a := New(iss)

	curator := "Bearer " + accessToken(t, iss, 2, models.RoleCurator)
	admin := "Bearer " + accessToken(t, iss, 3, models.RoleAdmin)

	_, _, called, err := run(t, a.Authenticate(models.RoleAdmin), curator)
	assert.False(t, called)
	requireHTTPError(t, err, http.StatusForbidden, MsgInsufficient)

	rec, c, called, err := run(t, a.Authenticate(models.RoleAdmin), admin)
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
	claims, ok := UserFrom(c)
	require.True(t, ok)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, uint(3), MustUserID(c))

	// no hierarchy: an admin is not implicitly a curator
	_, _, _, err = run(t, a.Authenticate(models.RoleCurator), admin)
	requireHTTPError(t, err, http.StatusForbidden, MsgInsufficient)

	_, _, called, err = run(t, a.Authenticate(models.RoleAdmin, models.RoleCurator), curator)
	require.NoError(t, err)
	assert.True(t, called)

	_, _, called, err = run(t, a.Authenticate(), curator)
	require.NoError(t, err)
	assert.True(t, called)
}

func TestAuthorize(t *testing.T) {
	staff := models.NewRoleSet(models.RoleAdmin, models.RoleCurator)

	assert.NoError(t, authorize(&tokens.Claims{Role: models.RoleCurator}, staff))
	assert.ErrorIs(t, authorize(&tokens.Claims{Role: models.RoleGuest}, staff), errs.ErrInsufficientRole)
	assert.ErrorIs(t, authorize(&tokens.Claims{Role: models.RoleAdmin}, models.NewRoleSet()), errs.ErrInsufficientRole)
}

func TestCurrentUser(t *testing.T) {
	iss := newTestIssuer()
	a := New(iss)
	e := echo.New()

	newCtx := func(header string) echo.Context {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set(echo.HeaderAuthorization, header)
		}
		return e.NewContext(req, httptest.NewRecorder())
	}

	assert.Nil(t, a.CurrentUser(newCtx("")))
	assert.Nil(t, a.CurrentUser(newCtx("Token x")))
	assert.Nil(t, a.CurrentUser(newCtx("Bearer garbage")))

	claims := a.CurrentUser(newCtx("Bearer " + accessToken(t, iss, 4, models.RoleGuest)))
	require.NotNil(t, claims)
	assert.Equal(t, models.RoleGuest, claims.Role)
}

type fakeChecker struct {
	allowed map[uint]bool
	err     error
}

func (f fakeChecker) CanEdit(_ context.Context, _ uint, role models.Role, categoryID uint) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return role == models.RoleAdmin || f.allowed[categoryID], nil
}

func TestCategoryAuthorize(t *testing.T) {
	iss := newTestIssuer()
	a := New(iss)
	e := echo.New()
	checker := fakeChecker{allowed: map[uint]bool{7: true}}

	call := func(header, categoryID string) (bool, error) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, header)
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetParamNames("categoryId")
		c.SetParamValues(categoryID)
		called := false
		h := a.Authenticate(models.RoleAdmin, models.RoleCurator)(
			CategoryAuthorize("categoryId", checker)(func(c echo.Context) error {
				called = true
				return nil
			}))
		err := h(c)
		return called, err
	}

	curator := "Bearer " + accessToken(t, iss, 2, models.RoleCurator)
	admin := "Bearer " + accessToken(t, iss, 3, models.RoleAdmin)

	called, err := call(curator, "7")
	require.NoError(t, err)
	assert.True(t, called)

	called, err = call(curator, "8")
	assert.False(t, called)
	requireHTTPError(t, err, http.StatusForbidden, "Access to the resource is forbidden!")

	called, err = call(admin, "8")
	require.NoError(t, err)
	assert.True(t, called)

	_, err = call(curator, "abc")
	requireHTTPError(t, err, http.StatusBadRequest, "Missing category id!")
}
