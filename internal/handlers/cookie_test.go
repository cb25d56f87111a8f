package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCreateCookie(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	cc := CookieConfig{SameSite: "lax", Path: "/api/auth", Now: func() time.Time { return now }}

	ck := cc.CreateCookie("rt-value", now.Add(7*24*time.Hour))
	assert.Equal(t, RefreshCookie, ck.Name)
	assert.Equal(t, "rt-value", ck.Value)
	assert.Equal(t, "/api/auth", ck.Path)
	assert.Equal(t, 7*24*60*60, ck.MaxAge)
	assert.True(t, ck.HttpOnly)
	assert.False(t, ck.Secure)
	assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)

	expired := cc.CreateCookie("rt-value", now.Add(-time.Second))
	assert.Equal(t, -1, expired.MaxAge)
}

func TestCookieSameSite(t *testing.T) {
	assert.Equal(t, http.SameSiteStrictMode, CookieConfig{}.CreateCookie("v", time.Now().Add(time.Hour)).SameSite)

	none := CookieConfig{SameSite: "none"}.CreateCookie("v", time.Now().Add(time.Hour))
	assert.Equal(t, http.SameSiteNoneMode, none.SameSite)
	assert.True(t, none.Secure)
	assert.Equal(t, "/", none.Path)
}

func TestDeleteCookie(t *testing.T) {
	ck := CookieConfig{Secure: true, Path: "/api/auth"}.DeleteCookie()
	assert.Equal(t, RefreshCookie, ck.Name)
	assert.Empty(t, ck.Value)
	assert.Equal(t, -1, ck.MaxAge)
	assert.True(t, ck.Secure)
	assert.Equal(t, "/api/auth", ck.Path)
}
