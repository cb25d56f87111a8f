package handlers

import (
	"net/http"
	"time"
)

const RefreshCookie = "refreshToken"

// CookieConfig controls the attributes of the refresh token cookie.
type CookieConfig struct {
	SameSite string
	Secure   bool
	Path     string
	// Now overrides the clock used for MaxAge, nil means time.Now.
	Now func() time.Time
}

func (cc CookieConfig) sameSite() http.SameSite {
	switch cc.SameSite {
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteStrictMode
	}
}

func (cc CookieConfig) path() string {
	if cc.Path == "" {
		return "/"
	}
	return cc.Path
}

// CreateCookie builds the refresh cookie living exactly as long as the token.
// SameSite=None is only accepted by browsers together with Secure.
func (cc CookieConfig) CreateCookie(value string, exp time.Time) *http.Cookie {
	now := time.Now
	if cc.Now != nil {
		now = cc.Now
	}
	maxAge := int(exp.Sub(now()).Seconds())
	if maxAge < 1 {
		maxAge = -1
	}
	ss := cc.sameSite()
	return &http.Cookie{
		Name:     RefreshCookie,
		Value:    value,
		Path:     cc.path(),
		Expires:  exp,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   cc.Secure || ss == http.SameSiteNoneMode,
		SameSite: ss,
	}
}

func (cc CookieConfig) DeleteCookie() *http.Cookie {
	ss := cc.sameSite()
	return &http.Cookie{
		Name:     RefreshCookie,
		Value:    "",
		Path:     cc.path(),
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cc.Secure || ss == http.SameSiteNoneMode,
		SameSite: ss,
	}
}
