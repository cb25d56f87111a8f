package csrf

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware(t *testing.T) {
	mw := Middleware(Config{AllowedOrigins: []string{"https://app.example.com/"}})
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	tests := []struct {
		name    string
		method  string
		headers map[string]string
		wantErr bool
	}{
		{"no origin", http.MethodPost, nil, false},
		{"safe method from elsewhere", http.MethodGet, map[string]string{"Origin": "https://evil.example"}, false},
		{"same origin", http.MethodPost, map[string]string{"Origin": "http://museum.local"}, false},
		{"allowed origin", http.MethodPost, map[string]string{"Origin": "https://APP.example.com"}, false},
		{"forwarded https", http.MethodPost, map[string]string{"Origin": "https://museum.local", "X-Forwarded-Proto": "https"}, false},
		{"foreign origin", http.MethodPost, map[string]string{"Origin": "https://evil.example"}, true},
		{"foreign referer", http.MethodPost, map[string]string{"Referer": "https://evil.example/page"}, true},
		{"same site referer", http.MethodPost, map[string]string{"Referer": "http://museum.local/login"}, false},
		{"garbage origin", http.MethodPost, map[string]string{"Origin": "::"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(tt.method, "http://museum.local/api/auth/refresh", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			c := e.NewContext(req, httptest.NewRecorder())

			err := mw(ok)(c)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var he *echo.HTTPError
			if assert.ErrorAs(t, err, &he) {
				assert.Equal(t, http.StatusForbidden, he.Code)
				assert.Equal(t, MsgInvalidOrigin, he.Message)
			}
		})
	}
}
