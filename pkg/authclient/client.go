// Package authclient is a Go client for the museum API that keeps an access
// token fresh. The refresh token lives in the client's cookie jar, as it
// would in a browser.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/sync/singleflight"
)

// ErrRefreshFailed means the session is gone and the caller must log in again.
var ErrRefreshFailed = errors.New("authclient: session expired, login required")

const (
	loginPath   = "/api/auth/login"
	refreshPath = "/api/auth/refresh"
	logoutPath  = "/api/auth/logout"

	refreshTimeout = 10 * time.Second
)

type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
	Name        string `json:"name"`
	Surname     string `json:"surname"`
	Email       string `json:"email"`
	Role        string `json:"role"`
}

type tokenResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// Response is a completed call. The body has already been read into JSON.
type Response struct {
	HTTP *http.Response
	JSON json.RawMessage
}

type Client struct {
	baseURL string
	http    *http.Client
	now     func() time.Time

	mu         sync.Mutex
	token      string
	obtainedAt time.Time
	ttl        time.Duration

	refreshes singleflight.Group
}

// New returns a client for baseURL. A nil hc gets a default client; a client
// without a jar gets one, since the refresh cookie must persist between calls.
func New(baseURL string, hc *http.Client) (*Client, error) {
	if hc == nil {
		hc = &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	if hc.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		hc.Jar = jar
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		now:     time.Now,
	}, nil
}

func (c *Client) setToken(token string, expiresIn int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.obtainedAt = c.now()
	c.ttl = time.Duration(expiresIn) * time.Millisecond
}

func (c *Client) clearToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.ttl = 0
}

func (c *Client) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// TokenExpired reports whether there is no usable access token.
func (c *Client) TokenExpired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token == "" || !c.now().Before(c.obtainedAt.Add(c.ttl))
}

func (c *Client) newRequest(ctx context.Context, method, path string, body []byte, token string) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, token string) (*Response, error) {
	req, err := c.newRequest(ctx, method, path, body, token)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return &Response{HTTP: resp, JSON: raw}, nil
}

func encode(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	return b, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	body, err := encode(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, http.MethodPost, loginPath, body, "")
	if err != nil {
		return nil, err
	}
	if resp.HTTP.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("login failed with status: %d", resp.HTTP.StatusCode)
	}

	var out LoginResponse
	if err := json.Unmarshal(resp.JSON, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	c.setToken(out.AccessToken, out.ExpiresIn)
	return &out, nil
}

// Refresh trades the refresh cookie for a new access token. Any failure drops
// the current token and returns ErrRefreshFailed.
func (c *Client) Refresh(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodPost, refreshPath, nil, "")
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// the session may still be valid; only the caller gave up
			return fmt.Errorf("refresh: %w", err)
		}
		c.clearToken()
		return fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	if resp.HTTP.StatusCode != http.StatusCreated {
		c.clearToken()
		return fmt.Errorf("%w: status %d", ErrRefreshFailed, resp.HTTP.StatusCode)
	}

	var out tokenResponse
	if err := json.Unmarshal(resp.JSON, &out); err != nil || out.AccessToken == "" {
		c.clearToken()
		return fmt.Errorf("%w: bad refresh response", ErrRefreshFailed)
	}
	c.setToken(out.AccessToken, out.ExpiresIn)
	return nil
}

// refreshFrom refreshes unless stale has already been replaced. Concurrent
// callers share a single request, which outlives any one caller's context.
func (c *Client) refreshFrom(ctx context.Context, stale string) error {
	if cur := c.currentToken(); cur != "" && cur != stale {
		return nil
	}
	ch := c.refreshes.DoChan("refresh", func() (any, error) {
		if cur := c.currentToken(); cur != "" && cur != stale {
			return nil, nil
		}
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return nil, c.Refresh(rctx)
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

// AuthFetch sends an authenticated request. On 401 it refreshes once and
// retries once; a second 401 returns ErrRefreshFailed.
func (c *Client) AuthFetch(ctx context.Context, method, path string, body any) (*Response, error) {
	b, err := encode(body)
	if err != nil {
		return nil, err
	}

	token := c.currentToken()
	resp, err := c.do(ctx, method, path, b, token)
	if err != nil {
		return nil, err
	}
	if resp.HTTP.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	if err := c.refreshFrom(ctx, token); err != nil {
		return nil, err
	}

	resp, err = c.do(ctx, method, path, b, c.currentToken())
	if err != nil {
		return nil, err
	}
	if resp.HTTP.StatusCode == http.StatusUnauthorized {
		c.clearToken()
		return nil, ErrRefreshFailed
	}
	return resp, nil
}

// Logout ends the server session and forgets the access token either way.
func (c *Client) Logout(ctx context.Context) error {
	token := c.currentToken()
	defer c.clearToken()

	resp, err := c.do(ctx, http.MethodPost, logoutPath, nil, token)
	if err != nil {
		return err
	}
	if resp.HTTP.StatusCode != http.StatusOK {
		return fmt.Errorf("logout failed with status: %d", resp.HTTP.StatusCode)
	}
	return nil
}
