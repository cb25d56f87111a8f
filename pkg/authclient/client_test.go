package authclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI issues numbered access tokens and accepts only the latest one.
type fakeAPI struct {
	mu        sync.Mutex
	valid     string
	issued    int
	refreshOK bool
	delay     time.Duration

	refreshes atomic.Int32
	calls     atomic.Int32
}

func (f *fakeAPI) issue() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issued++
	f.valid = fmt.Sprintf("access-%d", f.issued)
	return f.valid
}

func (f *fakeAPI) expire() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.valid = "nobody-has-this"
}

func (f *fakeAPI) accepts(r *http.Request) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return r.Header.Get("Authorization") == "Bearer "+f.valid
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "refreshToken", Value: "rt", Path: "/api/auth", HttpOnly: true})
		_ = json.NewEncoder(w).Encode(LoginResponse{AccessToken: f.issue(), ExpiresIn: 60_000, Email: "alice@example.com", Role: "GUEST"})
	})
	mux.HandleFunc("POST /api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		f.refreshes.Add(1)
		time.Sleep(f.delay)
		if ck, err := r.Cookie("refreshToken"); err != nil || ck.Value != "rt" || !f.refreshOK {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(tokenResponse{AccessToken: f.issue(), ExpiresIn: 60_000})
	})
	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		if !f.accepts(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "refreshToken", Value: "", Path: "/api/auth", MaxAge: -1})
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/museums", func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		if !f.accepts(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	return mux
}

func newTestClient(t *testing.T, api *fakeAPI) *Client {
	t.Helper()
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, nil)
	require.NoError(t, err)
	_, err = c.Login(context.Background(), "alice@example.com", "password1")
	require.NoError(t, err)
	return c
}

func TestAuthFetch_NoRefreshWhileValid(t *testing.T) {
	api := &fakeAPI{refreshOK: true}
	c := newTestClient(t, api)

	resp, err := c.AuthFetch(context.Background(), http.MethodGet, "/api/museums", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.HTTP.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, string(resp.JSON))
	assert.Zero(t, api.refreshes.Load())
	assert.Equal(t, int32(1), api.calls.Load())
}

func TestAuthFetch_RefreshesOnceAndRetries(t *testing.T) {
	api := &fakeAPI{refreshOK: true}
	c := newTestClient(t, api)
	api.expire()

	resp, err := c.AuthFetch(context.Background(), http.MethodGet, "/api/museums", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.HTTP.StatusCode)
	assert.Equal(t, int32(1), api.refreshes.Load())
	assert.Equal(t, int32(2), api.calls.Load())
	assert.Equal(t, "access-2", c.currentToken())
}

func TestAuthFetch_RefreshFailure(t *testing.T) {
	api := &fakeAPI{refreshOK: false}
	c := newTestClient(t, api)
	api.expire()

	_, err := c.AuthFetch(context.Background(), http.MethodGet, "/api/museums", nil)
	assert.ErrorIs(t, err, ErrRefreshFailed)
	assert.Equal(t, int32(1), api.refreshes.Load())
	assert.Equal(t, int32(1), api.calls.Load())
	assert.True(t, c.TokenExpired())
}

func TestAuthFetch_RetryStillUnauthorized(t *testing.T) {
	api := &fakeAPI{refreshOK: true}
	mux := http.NewServeMux()
	mux.Handle("/api/auth/", api.handler())
	mux.HandleFunc("/api/museums", func(w http.ResponseWriter, r *http.Request) {
		api.calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, nil)
	require.NoError(t, err)
	_, err = c.Login(context.Background(), "alice@example.com", "password1")
	require.NoError(t, err)

	_, err = c.AuthFetch(context.Background(), http.MethodGet, "/api/museums", nil)
	assert.ErrorIs(t, err, ErrRefreshFailed)
	assert.Equal(t, int32(1), api.refreshes.Load())
	assert.Equal(t, int32(2), api.calls.Load())
}

func TestAuthFetch_ConcurrentUnauthorizedShareRefresh(t *testing.T) {
	api := &fakeAPI{refreshOK: true, delay: 50 * time.Millisecond}
	c := newTestClient(t, api)
	api.expire()

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := c.AuthFetch(context.Background(), http.MethodGet, "/api/museums", nil)
			if err == nil && resp.HTTP.StatusCode != http.StatusOK {
				err = fmt.Errorf("status %d", resp.HTTP.StatusCode)
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), api.refreshes.Load())
}

func TestAuthFetch_CancelledCallerDoesNotFailSharedRefresh(t *testing.T) {
	api := &fakeAPI{refreshOK: true, delay: 300 * time.Millisecond}
	c := newTestClient(t, api)
	api.expire()

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	errA := make(chan error, 1)
	go func() {
		_, err := c.AuthFetch(ctxA, http.MethodGet, "/api/museums", nil)
		errA <- err
	}()
	require.Eventually(t, func() bool { return api.refreshes.Load() == 1 }, 2*time.Second, 5*time.Millisecond)

	type result struct {
		resp *Response
		err  error
	}
	resB := make(chan result, 1)
	go func() {
		resp, err := c.AuthFetch(context.Background(), http.MethodGet, "/api/museums", nil)
		resB <- result{resp, err}
	}()
	require.Eventually(t, func() bool { return api.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancelA()

	err := <-errA
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, ErrRefreshFailed))

	b := <-resB
	require.NoError(t, b.err)
	assert.Equal(t, http.StatusOK, b.resp.HTTP.StatusCode)
	assert.Equal(t, int32(1), api.refreshes.Load())
	assert.False(t, c.TokenExpired())
}

func TestRefresh_CancelledKeepsToken(t *testing.T) {
	api := &fakeAPI{refreshOK: true}
	c := newTestClient(t, api)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.Refresh(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, ErrRefreshFailed))
	assert.False(t, c.TokenExpired())
}

func TestTokenExpired(t *testing.T) {
	api := &fakeAPI{refreshOK: true}
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, nil)
	require.NoError(t, err)
	assert.True(t, c.TokenExpired())

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	_, err = c.Login(context.Background(), "alice@example.com", "password1")
	require.NoError(t, err)
	assert.False(t, c.TokenExpired())

	now = now.Add(59 * time.Second)
	assert.False(t, c.TokenExpired())
	now = now.Add(time.Second)
	assert.True(t, c.TokenExpired())
}

func TestLogout(t *testing.T) {
	api := &fakeAPI{refreshOK: true}
	c := newTestClient(t, api)

	require.NoError(t, c.Logout(context.Background()))
	assert.True(t, c.TokenExpired())

	// the jar dropped the refresh cookie
	assert.ErrorIs(t, c.Refresh(context.Background()), ErrRefreshFailed)
}
