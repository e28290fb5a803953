package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/awschultz/locationmodel/common/ratelimit"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

type fakeLimiter struct {
	counts map[string]int64
	err    error
}

func (f *fakeLimiter) Allow(_ context.Context, key string, limit int64, _ time.Duration) (*ratelimit.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.counts[key]++
	n := f.counts[key]
	if n > limit {
		return &ratelimit.Result{Allowed: false, CurrentCount: n, Limit: limit, RetryAfterSeconds: 30}, nil
	}
	return &ratelimit.Result{Allowed: true, CurrentCount: n, Limit: limit}, nil
}

// serve runs h for one request from remoteIP, with username set the way
// ExtractUsername sets it
func serve(h echo.HandlerFunc, remoteIP, username string) int {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = remoteIP + ":40000"
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if username != "" {
		c.Set("username", username)
	}
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec.Code
}

func ok(c echo.Context) error {
	return c.NoContent(http.StatusAccepted)
}

func TestRateLimitMiddleware_BlocksOverLimit(t *testing.T) {
	limiter := &fakeLimiter{counts: map[string]int64{}}
	h := RateLimitMiddleware(limiter, "rebuild", 2, time.Minute)(ok)

	assert.Equal(t, http.StatusAccepted, serve(h, "192.0.2.1", "alice"))
	assert.Equal(t, http.StatusAccepted, serve(h, "192.0.2.1", "alice"))
	assert.Equal(t, http.StatusTooManyRequests, serve(h, "192.0.2.1", "alice"))

	// separate counter per client
	assert.Equal(t, http.StatusAccepted, serve(h, "192.0.2.7", "alice"))
	assert.Contains(t, limiter.counts, "rebuild:ip:192.0.2.7")
}

func TestRateLimitMiddleware_UsernameDoesNotSelectCounter(t *testing.T) {
	limiter := &fakeLimiter{counts: map[string]int64{}}
	h := RateLimitMiddleware(limiter, "rebuild", 2, time.Minute)(ok)

	assert.Equal(t, http.StatusAccepted, serve(h, "192.0.2.1", "a"))
	assert.Equal(t, http.StatusAccepted, serve(h, "192.0.2.1", "b"))
	assert.Equal(t, http.StatusTooManyRequests, serve(h, "192.0.2.1", "c"))
	assert.Equal(t, http.StatusTooManyRequests, serve(h, "192.0.2.1", ""))

	assert.Equal(t, map[string]int64{"rebuild:ip:192.0.2.1": 4}, limiter.counts)
}

func TestRateLimitMiddleware_FailsOpen(t *testing.T) {
	limiter := &fakeLimiter{counts: map[string]int64{}, err: errors.New("redis down")}
	h := RateLimitMiddleware(limiter, "rebuild", 1, time.Minute)(ok)

	assert.Equal(t, http.StatusAccepted, serve(h, "192.0.2.1", "alice"))
	assert.Equal(t, http.StatusAccepted, serve(h, "192.0.2.1", "alice"))
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	limiter := &fakeLimiter{counts: map[string]int64{}}
	h := RateLimitMiddleware(limiter, "rebuild", 0, time.Minute)(ok)

	assert.Equal(t, http.StatusAccepted, serve(h, "192.0.2.1", "alice"))
	assert.Empty(t, limiter.counts)
}
