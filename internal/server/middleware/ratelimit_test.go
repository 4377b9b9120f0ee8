package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/agentstation/homewire/pkg/logging"
)

func TestRateLimiterAllow(t *testing.T) {
	tests := []struct {
		name     string
		limit    int
		requests int
		want     int
	}{
		{"within limit", 10, 5, 5},
		{"at limit", 10, 10, 10},
		{"exceeds limit", 10, 15, 10},
		{"zero limit", 0, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := NewRateLimiter(tt.limit, logging.NewNopLogger())
			allowed := 0
			for i := 0; i < tt.requests; i++ {
				if rl.allow("192.168.1.1") {
					allowed++
				}
			}
			assert.Equal(t, tt.want, allowed)
		})
	}
}

func TestRateLimiterPerIP(t *testing.T) {
	rl := NewRateLimiter(1, logging.NewNopLogger())
	assert.True(t, rl.allow("10.0.0.1"))
	assert.False(t, rl.allow("10.0.0.1"))
	assert.True(t, rl.allow("10.0.0.2"))
	assert.Equal(t, 2, rl.Visitors())
}

func TestRateLimiterWindowReset(t *testing.T) {
	rl := NewRateLimiter(1, logging.NewNopLogger())
	rl.interval = 20 * time.Millisecond

	assert.True(t, rl.allow("10.0.0.1"))
	assert.False(t, rl.allow("10.0.0.1"))
	time.Sleep(30 * time.Millisecond)
	assert.True(t, rl.allow("10.0.0.1"))
}

func TestRateLimiterConcurrent(t *testing.T) {
	rl := NewRateLimiter(50, logging.NewNopLogger())

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.allow("10.0.0.1") {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}

func TestRateLimitMiddleware(t *testing.T) {
	tl := logging.NewTestLogger(t)
	handler := RateLimit(NewRateLimiter(2, tl.Logger))(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/events", nil)
		req.RemoteAddr = "10.0.0.9:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			assert.Equal(t, "60", rec.Header().Get("Retry-After"))
			assert.Contains(t, rec.Body.String(), "RATE_LIMITED")
		}
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	tl.AssertContains(t, "Rate limit exceeded")
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.2.3:4444"
	assert.Equal(t, "10.1.2.3", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	assert.Equal(t, "203.0.113.5", clientIP(req))

	req.Header.Del("X-Forwarded-For")
	req.RemoteAddr = "pipe"
	assert.Equal(t, "pipe", clientIP(req))
}
