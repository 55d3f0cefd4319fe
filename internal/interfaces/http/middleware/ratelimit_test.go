package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stephanos-estetic/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
)

func newTestLimiter(t *testing.T, limit int, window time.Duration) (*RateLimiter, *time.Time) {
	t.Helper()
	limiter := NewRateLimiter(limit, window)
	t.Cleanup(limiter.Stop)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	return limiter, &now
}

func TestRateLimiter(t *testing.T) {
	t.Run("blocks after limit", func(t *testing.T) {
		limiter, _ := newTestLimiter(t, 3, time.Minute)

		for i := 0; i < 3; i++ {
			assert.True(t, limiter.Allow("10.0.0.1"), "request %d", i+1)
		}
		assert.False(t, limiter.Allow("10.0.0.1"))
		assert.Equal(t, 0, limiter.Remaining("10.0.0.1"))
	})

	t.Run("separate limits per client", func(t *testing.T) {
		limiter, _ := newTestLimiter(t, 1, time.Minute)

		assert.True(t, limiter.Allow("a"))
		assert.False(t, limiter.Allow("a"))
		assert.True(t, limiter.Allow("b"))
	})

	t.Run("resets after window", func(t *testing.T) {
		limiter, now := newTestLimiter(t, 1, time.Minute)

		assert.True(t, limiter.Allow("a"))
		assert.False(t, limiter.Allow("a"))
		assert.Equal(t, 60, limiter.retryAfter("a"))

		*now = now.Add(61 * time.Second)
		assert.Equal(t, 1, limiter.Remaining("a"))
		assert.True(t, limiter.Allow("a"))
	})

	t.Run("concurrent use", func(t *testing.T) {
		limiter, _ := newTestLimiter(t, 50, time.Minute)

		var wg sync.WaitGroup
		var mu sync.Mutex
		allowed := 0
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if limiter.Allow("shared") {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 50, allowed)
	})

	t.Run("stop is idempotent", func(t *testing.T) {
		limiter := NewRateLimiter(1, time.Second)
		limiter.Stop()
		limiter.Stop()
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter, _ := newTestLimiter(t, 2, time.Minute)
	router := gin.New()
	router.Use(RateLimit(limiter))
	router.POST("/auth/login", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "192.0.2.10:5555"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := send()
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, send().Code)

	w = send()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), dto.ErrCodeRateLimited)
}
