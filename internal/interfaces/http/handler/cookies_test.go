package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stephanos-estetic/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSameSiteMode(t *testing.T) {
	assert.Equal(t, http.SameSiteStrictMode, sameSiteMode("Strict"))
	assert.Equal(t, http.SameSiteNoneMode, sameSiteMode("none"))
	assert.Equal(t, http.SameSiteLaxMode, sameSiteMode("lax"))
	assert.Equal(t, http.SameSiteLaxMode, sameSiteMode(""))
}

func TestSetCookie(t *testing.T) {
	cfg := config.CookieConfig{Domain: "example.com", Secure: true, SameSite: "strict"}

	cookieFrom := func(t *testing.T, maxAge time.Duration) *http.Cookie {
		t.Helper()
		r := gin.New()
		r.GET("/", func(c *gin.Context) {
			setCookie(c, cfg, "cart_id", "abc", maxAge)
			c.Status(http.StatusNoContent)
		})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		return cookies[0]
	}

	t.Run("set", func(t *testing.T) {
		c := cookieFrom(t, time.Hour)
		assert.Equal(t, "cart_id", c.Name)
		assert.Equal(t, "abc", c.Value)
		assert.Equal(t, 3600, c.MaxAge)
		assert.Equal(t, "/", c.Path)
		assert.True(t, c.HttpOnly)
		assert.True(t, c.Secure)
		assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	})

	t.Run("delete", func(t *testing.T) {
		c := cookieFrom(t, 0)
		assert.Less(t, c.MaxAge, 0)
	})
}
