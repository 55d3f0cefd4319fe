package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestProfilingWithConfig(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		cfg := DefaultProfilingConfig()
		cfg.Enabled = enabled

		var labels []string
		router := gin.New()
		router.Use(ProfilingWithConfig(cfg))
		router.GET("/api/v1/services/:slug/slots", func(c *gin.Context) {
			labels = profilingLabels(c)
			c.Status(http.StatusOK)
		})
		router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/services/facial/slots", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{
			ProfilingLabelMethod, "GET",
			ProfilingLabelRoute, "/api/v1/services/:slug/slots",
			ProfilingLabelController, "services",
		}, labels)

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestControllerFromRoute(t *testing.T) {
	tests := map[string]string{
		"/api/v1/cart/items/:id":     "cart",
		"/api/v1/orders/:id/receipt": "orders",
		"/api/v2/auth/login":         "auth",
		"/health":                    "health",
		"/api/v1/:id":                "",
		"":                           "",
	}
	for route, want := range tests {
		assert.Equal(t, want, controllerFromRoute(route), route)
	}
}

func TestIsVersionSegment(t *testing.T) {
	assert.True(t, isVersionSegment("v1"))
	assert.True(t, isVersionSegment("V12"))
	assert.False(t, isVersionSegment("v"))
	assert.False(t, isVersionSegment("vip"))
	assert.False(t, isVersionSegment("orders"))
}
