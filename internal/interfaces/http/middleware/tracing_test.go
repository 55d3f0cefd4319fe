package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func tracedRouter(t *testing.T, handler gin.HandlerFunc, extra ...gin.HandlerFunc) (*gin.Engine, *tracetest.SpanRecorder) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(t.Context()) })

	router := gin.New()
	router.Use(RequestID(), TracingWithConfig(TracingConfig{Enabled: true, ServiceName: "storefront-test", TracerProvider: tp}))
	router.Use(extra...)
	router.Use(SpanEnricher())
	router.GET("/api/v1/orders/:id", handler)
	return router, sr
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracing_SpanPerRoute(t *testing.T) {
	router, sr := tracedRouter(t, func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/42", nil)
	req.Header.Set(RequestIDHeader, "req-trace-1")
	router.ServeHTTP(httptest.NewRecorder(), req)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /api/v1/orders/:id", spans[0].Name())
	v, ok := spanAttr(spans[0], "request_id")
	require.True(t, ok)
	assert.Equal(t, "req-trace-1", v.AsString())
	_, ok = spanAttr(spans[0], "user_id")
	assert.False(t, ok)
}

func TestTracing_UserAttribute(t *testing.T) {
	setUser := func(c *gin.Context) {
		c.Set(JWTUserIDKey, "0b0c6d52-08c5-4a2e-9e53-f1b8a0d3c111")
		c.Next()
	}
	router, sr := tracedRouter(t, func(c *gin.Context) { c.Status(http.StatusOK) }, setUser)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/orders/1", nil))

	spans := sr.Ended()
	require.Len(t, spans, 1)
	v, ok := spanAttr(spans[0], "user_id")
	require.True(t, ok)
	assert.Equal(t, "0b0c6d52-08c5-4a2e-9e53-f1b8a0d3c111", v.AsString())
}

func TestTracing_ServerErrorMarksSpan(t *testing.T) {
	router, sr := tracedRouter(t, func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/orders/1", nil))

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestTracing_ClientErrorLeavesSpanUnset(t *testing.T) {
	router, sr := tracedRouter(t, func(c *gin.Context) { c.Status(http.StatusNotFound) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/orders/1", nil))

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)
}

func TestTracing_Disabled(t *testing.T) {
	router := gin.New()
	router.Use(TracingWithConfig(TracingConfig{Enabled: false}), SpanEnricher())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
