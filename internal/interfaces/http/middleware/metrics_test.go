package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stephanos-estetic/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func setupTestMeter(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetricByName(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestHTTPMetrics_DisabledProvider(t *testing.T) {
	mp, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)

	router := gin.New()
	router.Use(HTTPMetrics(mp, zap.NewNop()))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	router = gin.New()
	router.Use(HTTPMetrics(nil, nil))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
}

func TestHTTPMetricsWithMeter(t *testing.T) {
	mp, reader := setupTestMeter(t)

	router := gin.New()
	router.Use(HTTPMetricsWithMeter(mp.Meter("test"), zap.NewNop()))
	router.GET("/api/v1/products/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})
	router.POST("/api/v1/cart/items", func(c *gin.Context) { c.Status(http.StatusUnprocessableEntity) })

	for _, path := range []string{"/api/v1/products/a", "/api/v1/products/b"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	rm := collectMetrics(t, reader)

	total := findMetricByName(rm, "http_server_request_total")
	require.NotNil(t, total)
	sum, ok := total.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	byRoute := map[string]int64{}
	for _, dp := range sum.DataPoints {
		route, _ := dp.Attributes.Value(telemetry.AttrHTTPRoute)
		byRoute[route.AsString()] += dp.Value
	}
	assert.Equal(t, int64(2), byRoute["/api/v1/products/:id"], "path params collapse into one route")
	assert.Equal(t, int64(1), byRoute["/api/v1/cart/items"])
	assert.Equal(t, int64(1), byRoute["unmatched"])

	duration := findMetricByName(rm, "http_server_request_duration_seconds")
	require.NotNil(t, duration)
	hist, ok := duration.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.NotEmpty(t, hist.DataPoints)

	require.NotNil(t, findMetricByName(rm, "http_server_response_size_bytes"))

	active := findMetricByName(rm, "http_server_active_requests")
	require.NotNil(t, active)
	activeSum, ok := active.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	for _, dp := range activeSum.DataPoints {
		assert.Equal(t, int64(0), dp.Value)
	}
}
