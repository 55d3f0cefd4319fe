package middleware

import (
	"context"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/grafana/pyroscope-go"
)

// Pyroscope label names attached to request profiles
const (
	ProfilingLabelMethod     = "method"
	ProfilingLabelRoute      = "route"
	ProfilingLabelController = "controller"
)

// ProfilingConfig holds configuration for the profiling middleware.
type ProfilingConfig struct {
	Enabled   bool
	SkipPaths []string
}

// DefaultProfilingConfig skips health probes
func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		Enabled:   true,
		SkipPaths: []string{"/health", "/healthz", "/ready"},
	}
}

// ProfilingWithConfig runs the rest of the chain under Pyroscope labels so
// CPU and allocation profiles can be split by route.
func ProfilingWithConfig(cfg ProfilingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		if slices.Contains(cfg.SkipPaths, c.Request.URL.Path) || strings.HasPrefix(c.Request.URL.Path, "/swagger") {
			c.Next()
			return
		}

		pyroscope.TagWrapper(c.Request.Context(), pyroscope.Labels(profilingLabels(c)...), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

// profilingLabels returns key/value pairs for the matched route
func profilingLabels(c *gin.Context) []string {
	labels := []string{ProfilingLabelMethod, c.Request.Method}
	route := c.FullPath()
	if route == "" {
		return labels
	}
	labels = append(labels, ProfilingLabelRoute, route)
	if controller := controllerFromRoute(route); controller != "" {
		labels = append(labels, ProfilingLabelController, controller)
	}
	return labels
}

// controllerFromRoute derives the resource name from a route pattern,
// e.g. "/api/v1/cart/items/:id" -> "cart".
func controllerFromRoute(route string) string {
	for _, part := range strings.Split(route, "/") {
		if part == "" || part == "api" || isVersionSegment(part) || strings.HasPrefix(part, ":") || strings.HasPrefix(part, "*") {
			continue
		}
		return part
	}
	return ""
}

// isVersionSegment checks if a path segment is an API version (v1, v2, etc.)
func isVersionSegment(segment string) bool {
	if len(segment) < 2 || (segment[0] != 'v' && segment[0] != 'V') {
		return false
	}
	for i := 1; i < len(segment); i++ {
		if segment[i] < '0' || segment[i] > '9' {
			return false
		}
	}
	return true
}
