package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "/api/v1", r.BasePath())
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "/api/v2", r.BasePath())
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	shop := NewDomainGroup("shop", "/shop").
		GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	other := NewDomainGroup("other", "/other").
		GET("", func(c *gin.Context) { c.String(http.StatusOK, "other") })
	r.Register(shop, other).Setup()

	w := serve(engine, http.MethodGet, "/api/v1/shop/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())

	w = serve(engine, http.MethodGet, "/api/v1/other")
	assert.Equal(t, "other", w.Body.String())
}

func TestDomainGroup_Methods(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("items", "/items").
		GET("/:id", func(c *gin.Context) { c.String(http.StatusOK, "get") }).
		POST("", func(c *gin.Context) { c.String(http.StatusCreated, "post") }).
		PUT("/:id", func(c *gin.Context) { c.String(http.StatusOK, "put") }).
		PATCH("/:id", func(c *gin.Context) { c.String(http.StatusOK, "patch") }).
		DELETE("/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	g.RegisterRoutes(engine.Group("/api/v1"))

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/api/v1/items/1", http.StatusOK},
		{http.MethodPost, "/api/v1/items", http.StatusCreated},
		{http.MethodPut, "/api/v1/items/1", http.StatusOK},
		{http.MethodPatch, "/api/v1/items/1", http.StatusOK},
		{http.MethodDelete, "/api/v1/items/1", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			assert.Equal(t, tt.status, serve(engine, tt.method, tt.path).Code)
		})
	}
}

func TestDomainGroup_MiddlewareScopedToGroup(t *testing.T) {
	engine := gin.New()
	mark := func(c *gin.Context) {
		c.Header("X-Guarded", "yes")
		c.Next()
	}

	g := NewDomainGroup("bookings", "/bookings")
	g.Group("public", "").GET("/open", func(c *gin.Context) { c.Status(http.StatusOK) })
	g.Group("private", "").Use(mark, nil).GET("/mine", func(c *gin.Context) { c.Status(http.StatusOK) })
	g.RegisterRoutes(engine.Group("/api/v1"))

	assert.Empty(t, serve(engine, http.MethodGet, "/api/v1/bookings/open").Header().Get("X-Guarded"))
	assert.Equal(t, "yes", serve(engine, http.MethodGet, "/api/v1/bookings/mine").Header().Get("X-Guarded"))
}

func TestDomainGroup_Routes(t *testing.T) {
	g := NewDomainGroup("admin", "/admin")
	g.Group("products", "/products").
		GET("", func(*gin.Context) {}).
		PUT("/:id", func(*gin.Context) {})

	assert.Equal(t, []RouteInfo{
		{Group: "products", Method: http.MethodGet, Path: "/api/v1/admin/products"},
		{Group: "products", Method: http.MethodPut, Path: "/api/v1/admin/products/:id"},
	}, g.Routes("/api/v1"))
	assert.Equal(t, "admin", g.Name())
	assert.Equal(t, "/admin", g.Prefix())
}
