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

func pong(c *gin.Context) { c.String(http.StatusOK, "pong") }

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "/api/v1", r.BasePath())

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "/api/v2", r.BasePath())
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)
	r.Register(NewDomainGroup("test", "/test").GET("/ping", pong))
	r.Setup()

	w := serve(engine, http.MethodGet, "/api/v1/test/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())

	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/test/ping").Code)
}

func TestRouterGroupMiddleware(t *testing.T) {
	engine := gin.New()
	engine.GET("/health", pong)

	deny := func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) }
	r := NewRouter(engine, WithGroupMiddleware(deny))
	r.Register(NewDomainGroup("test", "/test").GET("/ping", pong))
	r.Setup()

	assert.Equal(t, http.StatusUnauthorized, serve(engine, http.MethodGet, "/api/v1/test/ping").Code)
	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/health").Code, "engine routes bypass group middleware")
}

func TestDomainGroup(t *testing.T) {
	t.Run("name and prefix", func(t *testing.T) {
		g := NewDomainGroup("dossiers", "/dossiers")
		assert.Equal(t, "dossiers", g.Name())
		assert.Equal(t, "/dossiers", g.Prefix())
	})

	t.Run("every method is mounted", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test").
			GET("/r", pong).
			POST("/r", pong).
			PUT("/r", pong).
			PATCH("/r", pong).
			DELETE("/r", pong)
		g.RegisterRoutes(engine.Group("/api/v1"))

		for _, m := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
			assert.Equal(t, http.StatusOK, serve(engine, m, "/api/v1/test/r").Code, m)
		}
	})

	t.Run("middleware runs before handlers", func(t *testing.T) {
		engine := gin.New()
		var order []string
		g := NewDomainGroup("test", "/test").Use(func(c *gin.Context) {
			order = append(order, "mw")
			c.Next()
		})
		g.GET("/x", func(c *gin.Context) {
			order = append(order, "handler")
			c.Status(http.StatusNoContent)
		})
		g.RegisterRoutes(engine.Group(""))

		assert.Equal(t, http.StatusNoContent, serve(engine, http.MethodGet, "/test/x").Code)
		assert.Equal(t, []string{"mw", "handler"}, order)
	})

	t.Run("sub-groups inherit middleware", func(t *testing.T) {
		engine := gin.New()
		gate := func(c *gin.Context) {
			if c.GetHeader("X-Open") == "" {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.Next()
		}
		g := NewDomainGroup("dossiers", "/dossiers").Use(gate)
		g.Group("docs", "/:id/documents").GET("", pong)
		g.RegisterRoutes(engine.Group("/api/v1"))

		assert.Equal(t, http.StatusForbidden, serve(engine, http.MethodGet, "/api/v1/dossiers/1/documents").Code)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/dossiers/1/documents", nil)
		req.Header.Set("X-Open", "1")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("routes are listed sorted", func(t *testing.T) {
		g := NewDomainGroup("dossiers", "/dossiers").
			POST("", pong).
			GET("", pong).
			GET("/:id", pong)
		g.Group("docs", "/:id/documents").POST("", pong)

		assert.Equal(t, []RouteInfo{
			{Method: http.MethodGet, Path: "/dossiers"},
			{Method: http.MethodPost, Path: "/dossiers"},
			{Method: http.MethodGet, Path: "/dossiers/:id"},
			{Method: http.MethodPost, Path: "/dossiers/:id/documents"},
		}, g.Routes())
	})

	t.Run("empty prefix", func(t *testing.T) {
		g := NewDomainGroup("office", "").GET("/office", pong)
		assert.Equal(t, []RouteInfo{{Method: http.MethodGet, Path: "/office"}}, g.Routes())
	})
}
