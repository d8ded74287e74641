package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"audit-backend/internal/shared/metrics"
	"audit-backend/internal/shared/server/middleware"
)

// RouterDeps carries the handlers the router mounts. Each handler registers
// its own routes on the versioned API group.
type RouterDeps struct {
	Env         string
	CORSOrigins []string
	Mounters    []RouteMounter
}

// RouteMounter is implemented by feature handlers that attach routes to a
// router group.
type RouteMounter interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// NewRouter builds the gin engine with the standard middleware chain and
// mounts health, metrics and all feature routes.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(deps.CORSOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	for _, m := range deps.Mounters {
		m.RegisterRoutes(api)
	}

	return r
}
