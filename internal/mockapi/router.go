// internal/mockapi/router.go
package mockapi

import (
	"carbon-portal/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewEngine mounts the stub API under /api, matching the portal's default
// API_BASE_URL.
func NewEngine(h *Handler, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RecoveryMiddleware(logger, nil),
		middleware.LoggingMiddleware(logger),
	)

	api := r.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	auth := api.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.GET("/me", h.Auth(), h.Me)
	}

	return r
}
