// internal/middleware/recovery_middleware.go
package middleware

import (
	"net/http"

	"carbon-portal/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PanicRenderer writes the answer for a request whose handler panicked.
type PanicRenderer func(c *gin.Context)

// RecoveryMiddleware turns a handler panic into a 500. render, when set,
// writes the body; otherwise the JSON envelope is used. Nothing is written
// if the handler already started the response.
func RecoveryMiddleware(logger *zap.Logger, render PanicRenderer) gin.HandlerFunc {
	if render == nil {
		render = func(c *gin.Context) {
			response.Error(c, http.StatusInternalServerError, "internal server error", nil)
		}
	}
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			logger.Error("panic recovered",
				zap.Any("panic", rec),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Stack("stack"),
			)
			c.Abort()
			if !c.Writer.Written() {
				render(c)
			}
		}()
		c.Next()
	}
}
