// internal/app/router.go
package app

import (
	"fmt"
	"net/http"
	"strings"

	"carbon-portal/internal/domain/identity"
	authHandler "carbon-portal/internal/handlers/auth"
	portalHandler "carbon-portal/internal/handlers/portal"
	wsHandler "carbon-portal/internal/handlers/websocket"
	"carbon-portal/internal/middleware"
	"carbon-portal/internal/navigation"
	"carbon-portal/internal/pkg/response"
	"carbon-portal/internal/views"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	AuthHandler   *authHandler.AuthHandler
	PortalHandler *portalHandler.PortalHandler
	WSHandler     *wsHandler.WebSocketHandler
	Guard         *middleware.GuardMiddleware
}

// NewEngine builds the portal's gin engine with templates and middleware.
func NewEngine(logger *zap.Logger, h *Handlers) (*gin.Engine, error) {
	tmpl, err := views.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(
		middleware.RecoveryMiddleware(logger, views.RenderError),
		middleware.LoggingMiddleware(logger),
	)
	SetupRouter(r, h)
	return r, nil
}

func SetupRouter(r *gin.Engine, h *Handlers) {
	// ==================== Health Check ====================
	r.GET("/healthz", h.PortalHandler.Health)

	// ==================== Public Views ====================
	r.GET("/", h.PortalHandler.Root)
	r.GET("/login", h.AuthHandler.LoginPage)
	r.POST("/login", h.AuthHandler.Login)
	r.POST("/logout", h.AuthHandler.Logout)
	r.GET("/unauthorized", h.PortalHandler.Unauthorized)

	// ==================== Session API ====================
	api := r.Group("/api")
	{
		api.GET("/session", h.AuthHandler.Session)
		api.GET("/ws/stats", h.WSHandler.GetStats)
	}

	// ==================== WebSocket ====================
	r.GET("/ws/session", h.WSHandler.HandleConnection)

	// ==================== Any Authenticated Role ====================
	r.GET("/profile", h.Guard.Require(), h.PortalHandler.Profile)

	// ==================== Role Areas ====================
	evOwner := r.Group(navigation.EVOwnerArea)
	evOwner.Use(h.Guard.Require(identity.RoleEVOwner))
	{
		evOwner.GET("/*section", h.PortalHandler.Dashboard("EV Owner"))
	}

	buyer := r.Group(navigation.BuyerArea)
	buyer.Use(h.Guard.Require(identity.RoleBuyer))
	{
		buyer.GET("/*section", h.PortalHandler.Dashboard("Credit Buyer"))
	}

	cva := r.Group(navigation.VerifierArea)
	cva.Use(h.Guard.Require(identity.RoleVerifier))
	{
		cva.GET("/*section", h.PortalHandler.Dashboard("Carbon Verification"))
	}

	admin := r.Group(navigation.AdminArea)
	admin.Use(h.Guard.Require(identity.RoleAdmin))
	{
		admin.GET("/*section", h.PortalHandler.Dashboard("Administration"))
	}

	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			response.NotFound(c, "no such endpoint")
			return
		}
		c.Redirect(http.StatusFound, navigation.RootPath)
	})
}
