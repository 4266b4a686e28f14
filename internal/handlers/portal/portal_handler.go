// internal/handlers/portal/portal_handler.go
package portal

import (
	"context"
	"net/http"

	"carbon-portal/internal/domain/identity"
	"carbon-portal/internal/middleware"
	"carbon-portal/internal/navigation"
	"carbon-portal/internal/pkg/response"
	"carbon-portal/internal/service/session"
	"carbon-portal/internal/views"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SessionReader interface {
	State() session.State
	View(ctx context.Context) identity.SessionView
}

type PortalHandler struct {
	sessions SessionReader
	logger   *zap.Logger
}

func NewPortalHandler(sessions SessionReader, logger *zap.Logger) *PortalHandler {
	return &PortalHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// Root handles GET /
func (h *PortalHandler) Root(c *gin.Context) {
	state := h.sessions.State()
	switch {
	case state.Loading:
		views.RenderLoading(c)
	case state.Identity != nil:
		c.Redirect(http.StatusFound, navigation.LandingFor(state.Identity))
	default:
		c.HTML(http.StatusOK, views.Landing, views.Page{Title: "Welcome"})
	}
}

// Unauthorized handles GET /unauthorized
func (h *PortalHandler) Unauthorized(c *gin.Context) {
	if c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON {
		response.Forbidden(c, "your role does not have access to that view")
		return
	}

	page := views.Page{Title: "Not allowed"}
	if id := h.sessions.State().Identity; id != nil {
		page.Identity = id
		page.Home, _ = navigation.HomePathFor(id.Role)
	}
	c.HTML(http.StatusForbidden, views.Unauthorized, page)
}

// Dashboard renders a role area page; the guard has already admitted the
// request.
func (h *PortalHandler) Dashboard(title string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := middleware.MustGetIdentity(c)
		section := c.Param("section")
		if section == "" || section == "/" {
			section = "/dashboard"
		}
		c.HTML(http.StatusOK, views.Dashboard, views.Page{
			Title:    title,
			Identity: id,
			Section:  section,
		})
	}
}

// Profile handles GET /profile
func (h *PortalHandler) Profile(c *gin.Context) {
	view := h.sessions.View(c.Request.Context())
	c.HTML(http.StatusOK, views.Profile, views.Page{
		Title:          "Profile",
		Identity:       middleware.MustGetIdentity(c),
		Home:           view.Home,
		TokenExpiresAt: view.TokenExpiresAt,
	})
}

// Health handles GET /healthz
func (h *PortalHandler) Health(c *gin.Context) {
	state := h.sessions.State()
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"session_ready": !state.Loading,
	})
}
