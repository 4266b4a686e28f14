// internal/handlers/auth/auth_handler.go
package auth

import (
	"context"
	"errors"
	"net/http"

	"carbon-portal/internal/domain/identity"
	"carbon-portal/internal/navigation"
	xerrors "carbon-portal/internal/pkg/errors"
	"carbon-portal/internal/pkg/response"
	"carbon-portal/internal/service/session"
	"carbon-portal/internal/views"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionService is the part of the session provider the login views use.
type SessionService interface {
	State() session.State
	View(ctx context.Context) identity.SessionView
	Login(ctx context.Context, email, password string) (*identity.Identity, error)
	Logout(ctx context.Context) error
}

type AuthHandler struct {
	sessions SessionService
	logger   *zap.Logger
}

func NewAuthHandler(sessions SessionService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// ========== Login ==========

// LoginPage handles GET /login
func (h *AuthHandler) LoginPage(c *gin.Context) {
	state := h.sessions.State()
	if state.Loading {
		views.RenderLoading(c)
		return
	}

	next, _ := navigation.SafeNext(c.Query("next"))
	if state.Identity != nil {
		if _, ok := navigation.HomePathFor(state.Identity.Role); ok {
			c.Redirect(http.StatusFound, navigation.DestinationFor(state.Identity, next))
			return
		}
	}

	c.HTML(http.StatusOK, views.Login, views.Page{Title: "Log in", Next: next})
}

// Login handles POST /login. Form posts get a redirect or the login page
// with an inline message; JSON posts get the response envelope.
func (h *AuthHandler) Login(c *gin.Context) {
	wantsJSON := c.ContentType() == gin.MIMEJSON

	// no login until the initial session is resolved
	if h.sessions.State().Loading {
		if wantsJSON {
			c.Header("Retry-After", "1")
			response.Error(c, http.StatusServiceUnavailable, "session is still loading", nil)
			return
		}
		views.RenderLoading(c)
		return
	}

	var req identity.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		if wantsJSON {
			response.ValidationError(c, "email and password are required", err)
			return
		}
		c.HTML(http.StatusBadRequest, views.Login, views.Page{
			Title: "Log in",
			Email: req.Email,
			Next:  requestedNext(c),
			Error: "Enter your email address and password.",
		})
		return
	}
	next := requestedNext(c)

	id, err := h.sessions.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		status, message := loginFailure(err)
		h.logger.Info("login failed",
			zap.String("email", req.Email),
			zap.Stringer("kind", xerrors.KindOf(err)),
			zap.Error(err),
		)
		if wantsJSON {
			response.Error(c, status, message, nil)
			return
		}
		c.HTML(status, views.Login, views.Page{
			Title: "Log in",
			Email: req.Email,
			Next:  next,
			Error: message,
		})
		return
	}

	destination := navigation.DestinationFor(id, next)
	h.logger.Info("user logged in",
		zap.String("identity_id", id.ID),
		zap.Stringer("role", id.Role),
		zap.String("destination", destination),
	)

	if wantsJSON {
		response.Success(c, http.StatusOK, "login successful", identity.SessionView{
			Authenticated: true,
			Identity:      id,
			Home:          navigation.LandingFor(id),
		})
		return
	}
	c.Redirect(http.StatusSeeOther, destination)
}

// requestedNext reads next from the query string or the form body.
func requestedNext(c *gin.Context) string {
	raw := c.Query("next")
	if raw == "" && c.ContentType() != gin.MIMEJSON {
		raw = c.PostForm("next")
	}
	next, _ := navigation.SafeNext(raw)
	return next
}

// loginFailure maps a login error to a status code and the message shown
// next to the form.
func loginFailure(err error) (int, string) {
	var authErr *xerrors.AuthError
	reason := ""
	if errors.As(err, &authErr) {
		reason = authErr.Reason
	}

	switch {
	case errors.Is(err, xerrors.ErrInvalidCredentials):
		if reason == "" {
			reason = "Invalid email or password."
		}
		return http.StatusUnauthorized, reason
	case errors.Is(err, xerrors.ErrIdentityResolutionFailed):
		return http.StatusBadGateway, "Signed in, but your profile could not be loaded. Please try again."
	case errors.Is(err, xerrors.ErrNetwork):
		return http.StatusServiceUnavailable, "Cannot reach the marketplace. Check your connection and try again."
	case errors.Is(err, xerrors.ErrServer):
		return http.StatusServiceUnavailable, "The marketplace is having trouble right now. Please try again shortly."
	default:
		return http.StatusInternalServerError, "Something went wrong. Please try again."
	}
}

// ========== Logout ==========

// Logout handles POST /logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.sessions.Logout(c.Request.Context()); err != nil {
		// the identity is already forgotten in memory
		h.logger.Error("logout failed to clear session storage", zap.Error(err))
	}
	c.Redirect(http.StatusSeeOther, navigation.LoginPath)
}

// ========== Session ==========

// Session handles GET /api/session
func (h *AuthHandler) Session(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	response.Success(c, http.StatusOK, "", h.sessions.View(c.Request.Context()))
}
