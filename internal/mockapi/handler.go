// internal/mockapi/handler.go
package mockapi

import (
	"net/http"
	"strings"

	"carbon-portal/internal/domain/identity"
	"carbon-portal/internal/pkg/jwt"
	"carbon-portal/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const subjectKey = "subject"

type Handler struct {
	directory *Directory
	tokens    *jwt.Manager
	logger    *zap.Logger
}

func NewHandler(directory *Directory, tokens *jwt.Manager, logger *zap.Logger) *Handler {
	return &Handler{
		directory: directory,
		tokens:    tokens,
		logger:    logger,
	}
}

// Login handles POST /auth/login
func (h *Handler) Login(c *gin.Context) {
	var req identity.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	id, err := h.directory.Authenticate(req.Email, req.Password)
	if err != nil {
		h.logger.Info("login failed",
			zap.String("email", req.Email),
			zap.String("ip", c.ClientIP()),
		)
		response.Error(c, http.StatusUnauthorized, "invalid email or password", nil)
		return
	}

	access, _, err := h.tokens.Generator.GenerateAccessToken(id.ID, id.Email, id.Role.Code())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to issue token", err)
		return
	}
	refresh, _, err := h.tokens.Generator.GenerateRefreshToken(id.ID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to issue token", err)
		return
	}

	h.logger.Info("user logged in",
		zap.String("identity_id", id.ID),
		zap.String("email", id.Email),
	)
	response.Success(c, http.StatusOK, "login successful", identity.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
	})
}

// Me handles GET /auth/me (requires auth)
func (h *Handler) Me(c *gin.Context) {
	subject := c.GetString(subjectKey)

	id, err := h.directory.FindByID(subject)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "identity no longer exists", err)
		return
	}

	response.Success(c, http.StatusOK, "profile retrieved", id)
}

// Auth validates the bearer token on protected routes.
func (h *Handler) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Unauthorized(c, "missing authorization token")
			return
		}

		claims, err := h.tokens.Verifier.VerifyAccessToken(token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "invalid or expired token", err)
			return
		}

		c.Set(subjectKey, claims.Subject)
		c.Next()
	}
}

// extractToken extracts Bearer token from Authorization header
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}
