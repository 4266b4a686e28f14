// internal/middleware/guard_middleware.go
package middleware

import (
	"net/http"

	"carbon-portal/internal/domain/identity"
	"carbon-portal/internal/guard"
	"carbon-portal/internal/navigation"
	"carbon-portal/internal/service/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionReader is the read side of the session provider.
type SessionReader interface {
	State() session.State
}

// LoadingRenderer writes the neutral view shown while the session resolves.
// It is expected to answer 503 with Retry-After.
type LoadingRenderer func(c *gin.Context)

type GuardMiddleware struct {
	sessions SessionReader
	loading  LoadingRenderer
	logger   *zap.Logger
}

func NewGuardMiddleware(sessions SessionReader, loading LoadingRenderer, logger *zap.Logger) *GuardMiddleware {
	if loading == nil {
		loading = func(c *gin.Context) {
			c.Header("Retry-After", "1")
			c.String(http.StatusServiceUnavailable, "loading")
		}
	}
	return &GuardMiddleware{
		sessions: sessions,
		loading:  loading,
		logger:   logger,
	}
}

// Require admits the request when the guard renders it for the current
// session; roles empty means any authenticated identity.
func (m *GuardMiddleware) Require(roles ...identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := m.sessions.State()
		decision := guard.Decide(state.Identity, state.Loading, roles...)

		switch decision.Outcome {
		case guard.Render:
			c.Set(identityKey, state.Identity)
			c.Next()
		case guard.Loading:
			m.loading(c)
			c.Abort()
		default:
			location := decision.Location
			if decision.Outcome == guard.RedirectLogin {
				location = navigation.LoginWithNext(c.Request.URL.RequestURI())
			}
			m.logger.Debug("guard redirect",
				zap.String("path", c.Request.URL.Path),
				zap.Stringer("outcome", decision.Outcome),
			)
			c.Redirect(http.StatusFound, location)
			c.Abort()
		}
	}
}
