package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"carbon-portal/internal/domain/identity"
	"carbon-portal/internal/service/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

type fixedSession session.State

func (f fixedSession) State() session.State {
	return session.State(f)
}

func newGuardedEngine(t *testing.T, state session.State, roles ...identity.Role) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)

	r := gin.New()
	r.Use(RecoveryMiddleware(logger, nil))
	guard := NewGuardMiddleware(fixedSession(state), nil, logger)
	r.GET("/protected", guard.Require(roles...), func(c *gin.Context) {
		id := MustGetIdentity(c)
		c.String(http.StatusOK, "hello "+id.ID)
	})
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestGuardMiddleware_Require(t *testing.T) {
	buyer := &identity.Identity{ID: "u2", Role: identity.RoleBuyer}

	t.Run("loading answers 503 and retry", func(t *testing.T) {
		w := get(newGuardedEngine(t, session.State{Loading: true, Identity: buyer}, identity.RoleAdmin), "/protected")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "1", w.Header().Get("Retry-After"))
	})

	t.Run("no session redirects to login", func(t *testing.T) {
		w := get(newGuardedEngine(t, session.State{}, identity.RoleAdmin), "/protected")
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/login?next=%2Fprotected", w.Header().Get("Location"))
	})

	t.Run("wrong role redirects to unauthorized", func(t *testing.T) {
		w := get(newGuardedEngine(t, session.State{Identity: buyer}, identity.RoleAdmin), "/protected")
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/unauthorized", w.Header().Get("Location"))
	})

	t.Run("matching role renders with identity in context", func(t *testing.T) {
		w := get(newGuardedEngine(t, session.State{Identity: buyer}, identity.RoleAdmin, identity.RoleBuyer), "/protected")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "hello u2", w.Body.String())
	})

	t.Run("no roles admits any identity", func(t *testing.T) {
		w := get(newGuardedEngine(t, session.State{Identity: buyer}), "/protected")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestHelpers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := GetIdentity(c)
	assert.False(t, ok)
	assert.False(t, HasRole(c, identity.RoleAdmin))
	assert.Panics(t, func() { MustGetIdentity(c) })

	c.Set(identityKey, &identity.Identity{ID: "u4", Role: identity.RoleAdmin})
	assert.True(t, HasRole(c, identity.RoleAdmin))
	assert.False(t, HasRole(c, identity.RoleBuyer))
}

func TestRecoveryMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RecoveryMiddleware(zaptest.NewLogger(t), nil), LoggingMiddleware(zaptest.NewLogger(t)))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := get(r, "/boom")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func TestRecoveryMiddleware_CustomRenderer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RecoveryMiddleware(zaptest.NewLogger(t), func(c *gin.Context) {
		c.String(http.StatusInternalServerError, "portal error page")
	}))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })
	r.GET("/late", func(c *gin.Context) {
		c.String(http.StatusOK, "partial")
		panic("after write")
	})

	w := get(r, "/boom")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "portal error page", w.Body.String())

	w = get(r, "/late")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "partial", w.Body.String())
}
