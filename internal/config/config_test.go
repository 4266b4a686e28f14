package config

import (
	"testing"
	"time"

	"carbon-portal/internal/domain/identity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "API_BASE_URL", "API_TIMEOUT", "SESSION_STORE", "REDIS_DB"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "127.0.0.1:5173", cfg.HTTPAddr)
	assert.Equal(t, "http://127.0.0.1:8080/api", cfg.APIBaseURL)
	assert.Equal(t, 20*time.Second, cfg.APITimeout)
	assert.Equal(t, "file", cfg.SessionStore)
	assert.Equal(t, 0, cfg.RedisDB)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.example.test/v1/")
	t.Setenv("API_TIMEOUT", "5s")
	t.Setenv("SESSION_STORE", "Redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("REDIS_CLUSTER", "1")
	t.Setenv("MOCKAPI_TOKEN_TTL", "not-a-duration")

	cfg := Load()
	assert.Equal(t, "https://api.example.test/v1", cfg.APIBaseURL)
	assert.Equal(t, 5*time.Second, cfg.APITimeout)
	assert.Equal(t, "redis", cfg.SessionStore)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.True(t, cfg.RedisCluster)
	assert.Equal(t, time.Hour, cfg.MockAPITokenTTL)
}

func TestAppConfig_DemoRoles(t *testing.T) {
	t.Run("empty means every role", func(t *testing.T) {
		roles, err := AppConfig{}.DemoRoles()
		require.NoError(t, err)
		assert.Equal(t, identity.AllRoles(), roles)
	})

	t.Run("names are parsed", func(t *testing.T) {
		roles, err := AppConfig{MockAPIDemoRoles: "buyer, verifier,,ADMIN"}.DemoRoles()
		require.NoError(t, err)
		assert.Equal(t, []identity.Role{identity.RoleBuyer, identity.RoleVerifier, identity.RoleAdmin}, roles)
	})

	t.Run("unknown name is an error", func(t *testing.T) {
		_, err := AppConfig{MockAPIDemoRoles: "buyer,auditor"}.DemoRoles()
		assert.ErrorContains(t, err, "auditor")
	})
}
