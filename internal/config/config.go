package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"carbon-portal/internal/domain/identity"
)

type AppConfig struct {
	// Portal
	HTTPAddr string

	// External API
	APIBaseURL   string
	APILoginPath string
	APIMePath    string
	APITimeout   time.Duration

	// Session store
	SessionStore     string // file, redis or memory
	SessionFile      string
	SessionNamespace string
	RedisAddr        string
	RedisPass        string
	RedisDB          int
	RedisCluster     bool

	// Stub API
	MockAPIAddr         string
	MockAPIKeyPath      string
	MockAPITokenTTL     time.Duration
	MockAPIIssuer       string
	MockAPIAudience     string
	MockAPIDemoPassword string
	MockAPIDemoRoles    string // comma-separated role names; empty seeds every role
}

// Load loads environment variables into AppConfig.
func Load() AppConfig {
	return AppConfig{
		HTTPAddr: getEnv("HTTP_ADDR", "127.0.0.1:5173"),

		APIBaseURL:   strings.TrimSuffix(getEnv("API_BASE_URL", "http://127.0.0.1:8080/api"), "/"),
		APILoginPath: getEnv("API_LOGIN_PATH", "/auth/login"),
		APIMePath:    getEnv("API_ME_PATH", "/auth/me"),
		APITimeout:   getEnvDuration("API_TIMEOUT", 20*time.Second),

		SessionStore:     strings.ToLower(getEnv("SESSION_STORE", "file")),
		SessionFile:      getEnv("SESSION_FILE", ""),
		SessionNamespace: getEnv("SESSION_NAMESPACE", "carbon-portal:default"),
		RedisAddr:        getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPass:        getEnv("REDIS_PASS", ""),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		RedisCluster:     getEnvBool("REDIS_CLUSTER", false),

		MockAPIAddr:         getEnv("MOCKAPI_ADDR", "127.0.0.1:8080"),
		MockAPIKeyPath:      getEnv("MOCKAPI_JWT_PRIVATE_KEY_PATH", ""),
		MockAPITokenTTL:     getEnvDuration("MOCKAPI_TOKEN_TTL", time.Hour),
		MockAPIIssuer:       getEnv("MOCKAPI_ISSUER", "carbon-api"),
		MockAPIAudience:     getEnv("MOCKAPI_AUDIENCE", "carbon-portal"),
		MockAPIDemoPassword: getEnv("MOCKAPI_DEMO_PASSWORD", "password123"),
		MockAPIDemoRoles:    getEnv("MOCKAPI_DEMO_ROLES", ""),
	}
}

// DemoRoles parses MockAPIDemoRoles. An empty list means every known role.
func (c AppConfig) DemoRoles() ([]identity.Role, error) {
	if strings.TrimSpace(c.MockAPIDemoRoles) == "" {
		return identity.AllRoles(), nil
	}
	var roles []identity.Role
	for _, name := range strings.Split(c.MockAPIDemoRoles, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		role, err := identity.ParseRole(name)
		if err != nil {
			return nil, fmt.Errorf("MOCKAPI_DEMO_ROLES: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, nil
}

// --- Helper functions ---

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.ToLower(v) == "true" || v == "1"
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
