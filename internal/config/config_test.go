package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8080
  env: production
database:
  url: postgres://localhost/natours
jwt:
  secret: s3cret
  expires_in: 2h
rate_limit:
  requests: 50
  window: 30m
cors:
  allowed_origins: [https://natours.dev]
`), 0o600))

	t.Setenv("DATABASE_URL", "")
	t.Setenv("CONFIG_PATH", path)
	LoadConfig()
	cfg := AppConfig

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "http://localhost:8080", cfg.Server.BaseURL)
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiresIn())
	assert.Equal(t, 50, cfg.RateLimit.Requests)
	assert.Equal(t, 30*time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, []string{"https://natours.dev"}, cfg.CORS.AllowedOrigins)

	// значения по умолчанию
	assert.EqualValues(t, 10*1024, cfg.Server.BodyLimit)
	assert.Equal(t, 100, cfg.Query.MaxLimit)
	assert.Equal(t, 90*24*time.Hour, cfg.CookieExpiresIn())
	assert.Equal(t, "usd", cfg.Stripe.Currency)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db/natours")
	t.Setenv("SERVER_PORT", "4000")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("JWT_COOKIE_EXPIRES_IN", "7")
	t.Setenv("CORS_ORIGINS", "https://a.dev,https://b.dev")
	t.Setenv("TRUST_PROXY", "true")

	LoadConfig()
	cfg := AppConfig

	assert.Equal(t, "postgres://db/natours", cfg.Database.DSN)
	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.False(t, cfg.IsProduction())
	assert.True(t, cfg.Server.TrustProxy)
	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.Equal(t, 7*24*time.Hour, cfg.CookieExpiresIn())
	assert.Equal(t, []string{"https://a.dev", "https://b.dev"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "local", cfg.Storage.Type)
}

func TestParseDurationWithDays(t *testing.T) {
	fallback := time.Minute
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"90d", 90 * 24 * time.Hour},
		{"12h", 12 * time.Hour},
		{" 30m ", 30 * time.Minute},
		{"", fallback},
		{"-1d", fallback},
		{"soon", fallback},
		{"0s", fallback},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDurationWithDays(tt.in, fallback))
		})
	}
}
