package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_FileAndEnvOverride(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
  cors_origins: "http://a.test, http://b.test"
jwt:
  secret: file-secret
payments:
  webhook_secret: hook
redis:
  addr: localhost:6379
`)
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("SMTP_USE_TLS", "yes")
	t.Setenv("RATE_LIMIT_BURST", "42")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "file-secret", cfg.JWT.Secret)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.True(t, cfg.Email.UseTLS)
	assert.Equal(t, 42, cfg.RateLimit.Burst)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins())
	// untouched defaults survive
	assert.Equal(t, "USD", cfg.Payments.Currency)
	assert.Equal(t, "30s", cfg.Notifications.PollInterval)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("PAYMENTS_WEBHOOK_SECRET", "hook")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.False(t, cfg.IsProduction())
	assert.Contains(t, cfg.GetPostgresConnectionString(), "sslmode=disable")
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing jwt secret", "payments:\n  webhook_secret: hook\n"},
		{"missing webhook secret", "jwt:\n  secret: s\n"},
		{"bad duration", "jwt:\n  secret: s\n  access_token_expiration: soon\npayments:\n  webhook_secret: hook\n"},
		{"bad currency", "jwt:\n  secret: s\npayments:\n  webhook_secret: hook\n  currency: EURO\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_InvalidEnvValue(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "many")
	_, err := LoadConfig(writeConfig(t, "jwt:\n  secret: s\npayments:\n  webhook_secret: hook\n"))
	assert.ErrorContains(t, err, "DB_MAX_OPEN_CONNS")
}
