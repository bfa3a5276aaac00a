package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "taskhub", cfg.Auth.JWT.Issuer)
	require.Equal(t, 15*time.Minute, cfg.Auth.JWT.TTL)
	require.True(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/metrics", cfg.Monitoring.Prometheus.Endpoint)
	require.False(t, cfg.Email.SMTP.Enabled)
	require.True(t, cfg.Reminders.Enabled)
	require.Equal(t, "0 8 * * *", cfg.Reminders.Schedule)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("TASKHUB_SERVER_PORT", "9090")
	t.Setenv("TASKHUB_DATABASE_DRIVER", "postgres")
	t.Setenv("TASKHUB_AUTH_JWT_ACCESS_TOKEN_TTL", "30m")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, 30*time.Minute, cfg.Auth.JWT.TTL)
}

func TestConfigValidateCollectsAllProblems(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = -1
	cfg.Database.Driver = "oracle"
	cfg.Email.SMTP.Enabled = true
	cfg.Reminders.Enabled = true

	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "server.port")
	require.Contains(t, err.Error(), "database.driver")
	require.Contains(t, err.Error(), "access_token_ttl")
	require.Contains(t, err.Error(), "smtp.host")
	require.Contains(t, err.Error(), "reminders.schedule")
}

func TestConfigValidateAcceptsDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
}
