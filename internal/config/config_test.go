package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 5000, cfg.Server.Port)
	require.Equal(t, "web", cfg.Server.StaticDir)
	require.Equal(t, 10, cfg.Fetch.TimeoutSeconds)
	require.False(t, cfg.Headless.Enabled)
	require.Equal(t, "memory", cfg.Storage.StatusProvider)
	require.Equal(t, 2, cfg.Delivery.Workers)
	require.Equal(t, 64, cfg.Delivery.QueueDepth)
	require.Equal(t, 587, cfg.SMTP.Port)
	require.True(t, cfg.SMTP.UseTLS)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8080
delivery:
  workers: 4
storage:
  status_provider: postgres
  postgres_dsn: postgres://localhost/webanalyzer
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, 4, cfg.Delivery.Workers)
	require.Equal(t, "postgres", cfg.Storage.StatusProvider)
}

func TestPortEnvOverride(t *testing.T) {
	t.Setenv("PORT", "9999")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 9999, cfg.Server.Port)
}

func TestPortEnvInvalid(t *testing.T) {
	t.Setenv("PORT", "not-a-port")

	_, err := Load("")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	cfg := base()
	cfg.Server.Port = 0
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Delivery.Workers = 0
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Storage.StatusProvider = "postgres"
	require.ErrorContains(t, cfg.Validate(), "postgres_dsn")

	cfg = base()
	cfg.Storage.StatusProvider = "redis"
	require.ErrorContains(t, cfg.Validate(), "unknown status provider")

	cfg = base()
	cfg.Headless.Enabled = true
	cfg.Headless.MaxParallel = 0
	require.Error(t, cfg.Validate())
}
