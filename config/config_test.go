package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GRADEBOOK_BASE_URL", "https://gradebook.example.com")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "participation-hub", cfg.App.Name)
	assert.Equal(t, EnvDevelopment, cfg.App.Environment)
	assert.Equal(t, "America/New_York", cfg.App.Timezone)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Empty(t, cfg.Database.URL)
	assert.Equal(t, 10*time.Minute, cfg.Redis.AggregateTTL)
}

func TestLoadYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  name: classpulse-staging
  environment: staging
server:
  port: 9090
gradebook:
  base_url: https://gradebook.example.com
  requests_per_second: 2.5
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "classpulse-staging", cfg.App.Name)
	assert.Equal(t, EnvStaging, cfg.App.Environment)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 2.5, cfg.Gradebook.RequestsPerSecond)
	// Untouched fields keep their defaults.
	assert.Equal(t, 30*time.Second, cfg.App.ShutdownTimeout)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
gradebook:
  base_url: https://file.example.com
`), 0o600))

	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("GRADEBOOK_BASE_URL", "https://env.example.com")
	t.Setenv("REDIS_DISABLED", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "https://env.example.com", cfg.Gradebook.BaseURL)
	assert.True(t, cfg.Redis.Disabled)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := Default()
		cfg.Gradebook.BaseURL = "https://gradebook.example.com"
		return cfg
	}

	t.Run("ok", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("bad environment", func(t *testing.T) {
		cfg := base()
		cfg.App.Environment = "qa"
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad timezone", func(t *testing.T) {
		cfg := base()
		cfg.App.Timezone = "Mars/Olympus"
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad port", func(t *testing.T) {
		cfg := base()
		cfg.Server.Port = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing gradebook URL", func(t *testing.T) {
		cfg := Default()
		assert.Error(t, cfg.Validate())
	})

	t.Run("production without database", func(t *testing.T) {
		cfg := base()
		cfg.App.Environment = EnvProduction
		assert.Error(t, cfg.Validate())
	})
}
