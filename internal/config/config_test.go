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
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("API_PORT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 24, cfg.JWTExpiry)
	assert.Equal(t, 5*time.Minute, cfg.PermissionCacheTTL)
	assert.Equal(t, "0 9 * * *", cfg.DueReminderSchedule)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "port: \"9000\"\nlog_level: debug\npermission_cache_ttl: 30s\ncors_origins:\n  - https://a.example\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("API_PORT", "9100")
	t.Setenv("CORS_ORIGINS", "https://b.example, https://c.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.PermissionCacheTTL)
	assert.Equal(t, []string{"https://b.example", "https://c.example"}, cfg.CORSOrigins)
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)
}

func TestValidateProductionSecret(t *testing.T) {
	cfg := defaults()
	cfg.Environment = "production"
	assert.Error(t, cfg.Validate())

	cfg.JWTSecret = "s3cr3t"
	assert.NoError(t, cfg.Validate())
}
