package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/sessiond/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sessiond.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Overrides(t *testing.T) {
	path := writeFile(t, `
listen: ":9090"
log_level: debug
session:
  ttl: 10m
catalog:
  file: products.yaml
  redis:
    addr: localhost:6379
metrics:
  enabled: false
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 10*time.Minute, cfg.Session.TTL)
	assert.Equal(t, time.Minute, cfg.Session.SweepInterval, "unset keys keep their defaults")
	assert.Equal(t, "products.yaml", cfg.Catalog.File)
	assert.Equal(t, "localhost:6379", cfg.Catalog.Redis.Addr)
	assert.Equal(t, "sessiond:catalog:", cfg.Catalog.Redis.Prefix)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, `{"listen": ":7070", "session": {"sweep_interval": "30s"}}`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Listen)
	assert.Equal(t, 30*time.Second, cfg.Session.SweepInterval)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err, "an explicitly named file must exist")
}

func TestLoad_Invalid(t *testing.T) {
	for name, content := range map[string]string{
		"zero ttl":        "session:\n  ttl: 0s\n",
		"negative sweep":  "session:\n  sweep_interval: -1m\n",
		"bad level":       "log_level: loud\n",
		"bad duration":    "session:\n  ttl: soon\n",
		"no lookup bound": "catalog:\n  lookup_timeout: 0s\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := config.Load(writeFile(t, content))
			assert.Error(t, err)
		})
	}
}

func TestDefault_IsValid(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 2*time.Second, cfg.Catalog.LookupTimeout)
}
