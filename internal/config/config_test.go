package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaultsHostWhenUnset(t *testing.T) {
	t.Setenv("APP_HOST", "")
	t.Setenv("APP_SRC", "")
	t.Setenv("APP_FS", "")

	cfg := Load()
	assert.Equal(t, DefaultHost, cfg.Host)
	assert.Equal(t, "", cfg.SourceDir)
	assert.Equal(t, "", cfg.FilesystemID)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("APP_HOST", "worker-1:processes")
	t.Setenv("APP_SRC", "/srv/registry")
	t.Setenv("APP_FS", "default")
	t.Setenv("GOVREG_REDIS_ADDR", "localhost:6379")

	cfg := Load()
	assert.Equal(t, "worker-1:processes", cfg.Host)
	assert.Equal(t, "/srv/registry", cfg.SourceDir)
	assert.Equal(t, "default", cfg.FilesystemID)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}
