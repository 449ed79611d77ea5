package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "http://localhost:8000/api", cfg.API.BaseURL)
	assert.Equal(t, "/auth/token/refresh/", cfg.API.RefreshPath)
	assert.Equal(t, "/login", cfg.API.LoginPath)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, 60*time.Second, cfg.Cache.StaleTime)
	assert.Equal(t, 5*time.Minute, cfg.Cache.GCTime)
	assert.Equal(t, 500, cfg.Cache.MaxEntries)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SHELFLIFE_API_BASEURL", "https://dam.example.com/api")
	t.Setenv("SHELFLIFE_CACHE_STALETIME", "5s")
	t.Setenv("SHELFLIFE_STORAGE_DRIVER", "memory")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://dam.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Cache.StaleTime)
	assert.Equal(t, "memory", cfg.Storage.Driver)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	content := "environment: production\napi:\n  baseurl: http://dam.local/api\n  ratelimit: 5\nstorage:\n  driver: redis\n  redis:\n    addr: cache:6379\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "http://dam.local/api", cfg.API.BaseURL)
	assert.InDelta(t, 5.0, cfg.API.RateLimit, 0.001)
	assert.Equal(t, "redis", cfg.Storage.Driver)
	assert.Equal(t, "cache:6379", cfg.Storage.Redis.Addr)
}

func TestLoad_InvalidDriver(t *testing.T) {
	t.Setenv("SHELFLIFE_STORAGE_DRIVER", "etcd")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.driver")
}
