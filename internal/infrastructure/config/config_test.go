package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, SourceFile, cfg.Catalog.Source)
	assert.Equal(t, "data", cfg.Catalog.Dir)
	assert.Equal(t, "recipes.json", cfg.Catalog.RecipesFile)
	assert.Equal(t, 4, cfg.Catalog.DefaultServings)
	assert.Equal(t, 500*time.Millisecond, cfg.Catalog.WatchDebounce)
	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.Equal(t, "fc", cfg.Store.KeyPrefix)
	assert.Equal(t, 720*time.Hour, cfg.Store.TTL)
	assert.Equal(t, 5*time.Second, cfg.Timer.SweepInterval)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 300*time.Millisecond, cfg.DedupWindow)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CATALOG_DIR", "/srv/catalog")
	t.Setenv("CATALOG_WATCH", "true")
	t.Setenv("STORE_DRIVER", "redis")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("APP_TIMER_RETENTION", "1m")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/srv/catalog", cfg.Catalog.Dir)
	assert.True(t, cfg.Catalog.Watch)
	assert.Equal(t, StoreRedis, cfg.Store.Driver)
	assert.Equal(t, "cache:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, time.Minute, cfg.Timer.Retention)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown catalog source", env: map[string]string{"CATALOG_SOURCE": "ftp"}},
		{name: "http without base url", env: map[string]string{"CATALOG_SOURCE": "http"}},
		{name: "http with watch", env: map[string]string{
			"CATALOG_SOURCE":   "http",
			"CATALOG_BASE_URL": "https://example.com/data",
			"CATALOG_WATCH":    "true",
		}},
		{name: "unknown store driver", env: map[string]string{"STORE_DRIVER": "etcd"}},
		{name: "bad rate limit", env: map[string]string{"RATE_LIMIT_REQUESTS": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
