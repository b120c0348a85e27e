package main

import (
	"context"
	"testing"
	"time"

	"github.com/bpnn/routeplan/deliverer"
	"github.com/bpnn/routeplan/geocode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, ValidateConfig(&cfg))
}

func TestValidateConfig_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"ListenAddr", func(c *Config) { c.ListenAddr = "" }, ErrInvalidListenAddr},
		{"LogFormat", func(c *Config) { c.LogFormat = "console" }, ErrInvalidLogFormat},
		{"LogLevel", func(c *Config) { c.LogLevel = "verbose" }, ErrInvalidLogLevel},
		{"Depot", func(c *Config) { c.DepotLat = 95 }, ErrInvalidDepot},
		{"GeocodeRPS", func(c *Config) { c.GeocodeRPS = 0 }, ErrInvalidGeocodeRate},
		{"RouteConcurrency", func(c *Config) { c.RouteConcurrency = 0 }, ErrInvalidRouteConcurrency},
		{"ShutdownTimeout", func(c *Config) { c.ShutdownTimeout = 0 }, ErrInvalidShutdownTimeout},
		{"CacheBackend", func(c *Config) { c.CacheBackend = "redis" }, ErrInvalidCacheBackend},
		{"CacheDir", func(c *Config) { c.CacheDir = "" }, ErrMissingCacheDir},
		{"S3Bucket", func(c *Config) { c.CacheBackend = "s3" }, ErrMissingS3Bucket},
		{"MinioEndpoint", func(c *Config) { c.CacheBackend = "minio"; c.MinioBucket = "b" }, ErrMissingMinioEndpoint},
		{"CacheCompression", func(c *Config) { c.CacheCompression = "gzip" }, ErrInvalidCacheCompression},
		{"DelivererBackend", func(c *Config) { c.DelivererBackend = "sqlite" }, ErrInvalidDelivererBackend},
		{"DynamoTable", func(c *Config) { c.DelivererBackend = "dynamodb" }, ErrMissingDynamoTable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			assert.ErrorIs(t, ValidateConfig(&cfg), tt.want)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("ROUTEPLAN_LISTEN_ADDR", "127.0.0.1:9000")
	t.Setenv("ROUTEPLAN_ALLOWED_ORIGINS", "http://a.example,http://b.example")
	t.Setenv("ROUTEPLAN_ROUTE_CONCURRENCY", "4")
	t.Setenv("ROUTEPLAN_CACHE_FLUSH_INTERVAL", "30s")
	t.Setenv("ROUTEPLAN_ROUTING", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddr)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 4, cfg.RouteConcurrency)
	assert.Equal(t, 30*time.Second, cfg.CacheFlushInterval)
	assert.False(t, cfg.Routing)

	def := DefaultConfig()
	assert.Equal(t, def.DepotLat, cfg.DepotLat)
	assert.Equal(t, def.DepotLng, cfg.DepotLng)
	assert.Equal(t, def.MaxUploadBytes, cfg.MaxUploadBytes)
	assert.Equal(t, def.ShutdownTimeout, cfg.ShutdownTimeout)
	assert.Equal(t, def.CacheCompression, cfg.CacheCompression)
	assert.Equal(t, def.DelivererBackend, cfg.DelivererBackend)
}

func TestLoadConfig_BadValue(t *testing.T) {
	t.Setenv("ROUTEPLAN_ROUTE_CONCURRENCY", "many")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestNewCache_LocalRoundTrip(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.CacheDir = t.TempDir()
	cfg.CacheCompression = "lz4"

	cache, err := newCache(ctx, &cfg, nil)
	require.NoError(t, err)
	cache.Put(geocode.Result{Address: "1 Oak St", Latitude: 43, Longitude: -89.5, Found: true})
	require.NoError(t, cache.Flush(ctx))

	again, err := newCache(ctx, &cfg, nil)
	require.NoError(t, err)
	got, ok := again.Get("1 Oak St")
	require.True(t, ok)
	assert.InDelta(t, 43.0, got.Latitude, 1e-9)
}

func TestNewCache_None(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CacheBackend = "none"

	cache, err := newCache(context.Background(), &cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, cache.Len())
}

func TestNewDelivererStore(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()

	store, closeFn, err := newDelivererStore(ctx, &cfg)
	require.NoError(t, err)
	assert.IsType(t, &deliverer.MemoryStore{}, store)
	require.NoError(t, closeFn())

	cfg.DelivererBackend = "duckdb"
	store, closeFn, err = newDelivererStore(ctx, &cfg)
	require.NoError(t, err)
	assert.IsType(t, &deliverer.SQLStore{}, store)
	require.NoError(t, closeFn())
}

func TestNewPlanner(t *testing.T) {
	cfg := DefaultConfig()
	cache := geocode.NewCache(nil, "")

	p, err := newPlanner(&cfg, cache, newLogger(&cfg), nil)
	require.NoError(t, err)
	assert.Equal(t, cfg.DepotAddress, p.Depot().Address)

	cfg.Routing = false
	_, err = newPlanner(&cfg, cache, newLogger(&cfg), nil)
	require.NoError(t, err)
}
