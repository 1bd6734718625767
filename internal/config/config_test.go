package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-cart/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"CART_STORE":            "",
		"CART_DEFAULT_TAX_RATE": "",
		"CART_TTL":              "",
		"PORT":                  "",
		"EVENTS_TASKS_ENABLED":  "",
		"OBS_ENABLE_METRICS":    "",
	})
	require.NoError(t, err)
	require.Equal(t, config.StoreMemory, cfg.CartStore)
	require.Equal(t, 21, cfg.CartDefaultTaxRate)
	require.Equal(t, 168*time.Hour, cfg.CartTTL)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.True(t, cfg.MetricsEnabled)
	require.False(t, cfg.EventsTasksEnabled)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"CART_STORE":             "Redis",
		"REDIS_URL":              "redis://localhost:6379/0",
		"CART_DEFAULT_TAX_RATE":  "19",
		"CART_RATE_LIMIT_WINDOW": "30s",
		"CART_RATE_LIMIT_MAX":    "5",
		"CORS_ALLOWED_ORIGINS":   "https://a.example, https://b.example ,",
		"OBS_ENABLE_METRICS":     "off",
		"PORT":                   ":9090",
	})
	require.NoError(t, err)
	require.Equal(t, config.StoreRedis, cfg.CartStore)
	require.Equal(t, 19, cfg.CartDefaultTaxRate)
	require.Equal(t, 30*time.Second, cfg.RateLimitWindow)
	require.Equal(t, 5, cfg.RateLimitMax)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	require.False(t, cfg.MetricsEnabled)
	require.Equal(t, ":9090", cfg.HTTPAddr())
}

func TestLoadValidates(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{"CART_STORE": "redis", "REDIS_URL": ""})
	require.Error(t, err)

	_, err = config.LoadForTests(map[string]string{"CART_STORE": "postgres", "DATABASE_URL": ""})
	require.Error(t, err)

	_, err = config.LoadForTests(map[string]string{"CART_STORE": "etcd"})
	require.Error(t, err)

	_, err = config.LoadForTests(map[string]string{"CART_STORE": "memory", "CART_DEFAULT_TAX_RATE": "150"})
	require.Error(t, err)
}

func TestLoadObservabilityAndLimits(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"CART_RATE_LIMIT_STRATEGY": "FIXED",
		"OBS_TRACING_EXPORTER":     "none",
		"OBS_TRACING_SAMPLE_RATIO": "0.25",
		"OBS_METRICS_BUCKETS_MS":   " 10,50,200 ",
	})
	require.NoError(t, err)
	require.Equal(t, "fixed", cfg.RateLimitStrategy)
	require.Equal(t, "none", cfg.TracingExporter)
	require.InDelta(t, 0.25, cfg.TracingSample, 1e-9)
	require.Equal(t, "10,50,200", cfg.MetricsBuckets)

	_, err = config.LoadForTests(map[string]string{"CART_RATE_LIMIT_STRATEGY": "leaky"})
	require.Error(t, err)
}
