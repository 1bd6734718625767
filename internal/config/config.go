package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Store backends accepted by CART_STORE.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string

	CartStore          string
	CartTTL            time.Duration
	CartDefaultTaxRate int
	CartLockTTL        time.Duration
	CartLockWait       time.Duration
	RateLimitWindow    time.Duration
	RateLimitMax       int
	RateLimitStrategy  string
	IdempotencyTTL     time.Duration

	EventsRedisChannel string
	EventsTasksEnabled bool
	EventsTasksQueue   string

	LogFormat        string
	LogLevel         string
	MetricsEnabled   bool
	MetricsNamespace string
	MetricsBuckets   string
	TracingEnabled   bool
	TracingExporter  string
	TracingSample    float64
	OTLPEndpoint     string
	ServiceName      string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		CartStore:          strings.ToLower(valueOrDefault(k.String("CART_STORE"), StoreMemory)),
		CartTTL:            parseDuration(k.String("CART_TTL"), "168h"),
		CartDefaultTaxRate: parseInt(k.String("CART_DEFAULT_TAX_RATE"), 21),
		CartLockTTL:        parseDuration(k.String("CART_LOCK_TTL"), "5s"),
		CartLockWait:       parseDuration(k.String("CART_LOCK_WAIT"), "2s"),
		RateLimitWindow:    parseDuration(k.String("CART_RATE_LIMIT_WINDOW"), "1m"),
		RateLimitMax:       parseInt(k.String("CART_RATE_LIMIT_MAX"), 120),
		RateLimitStrategy:  strings.ToLower(valueOrDefault(k.String("CART_RATE_LIMIT_STRATEGY"), "sliding")),
		IdempotencyTTL:     parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),

		EventsRedisChannel: strings.TrimSpace(k.String("EVENTS_REDIS_CHANNEL")),
		EventsTasksEnabled: parseBool(k.String("EVENTS_TASKS_ENABLED")),
		EventsTasksQueue:   valueOrDefault(k.String("EVENTS_TASKS_QUEUE"), "cart"),

		LogFormat:        valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
		LogLevel:         valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
		MetricsEnabled:   parseBoolDefault(k.String("OBS_ENABLE_METRICS"), true),
		MetricsNamespace: valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "toko_cart"),
		MetricsBuckets:   strings.TrimSpace(k.String("OBS_METRICS_BUCKETS_MS")),
		TracingEnabled:   parseBool(k.String("OBS_ENABLE_TRACING")),
		TracingExporter:  strings.ToLower(valueOrDefault(k.String("OBS_TRACING_EXPORTER"), "otlp")),
		TracingSample:    parseFloat(k.String("OBS_TRACING_SAMPLE_RATIO"), 1),
		OTLPEndpoint:     strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
		ServiceName:      valueOrDefault(k.String("OBS_SERVICE_NAME"), "toko-cart"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.CartStore {
	case StoreMemory:
	case StoreRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required for the redis cart store")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres cart store")
		}
	default:
		return fmt.Errorf("CART_STORE %q is not one of memory, redis, postgres", c.CartStore)
	}
	if c.CartDefaultTaxRate < 0 || c.CartDefaultTaxRate > 100 {
		return fmt.Errorf("CART_DEFAULT_TAX_RATE %d out of range", c.CartDefaultTaxRate)
	}
	if c.RateLimitStrategy != "sliding" && c.RateLimitStrategy != "fixed" {
		return fmt.Errorf("CART_RATE_LIMIT_STRATEGY %q is not one of sliding, fixed", c.RateLimitStrategy)
	}
	if c.EventsTasksEnabled && c.RedisURL == "" {
		return errors.New("REDIS_URL is required when EVENTS_TASKS_ENABLED is set")
	}
	return nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func parseFloat(value string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

func parseBool(value string) bool {
	return parseBoolDefault(value, false)
}

func parseBoolDefault(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
