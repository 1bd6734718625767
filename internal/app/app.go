package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/toko-cart/internal/cart"
	"github.com/noah-isme/toko-cart/internal/catalog"
	"github.com/noah-isme/toko-cart/internal/common"
	"github.com/noah-isme/toko-cart/internal/config"
	"github.com/noah-isme/toko-cart/internal/events"
	"github.com/noah-isme/toko-cart/internal/health"
	"github.com/noah-isme/toko-cart/internal/lock"
	"github.com/noah-isme/toko-cart/internal/obs"
	"github.com/noah-isme/toko-cart/internal/pricing"
	"github.com/noah-isme/toko-cart/internal/ratelimit"
	"github.com/noah-isme/toko-cart/internal/security"
	"github.com/noah-isme/toko-cart/internal/store"
)

const maxBodyBytes = 1 << 20

// Dependencies enumerates the shared clients the cart API is assembled from.
// Redis and DB are optional unless the configured store needs them.
type Dependencies struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Redis    *redis.Client
	DB       *pgxpool.Pool
	Tasks    events.TaskEnqueuer
	Registry *prometheus.Registry
	// Attributes extends the per-row attribute lookup. Nil serves built-ins only.
	Attributes *pricing.Registry
}

// App is the assembled cart API.
type App struct {
	Handler http.Handler
	Service *cart.Service
	Bus     *events.Bus
}

// New wires stores, notifiers, handlers and middleware from deps.
func New(ctx context.Context, deps Dependencies) (*App, error) {
	cfg := deps.Config
	if cfg == nil {
		return nil, errors.New("app: config is required")
	}
	logger := deps.Logger

	var (
		reg      prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if deps.Registry != nil {
		reg, gatherer = deps.Registry, deps.Registry
	}
	var (
		httpMetrics *obs.HTTPMetrics
		cartMetrics *obs.CartMetrics
	)
	if cfg.MetricsEnabled {
		httpMetrics = obs.NewHTTPMetrics(cfg.MetricsNamespace, obs.ParseBucketsCSV(cfg.MetricsBuckets), reg)
		cartMetrics = obs.NewCartMetrics(cfg.MetricsNamespace, reg)
	}

	cartStore, err := newStore(ctx, cfg, deps, cartMetrics)
	if err != nil {
		return nil, err
	}

	bus := &events.Bus{Notifiers: []events.Notifier{events.LogNotifier{Logger: logger}}}
	if cartMetrics != nil {
		bus.Notifiers = append(bus.Notifiers, events.MetricsNotifier{Counter: cartMetrics.EventsTotal})
	}
	if cfg.EventsRedisChannel != "" && deps.Redis != nil {
		bus.Notifiers = append(bus.Notifiers, events.RedisPublisher{
			Client:  deps.Redis,
			Channel: cfg.EventsRedisChannel,
			Topics:  events.CommittedTopics(),
		})
	}
	if deps.Tasks != nil {
		bus.Notifiers = append(bus.Notifiers, events.TaskNotifier{Client: deps.Tasks, Queue: cfg.EventsTasksQueue})
	}

	registry := catalog.NewRegistry()
	var products *catalog.RedisCatalog
	if deps.Redis != nil {
		products = catalog.NewRedisCatalog(catalog.NewCache(deps.Redis, 0))
		if err := registry.Register(catalog.ModelTypeProduct, products); err != nil {
			return nil, err
		}
	}

	svc, err := cart.NewService(cart.ServiceConfig{
		Store:          cartStore,
		Events:         bus,
		Models:         registry,
		DefaultTaxRate: &cfg.CartDefaultTaxRate,
		Attributes:     deps.Attributes,
		Logger:         &logger,
	})
	if err != nil {
		return nil, err
	}

	cartHandler := &cart.Handler{
		Svc:     svc,
		Models:  registry,
		LockTTL: cfg.CartLockTTL,
		Logger:  logger,
	}
	if products != nil {
		cartHandler.Customers = products
	}
	if deps.Redis != nil {
		cartHandler.Locker = lock.Locker{R: deps.Redis, Wait: cfg.CartLockWait}
	}

	limiter, err := ratelimit.New(cfg.RateLimitStrategy, deps.Redis, "ratelimit:")
	if err != nil {
		return nil, err
	}
	limit := ratelimit.Handler{
		Limiter: limiter,
		Config:  ratelimit.Config{Key: ratelimit.CartWriteKey, Window: cfg.RateLimitWindow, Max: cfg.RateLimitMax},
		OnError: func(err error) { logger.Warn().Err(err).Msg("rate limiter unavailable") },
	}
	idem := common.Idem{R: deps.Redis, TTL: cfg.IdempotencyTTL}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if cfg.TracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{HSTSMaxAge: hstsMaxAge(cfg)}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", common.IdempotencyHeader, cart.CustomerHeader},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	healthHandler := health.Handler{Probes: probes(deps)}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(security.BodyLimit{Max: maxBodyBytes}.Middleware)
		cartHandler.Mount(v, idem.Middleware, limit.Middleware)
		if products != nil {
			catalog.NewHandler(products).Mount(v, idem.Middleware)
		}
	})

	var handler http.Handler = r
	if cfg.TracingEnabled {
		handler = otelhttp.NewHandler(r, cfg.ServiceName)
	}
	return &App{Handler: handler, Service: svc, Bus: bus}, nil
}

func newStore(ctx context.Context, cfg *config.Config, deps Dependencies, metrics *obs.CartMetrics) (cart.Store, error) {
	var backend cart.Store
	switch cfg.CartStore {
	case config.StoreMemory, "":
		backend = store.NewMemory()
	case config.StoreRedis:
		if deps.Redis == nil {
			return nil, fmt.Errorf("app: %s store: %w", cfg.CartStore, store.ErrNotConfigured)
		}
		backend = store.NewRedis(deps.Redis, "", cfg.CartTTL)
	case config.StorePostgres:
		if deps.DB == nil {
			return nil, fmt.Errorf("app: %s store: %w", cfg.CartStore, store.ErrNotConfigured)
		}
		pg := store.NewPostgres(deps.DB)
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("app: ensure cart schema: %w", err)
		}
		backend = pg
	default:
		return nil, fmt.Errorf("app: unknown cart store %q", cfg.CartStore)
	}
	var duration *prometheus.HistogramVec
	if metrics != nil {
		duration = metrics.StoreDuration
	}
	return store.NewInstrumented(backend, cfg.CartStore, duration), nil
}

func probes(deps Dependencies) map[string]health.Probe {
	out := map[string]health.Probe{}
	if deps.Redis != nil {
		out["redis"] = func(ctx context.Context) error { return deps.Redis.Ping(ctx).Err() }
	}
	if deps.DB != nil {
		out["postgres"] = deps.DB.Ping
	}
	return out
}

func hstsMaxAge(cfg *config.Config) int {
	if cfg.AppEnv == "production" {
		return 31536000
	}
	return 0
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}
