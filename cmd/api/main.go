package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/noah-isme/toko-cart/internal/app"
	"github.com/noah-isme/toko-cart/internal/config"
	"github.com/noah-isme/toko-cart/internal/events"
	"github.com/noah-isme/toko-cart/internal/health"
	"github.com/noah-isme/toko-cart/internal/obs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracingEnabled := cfg.TracingEnabled
	if tracingEnabled {
		shutdown, err := obs.InitTracer(ctx, obs.TracingConfig{
			ServiceName:   cfg.ServiceName,
			Endpoint:      cfg.OTLPEndpoint,
			Exporter:      cfg.TracingExporter,
			SamplingRatio: cfg.TracingSample,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}
	cfg.TracingEnabled = tracingEnabled

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	deps := app.Dependencies{Config: cfg, Logger: logger}

	if cfg.RedisURL != "" {
		var mp metric.MeterProvider
		if cfg.MetricsEnabled {
			mp = otel.GetMeterProvider()
		}
		var client *redis.Client
		if client, err = app.OpenRedis(connectCtx, cfg, mp, logger); err != nil {
			logger.Fatal().Err(err).Msg("connect redis")
		}
		defer func() {
			if err := client.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}()
		deps.Redis = client
	}

	if cfg.CartStore == config.StorePostgres {
		var pool *pgxpool.Pool
		if pool, err = app.OpenPostgres(connectCtx, cfg); err != nil {
			logger.Fatal().Err(err).Msg("connect database")
		}
		defer pool.Close()
		deps.DB = pool
	}

	if cfg.EventsTasksEnabled {
		opt, err := app.TaskRedisOpt(cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("configure task client")
		}
		tasks := asynq.NewClient(opt)
		defer func() {
			if err := tasks.Close(); err != nil {
				logger.Error().Err(err).Msg("close task client")
			}
		}()
		deps.Tasks = tasks
	}

	a, err := app.New(connectCtx, deps)
	if err != nil {
		logger.Fatal().Err(err).Msg("assemble cart api")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown http server")
		}
	}()

	logger.Info().
		Str("addr", srv.Addr).
		Str("store", cfg.CartStore).
		Strs("event_topics", events.CommittedTopics()).
		Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
	logger.Info().Msg("server stopped")
}
