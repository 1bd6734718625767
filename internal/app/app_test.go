package app_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-cart/internal/app"
	"github.com/noah-isme/toko-cart/internal/config"
	"github.com/noah-isme/toko-cart/internal/events"
)

type recordingEnqueuer struct {
	mu    sync.Mutex
	tasks []*asynq.Task
}

func (r *recordingEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, task)
	return &asynq.TaskInfo{ID: "t"}, nil
}

func testConfig(storeName string) *config.Config {
	return &config.Config{
		AppEnv:             "test",
		CartStore:          storeName,
		CartTTL:            time.Hour,
		CartDefaultTaxRate: 21,
		CartLockTTL:        time.Second,
		CartLockWait:       time.Second,
		RateLimitWindow:    time.Minute,
		RateLimitMax:       100,
		RateLimitStrategy:  "sliding",
		IdempotencyTTL:     time.Minute,
		EventsRedisChannel: "cart-events",
		EventsTasksQueue:   "cart",
		MetricsEnabled:     true,
		MetricsNamespace:   "test",
		MetricsBuckets:     "15,150",
		ServiceName:        "toko-cart",
	}
}

func send(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAppRedisStoreEndToEnd(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	tasks := &recordingEnqueuer{}
	registry := prometheus.NewRegistry()
	a, err := app.New(context.Background(), app.Dependencies{
		Config:   testConfig(config.StoreRedis),
		Logger:   zerolog.Nop(),
		Redis:    client,
		Tasks:    tasks,
		Registry: registry,
	})
	require.NoError(t, err)

	rec := send(t, a.Handler, http.MethodPut, "/api/v1/catalog/products/3", `{"name":"Lamp","price":2000}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = send(t, a.Handler, http.MethodPost, "/api/v1/carts/default/items", `{"model":{"type":"product","id":3},"qty":2}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.True(t, mr.Exists("cart.default"))

	rec = send(t, a.Handler, http.MethodGet, "/api/v1/carts/default", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data struct {
			Summary struct {
				Count int   `json:"count"`
				Total int64 `json:"total"`
			} `json:"summary"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 2, body.Data.Summary.Count)
	require.Equal(t, int64(4000), body.Data.Summary.Total)

	require.Len(t, tasks.tasks, 1)
	require.Equal(t, events.TaskTypeCartEvent, tasks.tasks[0].Type())

	rec = send(t, a.Handler, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "test_cart_events_total")
	require.Contains(t, rec.Body.String(), "test_cart_store_duration_ms")
	require.Contains(t, rec.Body.String(), `le="15"`)
	require.Contains(t, rec.Body.String(), `le="150"`)

	rec = send(t, a.Handler, http.MethodGet, "/health/ready", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"redis":"ok"`)
}

func TestAppMemoryStoreWithoutRedis(t *testing.T) {
	cfg := testConfig(config.StoreMemory)
	cfg.MetricsEnabled = false
	a, err := app.New(context.Background(), app.Dependencies{Config: cfg, Logger: zerolog.Nop()})
	require.NoError(t, err)

	rec := send(t, a.Handler, http.MethodPost, "/api/v1/carts/wishlist/items", `{"id":9,"name":"Pen","price":100,"qty":1}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = send(t, a.Handler, http.MethodPost, "/api/v1/carts/wishlist/items", `{"model":{"type":"product","id":3}}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	require.Equal(t, http.StatusNotFound, send(t, a.Handler, http.MethodGet, "/metrics", "").Code)
	require.Equal(t, http.StatusNotFound, send(t, a.Handler, http.MethodGet, "/api/v1/catalog/products/3", "").Code)
	require.Equal(t, http.StatusOK, send(t, a.Handler, http.MethodGet, "/health/ready", "").Code)
}

func TestAppRejectsMissingBackends(t *testing.T) {
	_, err := app.New(context.Background(), app.Dependencies{Config: testConfig(config.StoreRedis), Logger: zerolog.Nop()})
	require.Error(t, err)

	_, err = app.New(context.Background(), app.Dependencies{Config: testConfig(config.StorePostgres), Logger: zerolog.Nop()})
	require.Error(t, err)

	_, err = app.New(context.Background(), app.Dependencies{Logger: zerolog.Nop()})
	require.Error(t, err)
}

func TestAppRejectsOversizedBodies(t *testing.T) {
	a, err := app.New(context.Background(), app.Dependencies{Config: testConfig(config.StoreMemory), Logger: zerolog.Nop(), Registry: prometheus.NewRegistry()})
	require.NoError(t, err)

	rec := send(t, a.Handler, http.MethodPost, "/api/v1/carts/default/items", `{"name":"`+strings.Repeat("x", 2<<20)+`"}`)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}
