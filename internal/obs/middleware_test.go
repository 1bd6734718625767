package obs_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-cart/internal/obs"
)

func cartRouter(mw ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(mw...)
	r.Get("/carts/{instance}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Post("/carts/{instance}/items", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	return r
}

func TestHTTPMetricsUseRoutePattern(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics("toko_cart", []float64{1, 10}, registry)
	router := cartRouter(obs.HTTPObs{Metrics: metrics}.Middleware)

	for _, name := range []string{"default", "wishlist"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/carts/"+name, nil))
		require.Equal(t, http.StatusNoContent, rr.Code)
	}

	total := testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodGet, "/carts/{instance}", "204"))
	require.Equal(t, float64(2), total)
	require.NotZero(t, testutil.CollectAndCount(metrics.ReqDur))
	require.Zero(t, testutil.ToFloat64(metrics.InFlight))
}

func TestHTTPMetricsExplicitPattern(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics("toko_cart", nil, registry)
	handler := obs.HTTPObs{Metrics: metrics}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	req = req.WithContext(obs.WithRoutePattern(req.Context(), "/health/ready"))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, float64(1), testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodGet, "/health/ready", "200")))
}

func TestHTTPObsWithoutMetricsIsPassthrough(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	obs.HTTPObs{}.Middleware(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, called)
}

func TestParseBucketsCSV(t *testing.T) {
	require.Equal(t, []float64{5, 10, 25}, obs.ParseBucketsCSV("25, 5,10,bogus"))
	require.Empty(t, obs.ParseBucketsCSV(""))
	require.Empty(t, obs.ParseBucketsCSV("0,-5,x"))
}

func TestRequestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := obs.NewLoggerTo(&buf, "json", "debug")
	router := cartRouter(obs.RequestLogger{Logger: logger}.Middleware)

	req := httptest.NewRequest(http.MethodPost, "/carts/wishlist/items", nil)
	req.Header.Set("X-Customer-ID", "cust-9")
	router.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "error", entry["level"])
	require.Equal(t, "http_request", entry["message"])
	require.Equal(t, "/carts/{instance}/items", entry["route"])
	require.Equal(t, "wishlist", entry["cart_instance"])
	require.Equal(t, "cust-9", entry["customer_id"])
	require.EqualValues(t, 500, entry["status"])
}

func TestNewLoggerLevelFallback(t *testing.T) {
	var buf bytes.Buffer
	logger := obs.NewLoggerTo(&buf, "json", "nonsense")
	logger.Debug().Msg("hidden")
	require.Zero(t, buf.Len())
	logger.Info().Msg("shown")
	require.Contains(t, buf.String(), "shown")
}

func TestCartMetricsRegister(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := obs.NewCartMetrics("toko_cart", registry)
	m.EventsTotal.WithLabelValues("cart.added").Inc()
	m.StoreDuration.WithLabelValues("redis", "get", "ok").Observe(1.5)

	require.Equal(t, float64(1), testutil.ToFloat64(m.EventsTotal.WithLabelValues("cart.added")))
	require.Equal(t, 1, testutil.CollectAndCount(m.StoreDuration))

	again := obs.NewCartMetrics("toko_cart", registry)
	require.Equal(t, float64(1), testutil.ToFloat64(again.EventsTotal.WithLabelValues("cart.added")))
}
