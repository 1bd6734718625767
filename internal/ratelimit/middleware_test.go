package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string, time.Duration, int) (bool, int, time.Time, error) {
	return false, 0, time.Time{}, errors.New("redis down")
}

func cartRouter(h Handler) chi.Router {
	r := chi.NewRouter()
	r.With(h.Middleware).Post("/carts/{instance}/items", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	return r
}

func TestHandlerMiddlewareEnforcesLimitPerInstance(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	router := cartRouter(Handler{
		Limiter: Limiter{Client: client, Prefix: "ratelimit:"},
		Config:  Config{Key: CartWriteKey, Window: time.Minute, Max: 1},
	})

	post := func(instance string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/carts/"+instance+"/items", nil)
		req.RemoteAddr = "10.0.0.7:5555"
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	require.Equal(t, http.StatusCreated, post("default").Code)

	limited := post("default")
	require.Equal(t, http.StatusTooManyRequests, limited.Code)
	require.Equal(t, "1", limited.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "0", limited.Header().Get("X-RateLimit-Remaining"))
	require.NotEmpty(t, limited.Header().Get("Retry-After"))
	require.Contains(t, limited.Body.String(), "RATE_LIMITED")

	require.Equal(t, http.StatusCreated, post("wishlist").Code)
}

func TestHandlerMiddlewareOnError(t *testing.T) {
	var reported error
	router := cartRouter(Handler{
		Limiter: failingLimiter{},
		Config:  Config{Key: CartWriteKey, Window: time.Second, Max: 1},
		OnError: func(err error) { reported = err },
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/carts/default/items", nil))
	require.Equal(t, http.StatusCreated, rr.Code)
	require.EqualError(t, reported, "redis down")
}

func TestCartWriteKey(t *testing.T) {
	var key string
	r := chi.NewRouter()
	r.Post("/carts/{instance}/items", func(w http.ResponseWriter, r *http.Request) { key = CartWriteKey(r) })

	req := httptest.NewRequest(http.MethodPost, "/carts/wishlist/items", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	r.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "cart:wishlist:203.0.113.9", key)

	req = httptest.NewRequest(http.MethodPost, "/carts/wishlist/items", nil)
	req.Header.Set("X-Customer-ID", "cust-1")
	r.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "cart:wishlist:cust-1", key)
}
