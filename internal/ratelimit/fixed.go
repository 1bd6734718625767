package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// Strategies accepted by CART_RATE_LIMIT_STRATEGY.
const (
	StrategySliding = "sliding"
	StrategyFixed   = "fixed"
)

// FixedWindow counts events in fixed buckets using a ulule limiter store.
type FixedWindow struct {
	Store limiter.Store
}

// NewFixedWindow uses Redis when a client is given and process memory otherwise.
func NewFixedWindow(client *redis.Client, prefix string) (FixedWindow, error) {
	if client == nil {
		return FixedWindow{Store: memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: prefix})}, nil
	}
	store, err := limiterredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix})
	if err != nil {
		return FixedWindow{}, fmt.Errorf("fixed window store: %w", err)
	}
	return FixedWindow{Store: store}, nil
}

// Allow implements Allower.
func (f FixedWindow) Allow(ctx context.Context, key string, window time.Duration, limit int) (bool, int, time.Time, error) {
	if f.Store == nil || limit <= 0 || window <= 0 {
		return true, limit, time.Now().Add(window), nil
	}
	lctx, err := limiter.New(f.Store, limiter.Rate{Period: window, Limit: int64(limit)}).Get(ctx, key)
	if err != nil {
		return false, 0, time.Now().Add(window), fmt.Errorf("rate limit %s: %w", key, err)
	}
	return !lctx.Reached, int(lctx.Remaining), time.Unix(lctx.Reset, 0), nil
}

// New builds the Allower for strategy.
func New(strategy string, client *redis.Client, prefix string) (Allower, error) {
	switch strategy {
	case "", StrategySliding:
		return Limiter{Client: client, Prefix: prefix}, nil
	case StrategyFixed:
		return NewFixedWindow(client, prefix)
	default:
		return nil, fmt.Errorf("unknown rate limit strategy %q", strategy)
	}
}
