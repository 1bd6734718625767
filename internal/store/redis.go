package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/toko-cart/internal/cart"
)

// Redis persists cart content as JSON strings.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis constructs a Redis backed store. A ttl of zero keeps carts until removed.
func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

func (r *Redis) key(k string) string { return r.prefix + k }

// Get implements cart.Store.
func (r *Redis) Get(ctx context.Context, key string) (*cart.Content, error) {
	if r.client == nil {
		return nil, ErrNotConfigured
	}
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var content cart.Content
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, err
	}
	return &content, nil
}

// Put implements cart.Store.
func (r *Redis) Put(ctx context.Context, key string, content *cart.Content) error {
	if r.client == nil {
		return ErrNotConfigured
	}
	data, err := json.Marshal(content)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(key), data, r.ttl).Err()
}

// Remove implements cart.Store.
func (r *Redis) Remove(ctx context.Context, key string) error {
	if r.client == nil {
		return ErrNotConfigured
	}
	return r.client.Del(ctx, r.key(key)).Err()
}
