package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores catalog documents as JSON strings in Redis. A nil Cache, or
// one without a client, behaves as an empty store that drops writes.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a document store. A ttl of zero or less keeps
// documents until they are deleted.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: max(ttl, 0)}
}

func (c *Cache) usable(key string) bool {
	return c != nil && c.client != nil && key != ""
}

// GetJSON decodes the document at key into dst and reports whether it existed.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if !c.usable(key) {
		return false, nil
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("catalog: get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("catalog: decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores v at key and resets its expiry.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if !c.usable(key) {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("catalog: encode %s: %w", key, err)
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

// Delete removes the documents at keys.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if c == nil || c.client == nil || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// document loads one typed record, mapping a missing key to ErrNotFound.
func document[T any](ctx context.Context, c *Cache, key string) (T, error) {
	var v T
	ok, err := c.GetJSON(ctx, key, &v)
	if err != nil {
		return v, err
	}
	if !ok {
		return v, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return v, nil
}
