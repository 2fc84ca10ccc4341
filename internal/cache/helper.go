package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// GetJSON fetches key and unmarshals it into dest. Returns false on miss or
// when Redis is unavailable.
func GetJSON(ctx context.Context, key string, dest interface{}) bool {
	if client == nil {
		return false
	}
	raw, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// Corrupt entry; drop it so the next read repopulates.
		client.Del(ctx, key)
		return false
	}
	return true
}

// SetJSON marshals value and stores it under key with the given TTL.
// Failures are swallowed: the cache is best-effort.
func SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	client.Set(ctx, key, raw, ttl)
}

// Aside implements the cache-aside pattern: fill dest from the cache if the
// key is present, otherwise call load (which must populate dest), then store
// dest under key. Load errors are returned as-is and never cached.
func Aside(ctx context.Context, key string, dest interface{}, ttl time.Duration, load func() error) error {
	if GetJSON(ctx, key, dest) {
		return nil
	}

	if err := load(); err != nil {
		return err
	}
	SetJSON(ctx, key, dest, ttl)
	return nil
}

// Healthy reports whether the Redis connection is usable.
func Healthy(ctx context.Context) bool {
	if client == nil {
		return false
	}
	return client.Ping(ctx).Err() == nil
}

// Publish sends a message on a pub/sub channel. Returns redis.ErrClosed-style
// errors to the caller; a nil client is reported as unavailable.
func Publish(ctx context.Context, channel string, payload []byte) error {
	if client == nil {
		return errors.New("redis unavailable")
	}
	return client.Publish(ctx, channel, payload).Err()
}

// Subscribe opens a pub/sub subscription on the given channels.
func Subscribe(ctx context.Context, channels ...string) (*redis.PubSub, error) {
	if client == nil {
		return nil, errors.New("redis unavailable")
	}
	return client.Subscribe(ctx, channels...), nil
}
