package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ViewCache is a generic JSON-backed Redis cache for read projections.
// Bind it to a specific type T; fields tagged `json:"-"` never reach Redis.
// A zero TTL stores keys without expiry.
type ViewCache[T any] struct {
	client goredis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

func NewViewCache[T any](client goredis.Cmdable, ttl time.Duration, logger *slog.Logger) *ViewCache[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &ViewCache[T]{client: client, ttl: ttl, logger: logger}
}

// Get reports a miss for absent keys, unreachable Redis and undecodable
// payloads alike. Only the latter two are logged.
func (c *ViewCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.logger.WarnContext(ctx, "view cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.WarnContext(ctx, "view cache decode failed", "key", key, "error", err)
		return nil, false
	}
	return &v, true
}

// Set stores value under key. Failures are logged and dropped.
func (c *ViewCache[T]) Set(ctx context.Context, key string, value *T) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.ErrorContext(ctx, "view cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "view cache write failed", "key", key, "error", err)
	}
}

// Delete removes key. Unlike Set, the failure is returned as well as logged:
// callers invalidating a stale copy need to know it is still there.
func (c *ViewCache[T]) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.WarnContext(ctx, "view cache delete failed", "key", key, "error", err)
		return err
	}
	return nil
}
