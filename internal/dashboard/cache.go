// Package dashboard caches rendered dashboard views in Redis. The cache is
// never authoritative: a miss recomputes from the stores, and every
// lifecycle or payment state change drops the affected keys.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Aldorax/soo-ade/internal/platform/redis"

	"github.com/google/uuid"
)

const (
	adminKey    = "dashboard:admin"
	userKeyBase = "dashboard:user:"
)

// Cache wraps the Redis client. A nil client (Redis not configured)
// degrades every operation to a no-op miss.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{client: client, ttl: ttl, logger: logger}
}

// GetAdmin returns the cached admin dashboard JSON, or ok=false on a miss.
func (c *Cache) GetAdmin(ctx context.Context) ([]byte, bool) {
	return c.get(ctx, adminKey)
}

// SetAdmin stores the rendered admin dashboard.
func (c *Cache) SetAdmin(ctx context.Context, payload []byte) {
	c.set(ctx, adminKey, payload)
}

// GetUser returns the cached applicant dashboard JSON, or ok=false on a miss.
func (c *Cache) GetUser(ctx context.Context, userID uuid.UUID) ([]byte, bool) {
	return c.get(ctx, userKeyBase+userID.String())
}

// SetUser stores the rendered applicant dashboard.
func (c *Cache) SetUser(ctx context.Context, userID uuid.UUID, payload []byte) {
	c.set(ctx, userKeyBase+userID.String(), payload)
}

// InvalidateAdmin drops the admin dashboard view.
func (c *Cache) InvalidateAdmin(ctx context.Context) {
	c.del(ctx, adminKey)
}

// InvalidateUser drops one applicant's dashboard view.
func (c *Cache) InvalidateUser(ctx context.Context, userID uuid.UUID) {
	c.del(ctx, userKeyBase+userID.String())
}

func (c *Cache) get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.warn(ctx, "dashboard cache read failed", key, err)
		}
		return nil, false
	}
	return payload, true
}

func (c *Cache) set(ctx context.Context, key string, payload []byte) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.warn(ctx, "dashboard cache write failed", key, err)
	}
}

func (c *Cache) del(ctx context.Context, key string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.warn(ctx, "dashboard cache invalidation failed", key, err)
	}
}

func (c *Cache) warn(ctx context.Context, msg, key string, err error) {
	if c.logger != nil {
		c.logger.WarnContext(ctx, msg, "key", key, "error", err)
	}
}
