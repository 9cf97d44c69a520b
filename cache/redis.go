package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xraph/gatehouse"
)

// Compile-time interface check.
var _ gatehouse.CapabilityCache = (*Redis)(nil)

// Redis is a capability cache shared by every engine instance pointing at
// the same Redis database. Generations are INCR counters, so an
// invalidation on one instance is seen by all of them.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// RedisOption configures the Redis cache.
type RedisOption func(*Redis)

// WithRedisTTL sets the time-to-live of cached projections.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) { r.ttl = ttl }
}

// WithKeyPrefix sets the prefix of every key the cache writes.
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *Redis) { r.prefix = prefix }
}

// WithRedisLogger sets the logger used for Redis failures.
func WithRedisLogger(l *slog.Logger) RedisOption {
	return func(r *Redis) { r.logger = l }
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, opts ...RedisOption) *Redis {
	r := &Redis{
		client: client,
		prefix: "gatehouse",
		ttl:    5 * time.Minute,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DialRedis parses a redis:// URL, connects and pings.
func DialRedis(ctx context.Context, url string, opts ...RedisOption) (*Redis, error) {
	o, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	o.DialTimeout = 5 * time.Second
	o.ReadTimeout = 3 * time.Second
	o.WriteTimeout = 3 * time.Second

	client := redis.NewClient(o)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedis(client, opts...), nil
}

// Close closes the underlying client.
func (r *Redis) Close() error { return r.client.Close() }

func (r *Redis) globalKey() string                { return r.prefix + ":gen:all" }
func (r *Redis) tenantKey(tenantID string) string { return r.prefix + ":gen:t:" + tenantID }
func (r *Redis) userKey(userID string) string     { return r.prefix + ":gen:u:" + userID }
func (r *Redis) capsKey(userID string) string     { return r.prefix + ":caps:" + userID }

// Generation returns the current generation for the user in tenant. On
// Redis failure it returns zero; Get and Set re-check the generation, so a
// zero stamp can never be served stale.
func (r *Redis) Generation(ctx context.Context, tenantID, userID string) uint64 {
	gen, err := r.generation(ctx, tenantID, userID)
	if err != nil {
		r.logger.Warn("gatehouse cache: read generation", "user_id", userID, "error", err)
		return 0
	}
	return gen
}

func (r *Redis) generation(ctx context.Context, tenantID, userID string) (uint64, error) {
	vals, err := r.client.MGet(ctx, r.globalKey(), r.tenantKey(tenantID), r.userKey(userID)).Result()
	if err != nil {
		return 0, err
	}
	var sum uint64
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse generation %q: %w", s, err)
		}
		sum += n
	}
	return sum, nil
}

// Get returns the cached projection if its stamp is current.
func (r *Redis) Get(ctx context.Context, tenantID, userID string) (*gatehouse.Capabilities, bool) {
	data, err := r.client.Get(ctx, r.capsKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		r.logger.Warn("gatehouse cache: get", "user_id", userID, "error", err)
		return nil, false
	}

	var caps gatehouse.Capabilities
	if err := json.Unmarshal(data, &caps); err != nil {
		r.client.Del(ctx, r.capsKey(userID))
		return nil, false
	}
	current, err := r.generation(ctx, tenantID, userID)
	if err != nil || caps.Generation != current || caps.TenantID != tenantID {
		return nil, false
	}
	return &caps, true
}

// Set stores caps unless its generation is already stale.
func (r *Redis) Set(ctx context.Context, caps *gatehouse.Capabilities) {
	if caps == nil {
		return
	}
	current, err := r.generation(ctx, caps.TenantID, caps.UserID)
	if err != nil || current != caps.Generation {
		return
	}
	data, err := json.Marshal(caps)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, r.capsKey(caps.UserID), data, r.ttl).Err(); err != nil {
		r.logger.Warn("gatehouse cache: set", "user_id", caps.UserID, "error", err)
	}
}

// InvalidateUser bumps the user's generation and drops the entry.
func (r *Redis) InvalidateUser(ctx context.Context, userID string) {
	pipe := r.client.TxPipeline()
	pipe.Incr(ctx, r.userKey(userID))
	pipe.Del(ctx, r.capsKey(userID))
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Warn("gatehouse cache: invalidate user", "user_id", userID, "error", err)
	}
}

// InvalidateTenant bumps the tenant's generation.
func (r *Redis) InvalidateTenant(ctx context.Context, tenantID string) {
	if err := r.client.Incr(ctx, r.tenantKey(tenantID)).Err(); err != nil {
		r.logger.Warn("gatehouse cache: invalidate tenant", "tenant_id", tenantID, "error", err)
	}
}

// InvalidateAll bumps the global generation.
func (r *Redis) InvalidateAll(ctx context.Context) {
	if err := r.client.Incr(ctx, r.globalKey()).Err(); err != nil {
		r.logger.Warn("gatehouse cache: invalidate all", "error", err)
	}
}
