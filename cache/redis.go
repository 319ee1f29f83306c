package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/lecternhq/lectern"
	"github.com/lecternhq/lectern/id"
)

// Compile-time interface check.
var _ lectern.Cache = (*Redis)(nil)

const (
	entryPrefix = "lectern:rr:"   // entry: JSON ResolveResult
	userPrefix  = "lectern:usr:"  // index set: user -> entry keys
	permPrefix  = "lectern:perm:" // index set: permission key -> entry keys
	resPrefix   = "lectern:res:"  // index set: resource on path -> entry keys
)

// Redis is a resolution cache backed by Redis, suitable for deployments
// running several engine instances against the same store. Entries expire
// by TTL; index sets carry a longer TTL so invalidation keeps working for
// the full life of every entry they reference.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisOption configures the Redis cache.
type RedisOption func(*Redis)

// WithRedisTTL sets the entry time-to-live.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) { r.ttl = ttl }
}

// NewRedis creates a Redis-backed resolution cache on an existing client.
func NewRedis(client *redis.Client, opts ...RedisOption) *Redis {
	r := &Redis{
		client: client,
		ttl:    5 * time.Minute,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewRedisFromAddr connects a new client and verifies connectivity.
func NewRedisFromAddr(ctx context.Context, addr, password string, opts ...RedisOption) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedis(client, opts...), nil
}

// Close closes the underlying client.
func (r *Redis) Close() error { return r.client.Close() }

func entryKey(req *lectern.ResolveRequest) string {
	return entryPrefix + req.UserID + keySep + req.ResourceID.String() + keySep + req.Permission
}

// Get returns a cached resolution, if present. Redis failures degrade to a
// cache miss rather than failing the resolution.
func (r *Redis) Get(ctx context.Context, req *lectern.ResolveRequest) (*lectern.ResolveResult, bool) {
	raw, err := r.client.Get(ctx, entryKey(req)).Result()
	if err != nil {
		return nil, false
	}
	var result lectern.ResolveResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, false
	}
	return &result, true
}

// Set stores a resolution and registers it in the user, permission, and
// per-path-resource index sets.
func (r *Redis) Set(ctx context.Context, req *lectern.ResolveRequest, path []id.ResourceID, result *lectern.ResolveResult) {
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	key := entryKey(req)
	indexTTL := 2 * r.ttl

	pipe := r.client.Pipeline()
	pipe.Set(ctx, key, data, r.ttl)
	pipe.SAdd(ctx, userPrefix+req.UserID, key)
	pipe.Expire(ctx, userPrefix+req.UserID, indexTTL)
	pipe.SAdd(ctx, permPrefix+req.Permission, key)
	pipe.Expire(ctx, permPrefix+req.Permission, indexTTL)
	for _, resID := range path {
		pipe.SAdd(ctx, resPrefix+resID.String(), key)
		pipe.Expire(ctx, resPrefix+resID.String(), indexTTL)
	}
	_, _ = pipe.Exec(ctx)
}

// InvalidateUser removes all cached resolutions for a user.
func (r *Redis) InvalidateUser(ctx context.Context, userID string) {
	r.dropIndexed(ctx, userPrefix+userID)
}

// InvalidatePermission removes all cached resolutions of a permission key.
func (r *Redis) InvalidatePermission(ctx context.Context, permKey string) {
	r.dropIndexed(ctx, permPrefix+permKey)
}

// InvalidateResources removes every cached resolution whose recorded
// ancestor path touches any of the given resources.
func (r *Redis) InvalidateResources(ctx context.Context, resIDs ...id.ResourceID) {
	for _, resID := range resIDs {
		r.dropIndexed(ctx, resPrefix+resID.String())
	}
}

// Purge removes every lectern cache key, entries and indexes alike.
func (r *Redis) Purge(ctx context.Context) {
	for _, pattern := range []string{entryPrefix, userPrefix, permPrefix, resPrefix} {
		iter := r.client.Scan(ctx, 0, pattern+"*", 0).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if len(keys) > 0 {
			r.client.Del(ctx, keys...)
		}
	}
}

// dropIndexed deletes every entry referenced by the index set, then the
// set itself.
func (r *Redis) dropIndexed(ctx context.Context, indexKey string) {
	keys, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return
	}
	pipe := r.client.Pipeline()
	if len(keys) > 0 {
		pipe.Del(ctx, keys...)
	}
	pipe.Del(ctx, indexKey)
	_, _ = pipe.Exec(ctx)
}
