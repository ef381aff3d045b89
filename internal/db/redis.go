// internal/db/redis.go
package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Marga-Ghale/ora-projects-backend/internal/repository"
	"github.com/Marga-Ghale/ora-projects-backend/pkg/logger"
)

type RedisDB struct {
	Client *redis.Client
}

func NewRedisDB(redisURL string) (*RedisDB, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info().Msg("[Redis] connected to Redis")
	return &RedisDB{Client: client}, nil
}

func (r *RedisDB) Close() {
	if r.Client != nil {
		r.Client.Close()
		logger.Info().Msg("[Redis] connection closed")
	}
}

// Cache methods

func (r *RedisDB) SetCache(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, "cache:"+key, data, expiration).Err()
}

// GetCache returns redis.Nil when the key is absent.
func (r *RedisDB) GetCache(ctx context.Context, key string, dest interface{}) error {
	data, err := r.Client.Get(ctx, "cache:"+key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (r *RedisDB) InvalidateCache(ctx context.Context, pattern string) error {
	var keys []string
	iter := r.Client.Scan(ctx, 0, "cache:"+pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) > 0 {
		return r.Client.Del(ctx, keys...).Err()
	}
	return nil
}

// ============================================
// Permission cache
// ============================================

// PermissionCache stores the membership (with role and permission set) that
// project access checks resolve, keyed by project, generation and user.
// InvalidateProject bumps the project's generation, so a write prepared
// against an older generation lands under a key no reader looks up. Errors
// are logged and treated as misses so Redis outages only cost latency.
type PermissionCache struct {
	redis *RedisDB
	ttl   time.Duration
}

func NewPermissionCache(r *RedisDB, ttl time.Duration) *PermissionCache {
	return &PermissionCache{redis: r, ttl: ttl}
}

func accessKey(projectID string, generation int64, userID string) string {
	return fmt.Sprintf("access:%s:%d:%s", projectID, generation, userID)
}

func generationKey(projectID string) string {
	return "cache:accessgen:" + projectID
}

// Generation returns the project's current cache generation. ok is false
// when Redis cannot be read; callers must then skip the cache.
func (c *PermissionCache) Generation(ctx context.Context, projectID string) (int64, bool) {
	gen, err := c.redis.Client.Get(ctx, generationKey(projectID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		logger.Warn().Err(err).Str("projectId", projectID).Msg("[PermissionCache] generation read failed")
		return 0, false
	}
	return gen, true
}

func (c *PermissionCache) GetAccess(ctx context.Context, projectID, userID string, generation int64) (*repository.ProjectMember, bool) {
	var member repository.ProjectMember
	err := c.redis.GetCache(ctx, accessKey(projectID, generation, userID), &member)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn().Err(err).Str("projectId", projectID).Msg("[PermissionCache] read failed")
		}
		return nil, false
	}
	return &member, true
}

func (c *PermissionCache) SetAccess(ctx context.Context, member *repository.ProjectMember, generation int64) {
	if err := c.redis.SetCache(ctx, accessKey(member.ProjectID, generation, member.UserID), member, c.ttl); err != nil {
		logger.Warn().Err(err).Str("projectId", member.ProjectID).Msg("[PermissionCache] write failed")
	}
}

func (c *PermissionCache) InvalidateProject(ctx context.Context, projectID string) {
	if err := c.redis.Client.Incr(ctx, generationKey(projectID)).Err(); err != nil {
		logger.Warn().Err(err).Str("projectId", projectID).Msg("[PermissionCache] generation bump failed")
	}
	if err := c.redis.InvalidateCache(ctx, fmt.Sprintf("access:%s:*", projectID)); err != nil {
		logger.Warn().Err(err).Str("projectId", projectID).Msg("[PermissionCache] invalidate failed")
	}
}
