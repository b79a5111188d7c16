package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go-rbac-admin/internal/metrics"
	"go-rbac-admin/internal/model"
	"go-rbac-admin/internal/repository"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "rbac:role_permissions:"

// RolePermissionCache decorates a Directory, keeping each role's permission
// set in Redis for ttl. Reads may be stale until Invalidate runs or the
// entry expires.
type RolePermissionCache struct {
	repository.Directory

	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

func NewRolePermissionCache(dir repository.Directory, client *redis.Client, ttl time.Duration, logger *slog.Logger) *RolePermissionCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RolePermissionCache{
		Directory: dir,
		client:    client,
		ttl:       ttl,
		logger:    logger,
	}
}

func roleKey(roleID uint) string {
	return keyPrefix + strconv.FormatUint(uint64(roleID), 10)
}

// RolePermissions serves from Redis and falls back to the wrapped directory.
// Redis failures degrade to direct reads.
func (c *RolePermissionCache) RolePermissions(ctx context.Context, roleID uint) ([]model.Permission, error) {
	key := roleKey(roleID)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var permissions []model.Permission
		if err := json.Unmarshal(raw, &permissions); err == nil {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			return permissions, nil
		}
		c.logger.Warn("discarding corrupt cache entry", slog.String("key", key))
	case errors.Is(err, redis.Nil):
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	default:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		c.logger.Warn("role permission cache unavailable", slog.Any("error", err))
		return c.Directory.RolePermissions(ctx, roleID)
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		permissions, err := c.Directory.RolePermissions(ctx, roleID)
		if err != nil {
			return nil, err
		}
		payload, err := json.Marshal(permissions)
		if err != nil {
			return nil, fmt.Errorf("cache: encode %s: %w", key, err)
		}
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.Warn("role permission cache write failed", slog.Any("error", err))
		}
		return permissions, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.Permission), nil
}

// Invalidate drops the cached permission sets of the given roles.
func (c *RolePermissionCache) Invalidate(ctx context.Context, roleIDs ...uint) error {
	if len(roleIDs) == 0 {
		return nil
	}
	keys := make([]string, len(roleIDs))
	for i, id := range roleIDs {
		keys[i] = roleKey(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache: invalidate: %w", err)
	}
	return nil
}
