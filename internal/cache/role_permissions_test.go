package cache_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"go-rbac-admin/internal/cache"
	"go-rbac-admin/internal/model"
	"go-rbac-admin/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingDirectory struct {
	repository.Directory

	mu    sync.Mutex
	calls int
	sets  map[uint][]model.Permission
}

func (d *countingDirectory) RolePermissions(ctx context.Context, roleID uint) ([]model.Permission, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	perms, ok := d.sets[roleID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return perms, nil
}

func (d *countingDirectory) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func setup(t *testing.T) (*miniredis.Miniredis, *countingDirectory, *cache.RolePermissionCache) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	dir := &countingDirectory{sets: map[uint][]model.Permission{
		1: {{ID: 10, Name: "post.update"}},
	}}
	return mr, dir, cache.NewRolePermissionCache(dir, client, time.Minute, nil)
}

func TestRolePermissionsCachesAfterFirstRead(t *testing.T) {
	mr, dir, c := setup(t)
	ctx := context.Background()

	first, err := c.RolePermissions(ctx, 1)
	require.NoError(t, err)
	second, err := c.RolePermissions(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "post.update", second[0].Name)
	assert.Equal(t, 1, dir.count())
	assert.True(t, mr.Exists("rbac:role_permissions:1"))
}

func TestInvalidateForcesReload(t *testing.T) {
	_, dir, c := setup(t)
	ctx := context.Background()

	_, err := c.RolePermissions(ctx, 1)
	require.NoError(t, err)

	dir.mu.Lock()
	dir.sets[1] = append(dir.sets[1], model.Permission{ID: 11, Name: "post.delete"})
	dir.mu.Unlock()

	perms, err := c.RolePermissions(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, perms, 1, "stale until invalidated")

	require.NoError(t, c.Invalidate(ctx, 1))
	perms, err = c.RolePermissions(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, perms, 2)
	assert.Equal(t, 2, dir.count())
}

func TestEntryExpires(t *testing.T) {
	mr, dir, c := setup(t)
	ctx := context.Background()

	_, err := c.RolePermissions(ctx, 1)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = c.RolePermissions(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, dir.count())
}

func TestUnknownRoleIsNotCached(t *testing.T) {
	mr, _, c := setup(t)

	_, err := c.RolePermissions(context.Background(), 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.False(t, mr.Exists("rbac:role_permissions:42"))
}

func TestCorruptEntryIsReloaded(t *testing.T) {
	mr, dir, c := setup(t)
	require.NoError(t, mr.Set("rbac:role_permissions:1", "{not json"))

	perms, err := c.RolePermissions(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, perms, 1)
	assert.Equal(t, 1, dir.count())
}

func TestRedisDownFallsBackToDirectory(t *testing.T) {
	mr, dir, c := setup(t)
	mr.Close()

	perms, err := c.RolePermissions(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, perms, 1)
	assert.Equal(t, 1, dir.count())

	assert.Error(t, c.Invalidate(context.Background(), 1))
}
