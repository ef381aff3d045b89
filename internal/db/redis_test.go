package db

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Marga-Ghale/ora-projects-backend/internal/repository"
	"github.com/Marga-Ghale/ora-projects-backend/internal/types"
)

func newTestRedis(t *testing.T) (*RedisDB, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	r, err := NewRedisDB("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r, mr
}

func TestNewRedisDB_BadURL(t *testing.T) {
	_, err := NewRedisDB("not-a-url")
	assert.Error(t, err)
}

func TestPermissionCache_RoundTrip(t *testing.T) {
	r, _ := newTestRedis(t)
	cache := NewPermissionCache(r, time.Minute)
	ctx := context.Background()

	gen, ok := cache.Generation(ctx, "p1")
	require.True(t, ok)
	assert.Equal(t, int64(0), gen)

	_, ok = cache.GetAccess(ctx, "p1", "u1", gen)
	assert.False(t, ok)

	perms, _ := types.DefaultPermissions(types.RoleEditor)
	cache.SetAccess(ctx, &repository.ProjectMember{
		ID: "m1", ProjectID: "p1", UserID: "u1", RoleID: "r1",
		NotificationSettings: types.DefaultNotificationSettings(),
		Role:                 &repository.ProjectRole{ID: "r1", ProjectID: "p1", Name: types.RoleEditor, Permissions: perms},
	}, gen)

	got, ok := cache.GetAccess(ctx, "p1", "u1", gen)
	require.True(t, ok)
	require.NotNil(t, got.Role)
	assert.Equal(t, types.RoleEditor, got.Role.Name)
	assert.True(t, got.Role.Permissions.CanEditTasks)
	assert.False(t, got.Role.Permissions.CanManageMembers)
}

func TestPermissionCache_InvalidateProject(t *testing.T) {
	r, mr := newTestRedis(t)
	cache := NewPermissionCache(r, time.Minute)
	ctx := context.Background()

	cache.SetAccess(ctx, &repository.ProjectMember{ProjectID: "p1", UserID: "u1"}, 0)
	cache.SetAccess(ctx, &repository.ProjectMember{ProjectID: "p1", UserID: "u2"}, 0)
	cache.SetAccess(ctx, &repository.ProjectMember{ProjectID: "p2", UserID: "u1"}, 0)

	cache.InvalidateProject(ctx, "p1")

	assert.False(t, mr.Exists("cache:access:p1:0:u1"))
	assert.False(t, mr.Exists("cache:access:p1:0:u2"))
	assert.True(t, mr.Exists("cache:access:p2:0:u1"))

	gen, ok := cache.Generation(ctx, "p1")
	require.True(t, ok)
	assert.Equal(t, int64(1), gen)
	gen, _ = cache.Generation(ctx, "p2")
	assert.Equal(t, int64(0), gen)
}

// A write prepared before an invalidation must not be visible after it.
func TestPermissionCache_WriteFromOlderGeneration(t *testing.T) {
	r, _ := newTestRedis(t)
	cache := NewPermissionCache(r, time.Minute)
	ctx := context.Background()

	before, _ := cache.Generation(ctx, "p1")
	cache.InvalidateProject(ctx, "p1")
	cache.SetAccess(ctx, &repository.ProjectMember{ProjectID: "p1", UserID: "u1"}, before)

	after, _ := cache.Generation(ctx, "p1")
	_, ok := cache.GetAccess(ctx, "p1", "u1", after)
	assert.False(t, ok)
}

func TestPermissionCache_GenerationUnavailable(t *testing.T) {
	r, mr := newTestRedis(t)
	cache := NewPermissionCache(r, time.Minute)

	mr.SetError("LOADING")
	_, ok := cache.Generation(context.Background(), "p1")
	assert.False(t, ok)
}

func TestPermissionCache_OmitsPasswordHash(t *testing.T) {
	r, mr := newTestRedis(t)
	cache := NewPermissionCache(r, time.Minute)

	cache.SetAccess(context.Background(), &repository.ProjectMember{
		ProjectID: "p1", UserID: "u1",
		User: &repository.User{ID: "u1", Name: "Dana", Password: "$2a$10$secrethash"},
	}, 0)

	raw, err := mr.Get("cache:access:p1:0:u1")
	require.NoError(t, err)
	assert.NotContains(t, raw, "secrethash")
	assert.Contains(t, raw, "Dana")
}

func TestPermissionCache_TTL(t *testing.T) {
	r, mr := newTestRedis(t)
	cache := NewPermissionCache(r, time.Minute)
	ctx := context.Background()

	cache.SetAccess(ctx, &repository.ProjectMember{ProjectID: "p1", UserID: "u1"}, 0)
	mr.FastForward(2 * time.Minute)

	_, ok := cache.GetAccess(ctx, "p1", "u1", 0)
	assert.False(t, ok)
}
