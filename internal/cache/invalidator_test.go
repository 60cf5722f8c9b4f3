package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestInvalidator(t *testing.T) (*RedisInvalidator, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisInvalidator(client, zap.NewNop()), mr
}

func TestInvalidate_DropsOrderAndListKeys(t *testing.T) {
	invalidator, mr := newTestInvalidator(t)

	require.NoError(t, mr.Set("wos:tenant-1:plant-1:workorder:wo-1", "cached"))
	require.NoError(t, mr.Set("wos:tenant-1:plant-1:workorders", "cached-list"))
	require.NoError(t, mr.Set("wos:tenant-1:plant-1:workorder:wo-2", "untouched"))

	err := invalidator.Invalidate(context.Background(), "tenant-1", "plant-1", "wo-1")
	require.NoError(t, err)

	assert.False(t, mr.Exists("wos:tenant-1:plant-1:workorder:wo-1"))
	assert.False(t, mr.Exists("wos:tenant-1:plant-1:workorders"))
	assert.True(t, mr.Exists("wos:tenant-1:plant-1:workorder:wo-2"))
}

func TestInvalidate_ListOnlyWithoutOrderID(t *testing.T) {
	invalidator, mr := newTestInvalidator(t)

	require.NoError(t, mr.Set("wos:tenant-1:plant-1:workorders", "cached-list"))

	err := invalidator.Invalidate(context.Background(), "tenant-1", "plant-1", "")
	require.NoError(t, err)
	assert.False(t, mr.Exists("wos:tenant-1:plant-1:workorders"))
}

func TestInvalidate_ScopedByTenantAndPlant(t *testing.T) {
	invalidator, mr := newTestInvalidator(t)

	require.NoError(t, mr.Set("wos:tenant-2:plant-1:workorder:wo-1", "other-tenant"))
	require.NoError(t, mr.Set("wos:tenant-1:plant-9:workorders", "other-plant"))

	err := invalidator.Invalidate(context.Background(), "tenant-1", "plant-1", "wo-1")
	require.NoError(t, err)

	assert.True(t, mr.Exists("wos:tenant-2:plant-1:workorder:wo-1"))
	assert.True(t, mr.Exists("wos:tenant-1:plant-9:workorders"))
}

func TestInvalidate_ReportsBackendFailure(t *testing.T) {
	invalidator, mr := newTestInvalidator(t)
	mr.Close()

	err := invalidator.Invalidate(context.Background(), "tenant-1", "plant-1", "wo-1")
	assert.Error(t, err)
}

func TestInvalidate_NilClientIsNoop(t *testing.T) {
	invalidator := NewRedisInvalidator(nil, zap.NewNop())
	assert.NoError(t, invalidator.Invalidate(context.Background(), "tenant-1", "plant-1", "wo-1"))
}
