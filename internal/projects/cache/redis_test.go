package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	ctx := context.Background()
	err = client.Ping(ctx).Err()
	require.NoError(t, err)

	return client, mr
}

func TestRedisCachePutGet(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	c := NewRedisCache(client, time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	p := testProject("proj-1")
	c.Put("proj-1", p, false)

	entry, ok := c.Get("proj-1")
	require.True(t, ok)
	assert.Equal(t, p.ID, entry.Project.ID)
	assert.Equal(t, p.Name, entry.Project.Name)
	assert.False(t, entry.Dirty)
}

func TestRedisCacheCleanEntryExpires(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	c := NewRedisCache(client, time.Minute)
	c.Put("proj-1", testProject("proj-1"), false)

	mr.FastForward(2 * time.Minute)

	_, ok := c.Get("proj-1")
	assert.False(t, ok)
}

func TestRedisCacheDirtyEntrySurvivesTTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	c := NewRedisCache(client, time.Minute)
	c.Put("proj-1", testProject("proj-1"), true)

	mr.FastForward(2 * time.Minute)

	entry, ok := c.Get("proj-1")
	require.True(t, ok)
	assert.True(t, entry.Dirty)
}

func TestRedisCacheMarkClean(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	c := NewRedisCache(client, time.Minute)
	c.Put("proj-1", testProject("proj-1"), true)

	c.MarkClean("proj-1")

	entry, ok := c.Get("proj-1")
	require.True(t, ok)
	assert.False(t, entry.Dirty)

	// a clean entry carries a TTL again
	mr.FastForward(2 * time.Minute)
	_, ok = c.Get("proj-1")
	assert.False(t, ok)
}

func TestRedisCacheEvict(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	c := NewRedisCache(client, time.Minute)
	c.Put("proj-1", testProject("proj-1"), false)

	c.Evict("proj-1")

	_, ok := c.Get("proj-1")
	assert.False(t, ok)
}
