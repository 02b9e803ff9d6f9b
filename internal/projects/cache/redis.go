package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/playforge-dev/playforge-backend/internal/projects/codec"
	"github.com/playforge-dev/playforge-backend/internal/projects/domain"
)

const (
	cacheKeyPrefix = "proj:cache:" // Key for cached entries: proj:cache:{project_id}
)

// entryWire is the Redis-side form of a cache entry. The project
// travels in its codec form so Redis never sees native time types.
type entryWire struct {
	Project  json.RawMessage `json:"project"`
	CachedAt string          `json:"cached_at"`
	Dirty    bool            `json:"dirty"`
}

// RedisCache is a tier-1 implementation backed by Redis, for
// deployments where several API instances share one cache. Expiry is
// delegated to Redis key TTLs; dirty entries are written without a
// TTL so they survive until flushed.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	ctx    context.Context
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{
		client: client,
		ttl:    ttl,
		ctx:    context.Background(),
	}
}

func (c *RedisCache) Get(id string) (*domain.CacheEntry, bool) {
	data, err := c.client.Get(c.ctx, c.key(id)).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("[cache] redis get %s: %v", id, err)
		return nil, false
	}

	var w entryWire
	if err := json.Unmarshal([]byte(data), &w); err != nil {
		log.Printf("[cache] redis entry %s corrupt: %v", id, err)
		return nil, false
	}
	p, err := codec.Decode(w.Project)
	if err != nil {
		log.Printf("[cache] redis entry %s corrupt: %v", id, err)
		return nil, false
	}
	cachedAt, err := time.Parse(time.RFC3339Nano, w.CachedAt)
	if err != nil {
		cachedAt = time.Now()
	}

	return &domain.CacheEntry{Project: p, CachedAt: cachedAt, Dirty: w.Dirty}, true
}

func (c *RedisCache) Put(id string, p *domain.Project, dirty bool) {
	raw, err := codec.Encode(p)
	if err != nil {
		log.Printf("[cache] encode %s: %v", id, err)
		return
	}

	w := entryWire{
		Project:  raw,
		CachedAt: time.Now().UTC().Format(time.RFC3339Nano),
		Dirty:    dirty,
	}
	data, err := json.Marshal(w)
	if err != nil {
		log.Printf("[cache] marshal entry %s: %v", id, err)
		return
	}

	ttl := c.ttl
	if dirty {
		ttl = 0
	}
	if err := c.client.Set(c.ctx, c.key(id), data, ttl).Err(); err != nil {
		log.Printf("[cache] redis set %s: %v", id, err)
	}
}

func (c *RedisCache) MarkClean(id string) {
	entry, ok := c.Get(id)
	if !ok {
		return
	}
	c.Put(id, entry.Project, false)
}

func (c *RedisCache) Evict(id string) {
	if err := c.client.Del(c.ctx, c.key(id)).Err(); err != nil {
		log.Printf("[cache] redis del %s: %v", id, err)
	}
}

// EvictExpired is a no-op for Redis: clean entries carry a key TTL
// and expire server-side.
func (c *RedisCache) EvictExpired() int {
	return 0
}

func (c *RedisCache) key(id string) string {
	return cacheKeyPrefix + id
}
