package cache

import (
	"sync"
	"time"

	"github.com/playforge-dev/playforge-backend/internal/projects/domain"
)

// DefaultTTL is how long a cached project stays servable before reads
// fall through to the local store.
const DefaultTTL = 5 * time.Minute

// ProjectCache is the tier-1 cache contract. Implementations are
// best-effort: a miss (or an unreachable backing store) simply sends
// the caller to tier-2.
type ProjectCache interface {
	// Get returns the entry for id if present and not expired.
	Get(id string) (*domain.CacheEntry, bool)
	// Put stores a project snapshot, replacing any existing entry.
	Put(id string, p *domain.Project, dirty bool)
	// MarkClean clears the dirty flag after a confirmed tier-2 write.
	MarkClean(id string)
	// Evict removes the entry for id.
	Evict(id string)
	// EvictExpired drops entries past their TTL and reports how many
	// were removed. Dirty entries are kept until they are flushed.
	EvictExpired() int
}

// MemoryCache is the default tier-1 implementation: a process-local
// map with TTL eviction. Reads and writes are synchronous and O(1).
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*domain.CacheEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{
		entries: make(map[string]*domain.CacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns a snapshot of the entry. Returning a copy keeps
// concurrent MarkClean/Put calls from racing with callers that read
// the returned entry's fields.
func (c *MemoryCache) Get(id string) (*domain.CacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.CachedAt) > c.ttl && !entry.Dirty {
		return nil, false
	}
	snapshot := *entry
	return &snapshot, true
}

func (c *MemoryCache) Put(id string, p *domain.Project, dirty bool) {
	c.mu.Lock()
	c.entries[id] = &domain.CacheEntry{
		Project:  p,
		CachedAt: c.now(),
		Dirty:    dirty,
	}
	c.mu.Unlock()
}

func (c *MemoryCache) MarkClean(id string) {
	c.mu.Lock()
	if entry, ok := c.entries[id]; ok {
		entry.Dirty = false
	}
	c.mu.Unlock()
}

func (c *MemoryCache) Evict(id string) {
	c.mu.Lock()
	delete(c.entries, id)
	c.mu.Unlock()
}

// EvictExpired removes expired entries. An expired entry that is
// still dirty is kept: evicting it would silently drop unflushed
// work if the auto-save loop is stopped.
func (c *MemoryCache) EvictExpired() int {
	now := c.now()
	removed := 0

	c.mu.Lock()
	for id, entry := range c.entries {
		if now.Sub(entry.CachedAt) > c.ttl && !entry.Dirty {
			delete(c.entries, id)
			removed++
		}
	}
	c.mu.Unlock()

	return removed
}
