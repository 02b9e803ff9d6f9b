package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playforge-dev/playforge-backend/internal/projects/domain"
)

func testProject(id string) *domain.Project {
	return &domain.Project{
		ID:           id,
		Name:         "Demo",
		Version:      "1.0.0",
		CreatedAt:    time.Now().UTC(),
		LastModified: time.Now().UTC(),
		Assets: domain.Assets{
			Objects:      []domain.Asset{},
			Texts:        []domain.Asset{},
			SoundEffects: []domain.Asset{},
		},
		Script: domain.Script{
			Rules:             []domain.Rule{},
			Counters:          map[string]int{},
			SuccessConditions: []string{},
			Layout:            "default",
			Version:           "1",
		},
		Settings: domain.Settings{Name: "Demo", DurationSeconds: 60},
		Status:   domain.StatusDraft,
	}
}

func TestMemoryCachePutGet(t *testing.T) {
	c := NewMemoryCache(time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	p := testProject("proj-1")
	c.Put("proj-1", p, true)

	entry, ok := c.Get("proj-1")
	require.True(t, ok)
	assert.Same(t, p, entry.Project)
	assert.True(t, entry.Dirty)
	assert.False(t, entry.CachedAt.IsZero())
}

func TestMemoryCacheMarkClean(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	c.Put("proj-1", testProject("proj-1"), true)

	c.MarkClean("proj-1")

	entry, ok := c.Get("proj-1")
	require.True(t, ok)
	assert.False(t, entry.Dirty)

	// marking an absent id is a no-op
	c.MarkClean("missing")
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(time.Minute)

	now := time.Now()
	c.now = func() time.Time { return now }
	c.Put("proj-1", testProject("proj-1"), false)

	_, ok := c.Get("proj-1")
	require.True(t, ok)

	// past the TTL a clean entry no longer serves reads
	c.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, ok = c.Get("proj-1")
	assert.False(t, ok)
}

func TestMemoryCacheExpiredDirtyEntryStillServes(t *testing.T) {
	c := NewMemoryCache(time.Minute)

	now := time.Now()
	c.now = func() time.Time { return now }
	c.Put("proj-1", testProject("proj-1"), true)

	c.now = func() time.Time { return now.Add(2 * time.Minute) }

	// a dirty entry holds unflushed work; it must not vanish
	entry, ok := c.Get("proj-1")
	require.True(t, ok)
	assert.True(t, entry.Dirty)
}

func TestMemoryCacheGetReturnsSnapshot(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	c.Put("proj-1", testProject("proj-1"), true)

	entry, ok := c.Get("proj-1")
	require.True(t, ok)
	require.True(t, entry.Dirty)

	// a later MarkClean must not mutate an already returned entry
	c.MarkClean("proj-1")
	assert.True(t, entry.Dirty)

	fresh, ok := c.Get("proj-1")
	require.True(t, ok)
	assert.False(t, fresh.Dirty)
}

func TestMemoryCacheConcurrentGetAndMarkClean(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	p := testProject("proj-1")
	c.Put("proj-1", p, true)

	// an auto-save loop flushing (Get + MarkClean) while an explicit
	// save re-dirties the same entry
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			if entry, ok := c.Get("proj-1"); ok && entry.Dirty {
				c.MarkClean("proj-1")
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			c.Put("proj-1", p, true)
		}
	}()
	wg.Wait()

	_, ok := c.Get("proj-1")
	assert.True(t, ok)
}

func TestMemoryCacheEvict(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	c.Put("proj-1", testProject("proj-1"), false)

	c.Evict("proj-1")

	_, ok := c.Get("proj-1")
	assert.False(t, ok)
}

func TestMemoryCacheEvictExpired(t *testing.T) {
	c := NewMemoryCache(time.Minute)

	now := time.Now()
	c.now = func() time.Time { return now }
	c.Put("old-clean", testProject("old-clean"), false)
	c.Put("old-dirty", testProject("old-dirty"), true)

	c.now = func() time.Time { return now.Add(2 * time.Minute) }
	c.Put("fresh", testProject("fresh"), false)

	removed := c.EvictExpired()
	assert.Equal(t, 1, removed)

	_, ok := c.Get("fresh")
	assert.True(t, ok)
	_, ok = c.Get("old-dirty")
	assert.True(t, ok, "dirty entries survive eviction until flushed")
}
