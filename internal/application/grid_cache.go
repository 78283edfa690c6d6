package application

import (
	"strings"
	"sync"
	"time"

	"github.com/example/room-booking/internal/availability"
	"github.com/example/room-booking/internal/booking"
)

// gridCache stores recently built availability grids so repeated week navigation does not
// reload occurrences while the room is unchanged. Mutations touching a room invalidate its
// entries and bump the room's version; a grid built from a read that began under an older
// version is never stored.
type gridCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]gridCacheEntry
	versions   map[string]uint64
}

type gridCacheEntry struct {
	grid      availability.Grid
	expiresAt time.Time
}

// newGridCache returns nil, a cache that never hits, when ttl is negative.
func newGridCache(ttl time.Duration, maxEntries int, now func() time.Time) *gridCache {
	if ttl < 0 {
		return nil
	}
	if ttl == 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 256
	}
	if now == nil {
		now = time.Now
	}
	return &gridCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]gridCacheEntry),
		versions:   make(map[string]uint64),
	}
}

func (c *gridCache) Get(key string) (availability.Grid, bool) {
	if c == nil {
		return availability.Grid{}, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return availability.Grid{}, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return availability.Grid{}, false
	}
	return cloneGrid(entry.grid), true
}

// Version returns the room's current version. Read it before loading occurrences and pass
// it to Store.
func (c *gridCache) Version(roomID string) uint64 {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.versions[roomID]
}

// Store caches grid unless the room was invalidated after version was read.
func (c *gridCache) Store(key string, version uint64, grid availability.Grid) bool {
	if c == nil {
		return false
	}
	cloned := cloneGrid(grid)
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.versions[grid.RoomID] != version {
		return false
	}
	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[key] = gridCacheEntry{grid: cloned, expiresAt: expiry}
	return true
}

// InvalidateRoom drops every cached grid of roomID.
func (c *gridCache) InvalidateRoom(roomID string) {
	if c == nil {
		return
	}
	prefix := roomID + "|"
	c.mu.Lock()
	c.versions[roomID]++
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}

func (c *gridCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *gridCache) evictOneLocked() {
	var (
		oldestKey string
		oldest    time.Time
	)
	for key, entry := range c.entries {
		if oldestKey == "" || entry.expiresAt.Before(oldest) {
			oldestKey, oldest = key, entry.expiresAt
		}
	}
	delete(c.entries, oldestKey)
}

func cloneGrid(grid availability.Grid) availability.Grid {
	out := grid
	if grid.Slots != nil {
		out.Slots = make([]availability.Slot, len(grid.Slots))
		copy(out.Slots, grid.Slots)
	}
	return out
}

func gridCacheKey(roomID string, day time.Time, policy booking.Policy) string {
	return roomID + "|" + day.UTC().Format("2006-01-02") + "|" + policy.String()
}
