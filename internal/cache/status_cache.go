// Package cache holds the in-memory cache for derived daily status
// views. A day's status is a pure function of its event log, so
// entries never expire on their own; the attendance service
// invalidates a key whenever it appends an event for that identity
// and day.
package cache

import (
	"sync"

	"github.com/google/uuid"

	"github.com/punchcardlabs/punchcard/internal/domain"
)

type statusKey struct {
	identityID uuid.UUID
	day        domain.DayKey
}

// StatusCache caches DailyStatus views keyed by (identity, day).
// Safe for concurrent use.
type StatusCache struct {
	mu      sync.RWMutex
	entries map[statusKey]domain.DailyStatus
}

// NewStatusCache creates an empty cache.
func NewStatusCache() *StatusCache {
	return &StatusCache{entries: make(map[statusKey]domain.DailyStatus)}
}

// Get retrieves the cached status for an identity and day.
func (c *StatusCache) Get(identityID uuid.UUID, day domain.DayKey) (domain.DailyStatus, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	status, ok := c.entries[statusKey{identityID, day}]
	return status, ok
}

// Set stores a computed status.
func (c *StatusCache) Set(identityID uuid.UUID, day domain.DayKey, status domain.DailyStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[statusKey{identityID, day}] = status
}

// Invalidate drops the entry for one identity and day. Called after
// every accepted punch.
func (c *StatusCache) Invalidate(identityID uuid.UUID, day domain.DayKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, statusKey{identityID, day})
}

// InvalidateIdentity drops every cached day for one identity. Used
// when an identity is removed.
func (c *StatusCache) InvalidateIdentity(identityID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if key.identityID == identityID {
			delete(c.entries, key)
		}
	}
}

// Len reports the number of cached entries.
func (c *StatusCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
