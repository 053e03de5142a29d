package session

import (
	"time"

	"perfpulse/domain/core"
)

// Cache memoizes per-day derived values for exactly one analysis run.
// It is owned by a Session and cleared when a run begins; it is not safe
// for concurrent use.
type Cache struct {
	values map[string]float64
	hits   int
	misses int
}

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{values: make(map[string]float64)}
}

// Memo returns the cached value for key, computing and storing it on a miss
func (c *Cache) Memo(key string, compute func() float64) float64 {
	if v, ok := c.values[key]; ok {
		c.hits++
		return v
	}
	c.misses++
	v := compute()
	c.values[key] = v
	return v
}

// Reset drops every entry and the hit counters
func (c *Cache) Reset() {
	c.values = make(map[string]float64)
	c.hits = 0
	c.misses = 0
}

// Len returns the number of cached entries
func (c *Cache) Len() int {
	return len(c.values)
}

// Stats returns hit and miss counts since the last reset
func (c *Cache) Stats() (hits, misses int) {
	return c.hits, c.misses
}

// Session is the scope of one analysis run. Now is an explicit input so
// identical inputs produce identical reports.
type Session struct {
	ID    core.RunID
	Now   time.Time
	cache *Cache
}

// New creates a session with a fresh cache
func New(now time.Time) *Session {
	return &Session{
		ID:    core.NewRunID(),
		Now:   now,
		cache: NewCache(),
	}
}

// WithID creates a session with a caller-chosen run ID
func WithID(id core.RunID, now time.Time) *Session {
	return &Session{ID: id, Now: now, cache: NewCache()}
}

// Begin clears the cache; call it at the start of every run
func (s *Session) Begin() {
	s.cache.Reset()
}

// Cache returns the session-owned cache
func (s *Session) Cache() *Cache {
	return s.cache
}
