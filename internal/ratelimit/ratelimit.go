// Package ratelimit counts import operations per owner over a fixed window
// with a reset boundary. The decision is re-evaluated on every attempt; a
// rejected attempt still consumes a slot.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Counter is the per-owner import rate contract.
type Counter interface {
	// Allow records one import attempt for the owner and reports whether
	// it stays within the window limit.
	Allow(ctx context.Context, ownerID string) (bool, error)
}

type windowEntry struct {
	count       int
	windowStart time.Time
}

// MemoryCounter is an in-process fixed-window counter.
type MemoryCounter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	entries map[string]*windowEntry
	now     func() time.Time
}

func NewMemoryCounter(limit int, window time.Duration) *MemoryCounter {
	return &MemoryCounter{
		limit:   limit,
		window:  window,
		entries: make(map[string]*windowEntry),
		now:     time.Now,
	}
}

func (c *MemoryCounter) Allow(_ context.Context, ownerID string) (bool, error) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweepLocked(now)

	entry, ok := c.entries[ownerID]
	if !ok || now.Sub(entry.windowStart) >= c.window {
		entry = &windowEntry{windowStart: now}
		c.entries[ownerID] = entry
	}

	entry.count++
	return entry.count <= c.limit, nil
}

// sweepLocked drops expired windows so idle owners do not accumulate.
func (c *MemoryCounter) sweepLocked(now time.Time) {
	for owner, entry := range c.entries {
		if now.Sub(entry.windowStart) >= c.window {
			delete(c.entries, owner)
		}
	}
}
