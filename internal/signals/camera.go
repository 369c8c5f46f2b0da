package signals

import (
	"context"
	"sync"

	"highlighter/internal/scenes"
)

// CameraCache wraps an Extractor so camera motion is computed once per
// (source, range) no matter how many stages ask for it. All other signals pass
// through unchanged.
type CameraCache struct {
	Extractor

	mu      sync.Mutex
	entries map[rangeKey]*memo[CameraMotion]
}

// NewCameraCache wraps inner.
func NewCameraCache(inner Extractor) *CameraCache {
	return &CameraCache{Extractor: inner, entries: make(map[rangeKey]*memo[CameraMotion])}
}

// CameraMotion returns the cached result, computing it on first use. A
// cancelled computation is retried by the next caller.
func (c *CameraCache) CameraMotion(ctx context.Context, source string, r scenes.TimeRange) (CameraMotion, error) {
	key := rangeKey{source: source, r: r}
	c.mu.Lock()
	entry, ok := c.entries[key]
	if !ok {
		entry = &memo[CameraMotion]{}
		c.entries[key] = entry
	}
	c.mu.Unlock()

	return entry.get(ctx, func(ctx context.Context) (CameraMotion, error) {
		return c.Extractor.CameraMotion(ctx, source, r)
	})
}
