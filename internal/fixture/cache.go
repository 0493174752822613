// Package fixture manages the committed expected artifacts: a cache of
// decoded expected tables for long-running verifiers, and promotion of a
// reviewed actual artifact into the expected subtree.
package fixture

import (
	"fmt"
	"os"

	"github.com/couchcryptid/cdms-golden-verifier/internal/domain"
	"github.com/couchcryptid/cdms-golden-verifier/internal/observability"
	lru "github.com/hashicorp/golang-lru/v2"
)

// TableSource loads a table from a file path.
type TableSource interface {
	ReadFile(path string) (*domain.Table, error)
}

// CachedSource wraps a TableSource with an in-memory LRU cache keyed by path,
// modification time and size, so an edited fixture is never served stale.
type CachedSource struct {
	inner   TableSource
	cache   *lru.Cache[string, *domain.Table]
	metrics *observability.Metrics
}

// NewCachedSource creates a cache decorator around a table source. A
// non-positive maxEntries is raised to 1.
func NewCachedSource(inner TableSource, maxEntries int, metrics *observability.Metrics) *CachedSource {
	// lru.New only fails for a non-positive size.
	cache, _ := lru.New[string, *domain.Table](max(maxEntries, 1))
	return &CachedSource{
		inner:   inner,
		cache:   cache,
		metrics: metrics,
	}
}

// ReadFile returns the cached table for path or loads it from the inner source.
// Callers must not mutate the returned table.
func (c *CachedSource) ReadFile(path string) (*domain.Table, error) {
	info, err := os.Stat(path)
	if err != nil {
		// Let the inner source classify the failure (missing vs unreadable).
		return c.inner.ReadFile(path)
	}
	key := fmt.Sprintf("%s|%d|%d", path, info.ModTime().UnixNano(), info.Size())

	if t, ok := c.cache.Get(key); ok {
		c.metrics.FixtureCache.WithLabelValues("hit").Inc()
		return t, nil
	}
	c.metrics.FixtureCache.WithLabelValues("miss").Inc()

	t, err := c.inner.ReadFile(path)
	if err != nil {
		return nil, err
	}
	// Only successful loads are cached so a fixed fixture is picked up on retry.
	c.cache.Add(key, t)
	return t, nil
}

// Len returns the number of cached tables.
func (c *CachedSource) Len() int {
	return c.cache.Len()
}
