package advisor

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// YearSource supplies the selectable prediction years.
type YearSource interface {
	FetchYears(ctx context.Context) ([]int, error)
}

// YearCache holds the process-wide list of selectable years. It is filled on
// startup and after every successful training run, and keeps its previous
// contents when a refresh fails.
type YearCache struct {
	source YearSource
	ttl    time.Duration
	now    func() time.Time

	mu       sync.RWMutex
	years    []int
	loadedAt time.Time
}

// NewYearCache builds an empty cache. A non-positive ttl disables lazy refresh.
func NewYearCache(source YearSource, ttl time.Duration) *YearCache {
	return &YearCache{source: source, ttl: ttl, now: time.Now}
}

// Load fetches the year list from the source and replaces the cached copy.
func (c *YearCache) Load(ctx context.Context) error {
	years, err := c.source.FetchYears(ctx)
	if err != nil {
		return err
	}
	sorted := append([]int(nil), years...)
	sort.Ints(sorted)

	c.mu.Lock()
	c.years = sorted
	c.loadedAt = c.now()
	c.mu.Unlock()

	logrus.WithField("years", len(sorted)).Debug("year cache loaded")
	return nil
}

// Years returns a copy of the cached years, oldest first.
func (c *YearCache) Years() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]int(nil), c.years...)
}

// Stale reports whether the cache has never loaded or has outlived its ttl.
func (c *YearCache) Stale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.loadedAt.IsZero() {
		return true
	}
	return c.ttl > 0 && c.now().Sub(c.loadedAt) >= c.ttl
}

// Refresh reloads the cache when it is stale and logs, rather than returns,
// failures.
func (c *YearCache) Refresh(ctx context.Context) {
	if !c.Stale() {
		return
	}
	if err := c.Load(ctx); err != nil {
		logrus.WithError(err).Debug("refresh year cache")
	}
}
