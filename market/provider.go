package market

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrDataUnavailable is returned by a Provider when it cannot serve the
// ticker/range at all. Absent trading days within a served range are not an
// error; they are simply omitted from the series.
var ErrDataUnavailable = errors.New("market: data unavailable")

// Provider supplies ordered daily price series. Implementations must be safe
// for concurrent use; returned series are immutable.
type Provider interface {
	GetSeries(ctx context.Context, ticker string, start, end time.Time) (Series, error)
}

type cacheEntry struct {
	series Series
	start  time.Time
	end    time.Time
}

// Cache wraps a Provider with an in-memory per-ticker cache. The cache is an
// explicit value owned by the caller, so two backtest runs sharing one Cache
// see identical data while runs with separate caches stay independent.
type Cache struct {
	src Provider

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewCache returns a caching wrapper around src.
func NewCache(src Provider) *Cache {
	return &Cache{src: src, entries: make(map[string]cacheEntry)}
}

// GetSeries serves the requested range from cache when the cached span covers
// it, otherwise fetches from the source and replaces the cached entry.
func (c *Cache) GetSeries(ctx context.Context, ticker string, start, end time.Time) (Series, error) {
	start, end = Day(start), Day(end)

	c.mu.RLock()
	e, ok := c.entries[ticker]
	c.mu.RUnlock()

	if !ok || start.Before(e.start) || end.After(e.end) {
		fetched, err := c.src.GetSeries(ctx, ticker, start, end)
		if err != nil {
			return Series{}, err
		}
		e = cacheEntry{series: fetched, start: start, end: end}
		c.mu.Lock()
		c.entries[ticker] = e
		c.mu.Unlock()
	}

	pts := e.series.Between(start, end)
	if len(pts) == 0 {
		return Series{}, fmt.Errorf("%w: %s has no data in %s..%s", ErrDataUnavailable,
			ticker, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return Series{Ticker: ticker, Points: pts}, nil
}
