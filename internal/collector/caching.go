package collector

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/instrument"
	"github.com/newthinker/chartdesk/internal/storage/barcache"
)

// Caching wraps a Collector with a bar cache for FetchHistory. Metadata is
// always fetched live since prices and changes move between refreshes.
type Caching struct {
	inner  Collector
	cache  barcache.Cache
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewCaching creates a caching wrapper. Entries older than ttl are refetched.
func NewCaching(inner Collector, cache barcache.Cache, ttl time.Duration, logger *zap.Logger) *Caching {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Caching{inner: inner, cache: cache, ttl: ttl, logger: logger, now: time.Now}
}

func (c *Caching) Name() string                    { return c.inner.Name() }
func (c *Caching) AssetClasses() []core.AssetClass { return c.inner.AssetClasses() }

func (c *Caching) FetchInfo(ctx context.Context, symbol string, class core.AssetClass) (instrument.Info, error) {
	return c.inner.FetchInfo(ctx, symbol, class)
}

func (c *Caching) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) (core.Series, error) {
	key := barcache.Key{
		Source:   c.inner.Name(),
		Symbol:   symbol,
		Interval: interval,
		Start:    start.Truncate(24 * time.Hour),
		End:      end.Truncate(24 * time.Hour),
	}

	entry, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		// A broken cache should not take the dashboard down.
		c.logger.Warn("bar cache read failed", zap.String("symbol", symbol), zap.Error(err))
	}
	if ok && c.now().Sub(entry.FetchedAt) < c.ttl {
		return entry.Bars, nil
	}

	bars, err := c.inner.FetchHistory(ctx, symbol, start, end, interval)
	if err != nil {
		if ok {
			c.logger.Warn("serving stale bars",
				zap.String("symbol", symbol),
				zap.Time("fetched_at", entry.FetchedAt),
				zap.Error(err),
			)
			return entry.Bars, nil
		}
		return nil, fmt.Errorf("fetching %s: %w", symbol, err)
	}

	if err := c.cache.Put(ctx, key, barcache.Entry{Bars: bars, FetchedAt: c.now()}); err != nil {
		c.logger.Warn("bar cache write failed", zap.String("symbol", symbol), zap.Error(err))
	}
	return bars, nil
}
