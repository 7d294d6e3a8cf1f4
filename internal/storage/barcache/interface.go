// Package barcache stores fetched price series so repeated dashboard
// refreshes do not hit the market data provider every time.
package barcache

import (
	"context"
	"fmt"
	"time"

	"github.com/newthinker/chartdesk/internal/core"
)

// Key identifies one fetched window of bars.
type Key struct {
	Source   string
	Symbol   string
	Interval string
	Start    time.Time
	End      time.Time
}

// String renders the key as a stable map key.
func (k Key) String() string {
	return fmt.Sprintf("%s|%s|%s|%d|%d", k.Source, k.Symbol, k.Interval, k.Start.Unix(), k.End.Unix())
}

// Entry is a cached series with the time it was fetched.
type Entry struct {
	Bars      core.Series
	FetchedAt time.Time
}

// Cache defines the interface for bar caches.
type Cache interface {
	// Get returns the entry for key, if any.
	Get(ctx context.Context, key Key) (Entry, bool, error)

	// Put stores or replaces the entry for key.
	Put(ctx context.Context, key Key, entry Entry) error

	// Purge removes entries fetched before cutoff and reports how many.
	Purge(ctx context.Context, cutoff time.Time) (int, error)

	// Close releases resources held by the cache.
	Close() error
}
