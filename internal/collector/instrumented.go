package collector

import (
	"context"
	"time"

	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/instrument"
)

// FetchObserver records collector calls. metrics.Registry satisfies it.
type FetchObserver interface {
	RecordFetch(collector, op string, duration time.Duration, err error)
}

// Instrumented reports the latency and outcome of every fetch.
type Instrumented struct {
	inner    Collector
	observer FetchObserver
}

// NewInstrumented wraps inner. A nil observer returns inner unchanged.
func NewInstrumented(inner Collector, observer FetchObserver) Collector {
	if observer == nil {
		return inner
	}
	return &Instrumented{inner: inner, observer: observer}
}

func (c *Instrumented) Name() string                    { return c.inner.Name() }
func (c *Instrumented) AssetClasses() []core.AssetClass { return c.inner.AssetClasses() }

func (c *Instrumented) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) (core.Series, error) {
	began := time.Now()
	bars, err := c.inner.FetchHistory(ctx, symbol, start, end, interval)
	c.observer.RecordFetch(c.inner.Name(), "history", time.Since(began), err)
	return bars, err
}

func (c *Instrumented) FetchInfo(ctx context.Context, symbol string, class core.AssetClass) (instrument.Info, error) {
	began := time.Now()
	info, err := c.inner.FetchInfo(ctx, symbol, class)
	c.observer.RecordFetch(c.inner.Name(), "info", time.Since(began), err)
	return info, err
}
