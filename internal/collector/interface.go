package collector

import (
	"context"
	"time"

	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/instrument"
)

// Collector fetches price history and instrument metadata from one source.
type Collector interface {
	// Metadata
	Name() string
	AssetClasses() []core.AssetClass

	// Data fetching
	FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) (core.Series, error)
	FetchInfo(ctx context.Context, symbol string, class core.AssetClass) (instrument.Info, error)
}

// Supports reports whether c serves class.
func Supports(c Collector, class core.AssetClass) bool {
	for _, ac := range c.AssetClasses() {
		if ac == class {
			return true
		}
	}
	return false
}
