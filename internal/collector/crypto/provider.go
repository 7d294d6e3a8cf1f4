package crypto

import (
	"context"
	"time"

	"github.com/newthinker/chartdesk/internal/core"
)

// Provider defines the interface for exchange and aggregator data sources
type Provider interface {
	// Name returns the provider identifier (e.g., "binance", "coingecko")
	Name() string

	// FetchHistory fetches historical OHLCV data for a normalized pair (e.g., "BTCUSDT")
	FetchHistory(ctx context.Context, pair string, start, end time.Time, interval string) (core.Series, error)

	// FetchMarket fetches price, volume and supply figures for a pair.
	// Nil fields were not reported by the provider.
	FetchMarket(ctx context.Context, pair string) (*Market, error)
}

// Market is one provider's view of a coin.
type Market struct {
	Name              string
	Price             *float64
	ChangePct         *float64
	Volume            *float64
	MarketCap         *float64
	CirculatingSupply *float64
	TotalSupply       *float64
	MaxSupply         *float64
}
