// Package crypto backs the crypto asset class with exchange data when the
// primary collector has gaps: Binance klines for history and CoinGecko
// for market cap and supply figures.
package crypto

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/chartdesk/internal/collector"
	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/instrument"
)

// CryptoCollector implements collector.Collector for cryptocurrencies
type CryptoCollector struct {
	primary      collector.Collector
	providers    []Provider
	defaultQuote string
	logger       *zap.Logger
}

// New creates a CryptoCollector. primary may be nil, in which case only
// the providers are consulted, in order.
func New(primary collector.Collector, providers ...Provider) *CryptoCollector {
	return &CryptoCollector{
		primary:      primary,
		providers:    providers,
		defaultQuote: "USDT",
		logger:       zap.NewNop(),
	}
}

// SetLogger sets the logger used to report fallbacks.
func (c *CryptoCollector) SetLogger(l *zap.Logger) {
	if l != nil {
		c.logger = l
	}
}

// SetDefaultQuote sets the quote currency used for USD tickers
func (c *CryptoCollector) SetDefaultQuote(quote string) {
	if quote != "" {
		c.defaultQuote = quote
	}
}

func (c *CryptoCollector) Name() string {
	return "crypto"
}

func (c *CryptoCollector) AssetClasses() []core.AssetClass {
	return []core.AssetClass{core.AssetCrypto}
}

// FetchHistory fetches bars from the primary collector, falling back to
// each provider in order when it fails or returns nothing.
func (c *CryptoCollector) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) (core.Series, error) {
	if err := ValidateCryptoSymbol(symbol); err != nil {
		return nil, core.WrapError(core.ErrSymbolNotFound, err)
	}

	var lastErr error
	if c.primary != nil {
		data, err := c.primary.FetchHistory(ctx, symbol, start, end, interval)
		if err == nil && len(data) > 0 {
			return data, nil
		}
		if err != nil {
			lastErr = err
		}
		c.logger.Info("primary history unavailable, trying exchanges",
			zap.String("symbol", symbol),
			zap.String("primary", c.primary.Name()),
			zap.Error(err),
		)
	}

	pair := NormalizeSymbol(symbol, c.defaultQuote)
	for _, p := range c.providers {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		data, err := p.FetchHistory(ctx, pair, start, end, interval)
		if err == nil && len(data) > 0 {
			for i := range data {
				data[i].Symbol = symbol
			}
			return data, nil
		}
		if err != nil {
			lastErr = err
		}
	}

	if lastErr != nil {
		return nil, core.WrapError(core.ErrProviderUnavailable, fmt.Errorf("all providers failed for %s: %w", symbol, lastErr))
	}
	return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no data available for %s", symbol))
}

// FetchInfo starts from the primary collector's metadata and fills any
// unavailable field from the providers.
func (c *CryptoCollector) FetchInfo(ctx context.Context, symbol string, class core.AssetClass) (instrument.Info, error) {
	info := instrument.NewInfo(core.AssetCrypto, symbol)
	if err := ValidateCryptoSymbol(symbol); err != nil {
		return info, core.WrapError(core.ErrSymbolNotFound, err)
	}

	var errs []error
	found := false
	if c.primary != nil {
		pi, err := c.primary.FetchInfo(ctx, symbol, core.AssetCrypto)
		if err == nil {
			info = pi
			if info.Crypto == nil {
				info.Crypto = &instrument.CryptoInfo{}
			}
			found = true
		} else {
			errs = append(errs, err)
		}
	}

	pair := NormalizeSymbol(symbol, c.defaultQuote)
	for _, p := range c.providers {
		if complete(info) {
			break
		}
		m, err := p.FetchMarket(ctx, pair)
		if err != nil {
			c.logger.Debug("provider market lookup failed",
				zap.String("provider", p.Name()),
				zap.String("pair", pair),
				zap.Error(err),
			)
			errs = append(errs, err)
			continue
		}
		merge(&info, m)
		found = true
	}

	if !found {
		cause := errors.Join(errs...)
		if cause == nil {
			cause = errors.New("no sources configured")
		}
		return info, core.WrapError(core.ErrProviderUnavailable, fmt.Errorf("no metadata for %s: %w", symbol, cause))
	}
	return info, nil
}

func complete(info instrument.Info) bool {
	ci := info.Crypto
	return info.Name.Present() && info.Price.Present() && info.ChangePct.Present() &&
		info.Volume.Present() && ci.MarketCap.Present() && ci.CirculatingSupply.Present() &&
		ci.TotalSupply.Present() && ci.MaxSupply.Present()
}

func merge(info *instrument.Info, m *Market) {
	fill := func(dst *instrument.Value[float64], src *float64) {
		if !dst.Present() {
			*dst = instrument.Float(src)
		}
	}
	if !info.Name.Present() {
		info.Name = instrument.Text(m.Name)
	}
	fill(&info.Price, m.Price)
	fill(&info.ChangePct, m.ChangePct)
	fill(&info.Volume, m.Volume)
	fill(&info.Crypto.MarketCap, m.MarketCap)
	fill(&info.Crypto.CirculatingSupply, m.CirculatingSupply)
	fill(&info.Crypto.TotalSupply, m.TotalSupply)
	fill(&info.Crypto.MaxSupply, m.MaxSupply)
}

var _ collector.Collector = (*CryptoCollector)(nil)
