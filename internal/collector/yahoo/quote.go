package yahoo

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"time"

	"github.com/tidwall/gjson"

	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/instrument"
)

// FetchInfo fetches quote metadata. Fields Yahoo does not report for the
// symbol are left unavailable rather than failing the call.
func (y *Yahoo) FetchInfo(ctx context.Context, symbol string, class core.AssetClass) (instrument.Info, error) {
	info := instrument.NewInfo(class, symbol)
	if err := validateSymbol(symbol); err != nil {
		return info, core.WrapError(core.ErrSymbolNotFound, err)
	}

	endpoint := fmt.Sprintf("%s?symbols=%s", y.quoteURL, url.QueryEscape(symbol))
	body, err := y.get(ctx, endpoint)
	if err != nil {
		return info, err
	}

	q := gjson.GetBytes(body, "quoteResponse.result.0")
	if !q.Exists() {
		return info, core.WrapError(core.ErrSymbolNotFound, fmt.Errorf("no quote for symbol: %s", symbol))
	}

	info.Name = text(q, "shortName")
	if !info.Name.Present() {
		info.Name = text(q, "longName")
	}
	info.Description = text(q, "longName")
	info.Price = number(q, "regularMarketPrice")
	info.ChangePct = number(q, "regularMarketChangePercent")
	info.Volume = number(q, "regularMarketVolume")

	switch class {
	case core.AssetCrypto:
		info.Crypto.MarketCap = number(q, "marketCap")
		info.Crypto.CirculatingSupply = number(q, "circulatingSupply")
	case core.AssetFutures:
		info.Futures.OpenInterest = number(q, "openInterest")
		if exp := number(q, "expireDate"); exp.Present() {
			info.Futures.Expiration = instrument.Some(time.Unix(int64(exp.Or(0)), 0).UTC())
		}
	case core.AssetCurrency:
		info.Currency.Bid = number(q, "bid")
		info.Currency.Ask = number(q, "ask")
		info.Currency.DayLow = number(q, "regularMarketDayLow")
		info.Currency.DayHigh = number(q, "regularMarketDayHigh")
	}

	return info, nil
}

func number(r gjson.Result, path string) instrument.Value[float64] {
	v := r.Get(path)
	if v.Type != gjson.Number {
		return instrument.Unavailable[float64]()
	}
	f := v.Float()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return instrument.Unavailable[float64]()
	}
	return instrument.Some(f)
}

func text(r gjson.Result, path string) instrument.Value[string] {
	v := r.Get(path)
	if v.Type != gjson.String {
		return instrument.Unavailable[string]()
	}
	return instrument.Text(v.String())
}
