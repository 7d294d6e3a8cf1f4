package instrument

import (
	"time"

	"github.com/newthinker/chartdesk/internal/core"
)

// Info is the metadata record shown next to a chart. Exactly one of the
// class specific records is set, matching Class.
type Info struct {
	Class       core.AssetClass `json:"class"`
	Symbol      string          `json:"symbol"`
	Name        Value[string]   `json:"name"`
	Price       Value[float64]  `json:"price"`
	ChangePct   Value[float64]  `json:"change_pct"`
	Volume      Value[float64]  `json:"volume"`
	Description Value[string]   `json:"description"`

	Crypto   *CryptoInfo   `json:"crypto,omitempty"`
	Futures  *FuturesInfo  `json:"futures,omitempty"`
	Currency *CurrencyInfo `json:"currency,omitempty"`
}

// CryptoInfo carries supply and valuation fields.
type CryptoInfo struct {
	MarketCap         Value[float64] `json:"market_cap"`
	CirculatingSupply Value[float64] `json:"circulating_supply"`
	TotalSupply       Value[float64] `json:"total_supply"`
	MaxSupply         Value[float64] `json:"max_supply"`
}

// FuturesInfo carries contract fields.
type FuturesInfo struct {
	OpenInterest Value[float64]   `json:"open_interest"`
	Expiration   Value[time.Time] `json:"expiration"`
}

// CurrencyInfo carries quote and range fields for a pair.
type CurrencyInfo struct {
	Bid     Value[float64] `json:"bid"`
	Ask     Value[float64] `json:"ask"`
	DayLow  Value[float64] `json:"day_low"`
	DayHigh Value[float64] `json:"day_high"`
}

// NewInfo returns an Info with every field unavailable and the class
// record allocated.
func NewInfo(class core.AssetClass, symbol string) Info {
	info := Info{Class: class, Symbol: symbol}
	switch class {
	case core.AssetCrypto:
		info.Crypto = &CryptoInfo{}
	case core.AssetFutures:
		info.Futures = &FuturesInfo{}
	case core.AssetCurrency:
		info.Currency = &CurrencyInfo{}
	}
	return info
}

// DisplayName is the name when known, otherwise the symbol.
func (i Info) DisplayName() string {
	return i.Name.Or(i.Symbol)
}

// Field is one labelled display value.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// HeadlineFields are the class specific values shown in a chart title.
func (i Info) HeadlineFields() []Field {
	switch {
	case i.Crypto != nil:
		return []Field{
			{"Market Cap", Display(i.Crypto.MarketCap, FormatDollars)},
			{"Supply", Display(i.Crypto.CirculatingSupply, FormatCoins)},
		}
	case i.Futures != nil:
		return []Field{
			{"Open Interest", Display(i.Futures.OpenInterest, FormatCount)},
			{"Expires", Display(i.Futures.Expiration, FormatDate)},
		}
	case i.Currency != nil:
		return []Field{
			{"Bid", Display(i.Currency.Bid, FormatRate)},
			{"Ask", Display(i.Currency.Ask, FormatRate)},
		}
	}
	return nil
}

// DetailFields are the values shown in the information panel.
func (i Info) DetailFields() []Field {
	fields := []Field{
		{"Current Price", Display(i.Price, FormatPrice)},
		{"24h Change", Display(i.ChangePct, FormatPercent)},
	}
	switch {
	case i.Crypto != nil:
		fields = append(fields,
			Field{"Market Cap", Display(i.Crypto.MarketCap, FormatLarge)},
			Field{"Circulating Supply", Display(i.Crypto.CirculatingSupply, FormatCoins)},
			Field{"Total Supply", Display(i.Crypto.TotalSupply, FormatCount)},
			Field{"Max Supply", Display(i.Crypto.MaxSupply, FormatCount)},
		)
	case i.Futures != nil:
		fields = append(fields,
			Field{"Expiration Date", Display(i.Futures.Expiration, FormatDate)},
			Field{"Volume", Display(i.Volume, FormatCount)},
			Field{"Open Interest", Display(i.Futures.OpenInterest, FormatCount)},
		)
	case i.Currency != nil:
		fields = append(fields,
			Field{"Bid", Display(i.Currency.Bid, FormatRate)},
			Field{"Ask", Display(i.Currency.Ask, FormatRate)},
			Field{"Day Range", dayRange(i.Currency)},
		)
	}
	return fields
}

// ChangeColor is the colour keyed to the price change.
func (i Info) ChangeColor() string {
	return ColorFromChange(i.ChangePct)
}

func dayRange(c *CurrencyInfo) string {
	lo, okLo := c.DayLow.Get()
	hi, okHi := c.DayHigh.Get()
	if !okLo || !okHi {
		return NotAvailable
	}
	return FormatRate(lo) + " - " + FormatRate(hi)
}
