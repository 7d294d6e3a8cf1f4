package core

import (
	"strings"
	"time"
)

// AssetClass groups instruments that share a metadata shape and a ticker universe.
type AssetClass string

const (
	AssetCrypto   AssetClass = "crypto"
	AssetFutures  AssetClass = "futures"
	AssetCurrency AssetClass = "currency"
)

// AssetClasses lists every supported class in dashboard tab order.
var AssetClasses = []AssetClass{AssetCrypto, AssetFutures, AssetCurrency}

// ParseAssetClass maps a user supplied name to an AssetClass.
func ParseAssetClass(s string) (AssetClass, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "crypto", "cryptocurrency", "cryptocurrencies":
		return AssetCrypto, true
	case "futures", "future":
		return AssetFutures, true
	case "currency", "currencies", "fx", "forex":
		return AssetCurrency, true
	}
	return "", false
}

// Label returns the human readable tab title.
func (c AssetClass) Label() string {
	switch c {
	case AssetCrypto:
		return "Cryptocurrencies"
	case AssetFutures:
		return "Futures"
	case AssetCurrency:
		return "Currencies"
	}
	return string(c)
}

// DetectAssetClass guesses the class from a Yahoo style ticker.
func DetectAssetClass(symbol string) AssetClass {
	s := strings.ToUpper(symbol)
	switch {
	case strings.HasSuffix(s, "=F"):
		return AssetFutures
	case strings.HasSuffix(s, "=X"):
		return AssetCurrency
	default:
		return AssetCrypto
	}
}

// OHLCV represents a candlestick/bar
type OHLCV struct {
	Symbol   string    `json:"symbol,omitempty"`
	Interval string    `json:"interval,omitempty"` // "1h", "1d"
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
	Time     time.Time `json:"time"`
}

// Series is an ordered run of bars addressed by position.
type Series []OHLCV

// Lows returns the low column.
func (s Series) Lows() []float64 {
	return s.column(func(b OHLCV) float64 { return b.Low })
}

// Highs returns the high column.
func (s Series) Highs() []float64 {
	return s.column(func(b OHLCV) float64 { return b.High })
}

// Closes returns the close column.
func (s Series) Closes() []float64 {
	return s.column(func(b OHLCV) float64 { return b.Close })
}

// Times returns the bar timestamps.
func (s Series) Times() []time.Time {
	out := make([]time.Time, len(s))
	for i, b := range s {
		out[i] = b.Time
	}
	return out
}

// Last returns the final bar and false for an empty series.
func (s Series) Last() (OHLCV, bool) {
	if len(s) == 0 {
		return OHLCV{}, false
	}
	return s[len(s)-1], true
}

func (s Series) column(pick func(OHLCV) float64) []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = pick(b)
	}
	return out
}
