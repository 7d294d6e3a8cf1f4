// Package binance reads spot klines and 24h tickers from the Binance REST API.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/newthinker/chartdesk/internal/collector/crypto"
	"github.com/newthinker/chartdesk/internal/core"
)

const (
	baseURL = "https://api.binance.com"

	// maxKlines is the most bars Binance returns per request.
	maxKlines = 1000
)

// Binance implements the crypto Provider interface for Binance exchange
type Binance struct {
	client  *http.Client
	baseURL string
}

// New creates a new Binance provider
func New() *Binance {
	return &Binance{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
	}
}

// NewWithBaseURL creates a Binance provider with custom base URL (for testing)
func NewWithBaseURL(url string) *Binance {
	b := New()
	b.baseURL = url
	return b
}

func (b *Binance) Name() string {
	return "binance"
}

// FetchMarket fetches the 24h ticker. Binance has no supply data, so only
// price, change and quote volume are set.
func (b *Binance) FetchMarket(ctx context.Context, pair string) (*crypto.Market, error) {
	endpoint := fmt.Sprintf("%s/api/v3/ticker/24hr?symbol=%s", b.baseURL, url.QueryEscape(pair))

	var result ticker24hr
	if err := b.getJSON(ctx, endpoint, &result); err != nil {
		return nil, fmt.Errorf("fetching ticker: %w", err)
	}

	base, _ := crypto.ParseSymbol(pair)
	return &crypto.Market{
		Name:      base,
		Price:     parse(result.LastPrice),
		ChangePct: parse(result.PriceChangePercent),
		Volume:    parse(result.QuoteVolume),
	}, nil
}

// FetchHistory fetches historical OHLCV data from Binance, paging through
// the window maxKlines bars at a time.
func (b *Binance) FetchHistory(ctx context.Context, pair string, start, end time.Time, interval string) (core.Series, error) {
	binanceInterval := toInterval(interval)
	data := make(core.Series, 0, 400)

	from := start
	for from.Before(end) {
		endpoint := fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=%s&startTime=%d&endTime=%d&limit=%d",
			b.baseURL, url.QueryEscape(pair), binanceInterval, from.UnixMilli(), end.UnixMilli(), maxKlines)

		var klines [][]any
		if err := b.getJSON(ctx, endpoint, &klines); err != nil {
			return nil, fmt.Errorf("fetching history: %w", err)
		}

		page := parseKlines(klines, pair, interval)
		data = append(data, page...)
		if len(klines) < maxKlines || len(page) == 0 {
			break
		}
		from = page[len(page)-1].Time.Add(time.Millisecond)
	}

	return data, nil
}

func (b *Binance) getJSON(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func parseKlines(klines [][]any, pair, interval string) core.Series {
	data := make(core.Series, 0, len(klines))
	for _, k := range klines {
		if len(k) < 6 {
			continue
		}

		openTime, _ := k[0].(float64)
		openStr, _ := k[1].(string)
		highStr, _ := k[2].(string)
		lowStr, _ := k[3].(string)
		closeStr, _ := k[4].(string)
		volumeStr, _ := k[5].(string)

		open, err1 := strconv.ParseFloat(openStr, 64)
		high, err2 := strconv.ParseFloat(highStr, 64)
		low, err3 := strconv.ParseFloat(lowStr, 64)
		cls, err4 := strconv.ParseFloat(closeStr, 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}
		volume, _ := strconv.ParseFloat(volumeStr, 64)

		data = append(data, core.OHLCV{
			Symbol:   pair,
			Interval: interval,
			Open:     open,
			High:     high,
			Low:      low,
			Close:    cls,
			Volume:   volume,
			Time:     time.UnixMilli(int64(openTime)).UTC(),
		})
	}
	return data
}

func parse(s string) *float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func toInterval(interval string) string {
	switch interval {
	case "1m", "5m", "15m", "30m", "1h", "2h", "4h", "1d":
		return interval
	case "1w", "1wk":
		return "1w"
	case "1mo":
		return "1M"
	default:
		return "1d"
	}
}

// Binance API response types
type ticker24hr struct {
	Symbol             string `json:"symbol"`
	PriceChangePercent string `json:"priceChangePercent"`
	LastPrice          string `json:"lastPrice"`
	QuoteVolume        string `json:"quoteVolume"`
}

var _ crypto.Provider = (*Binance)(nil)
