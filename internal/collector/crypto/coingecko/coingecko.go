// Package coingecko reads market cap, supply and OHLC data from the
// CoinGecko public API.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/newthinker/chartdesk/internal/collector/crypto"
	"github.com/newthinker/chartdesk/internal/core"
)

const (
	baseURL = "https://api.coingecko.com/api/v3"
)

// Symbol to CoinGecko ID mapping
var symbolToIDMap = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"USDT":  "tether",
	"BNB":   "binancecoin",
	"SOL":   "solana",
	"XRP":   "ripple",
	"USDC":  "usd-coin",
	"DOGE":  "dogecoin",
	"ADA":   "cardano",
	"TRX":   "tron",
	"AVAX":  "avalanche-2",
	"SHIB":  "shiba-inu",
	"DOT":   "polkadot",
	"LINK":  "chainlink",
	"BCH":   "bitcoin-cash",
	"TON":   "the-open-network",
	"MATIC": "matic-network",
	"UNI":   "uniswap",
	"ATOM":  "cosmos",
	"LTC":   "litecoin",
	"ETC":   "ethereum-classic",
	"XLM":   "stellar",
	"ALGO":  "algorand",
	"NEAR":  "near",
	"AAVE":  "aave",
	"APT":   "aptos",
	"ARB":   "arbitrum",
	"OP":    "optimism",
}

// CoinGecko implements the crypto Provider interface
type CoinGecko struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// New creates a new CoinGecko provider
func New(apiKey string) *CoinGecko {
	return &CoinGecko{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// NewWithBaseURL creates a CoinGecko provider with custom base URL (for testing)
func NewWithBaseURL(apiKey, url string) *CoinGecko {
	c := New(apiKey)
	c.baseURL = url
	return c
}

func (c *CoinGecko) Name() string {
	return "coingecko"
}

// symbolToID converts trading pair to CoinGecko coin ID
func (c *CoinGecko) symbolToID(symbol string) string {
	base, _ := crypto.ParseSymbol(symbol)
	if id, ok := symbolToIDMap[base]; ok {
		return id
	}
	return strings.ToLower(base)
}

// symbolToVsCurrency extracts the quote currency for CoinGecko API
func (c *CoinGecko) symbolToVsCurrency(symbol string) string {
	_, quote := crypto.ParseSymbol(symbol)
	switch quote {
	case "BTC":
		return "btc"
	case "ETH":
		return "eth"
	default:
		return "usd"
	}
}

// FetchMarket fetches price and supply figures from the markets endpoint.
func (c *CoinGecko) FetchMarket(ctx context.Context, pair string) (*crypto.Market, error) {
	coinID := c.symbolToID(pair)
	endpoint := fmt.Sprintf("%s/coins/markets?vs_currency=%s&ids=%s",
		c.baseURL, c.symbolToVsCurrency(pair), url.QueryEscape(coinID))

	var result []coinMarket
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return nil, fmt.Errorf("fetching market: %w", err)
	}
	if len(result) == 0 {
		return nil, core.WrapError(core.ErrSymbolNotFound, fmt.Errorf("no data for coin: %s", coinID))
	}

	m := result[0]
	return &crypto.Market{
		Name:              m.Name,
		Price:             m.CurrentPrice,
		ChangePct:         m.PriceChangePercentage24h,
		Volume:            m.TotalVolume,
		MarketCap:         m.MarketCap,
		CirculatingSupply: m.CirculatingSupply,
		TotalSupply:       m.TotalSupply,
		MaxSupply:         m.MaxSupply,
	}, nil
}

// FetchHistory fetches OHLC candles. CoinGecko has no volume on this
// endpoint and caps the window at a year.
func (c *CoinGecko) FetchHistory(ctx context.Context, pair string, start, end time.Time, interval string) (core.Series, error) {
	coinID := c.symbolToID(pair)

	days := int(end.Sub(start).Hours() / 24)
	if days < 1 {
		days = 1
	}
	if days > 365 {
		days = 365
	}

	endpoint := fmt.Sprintf("%s/coins/%s/ohlc?vs_currency=%s&days=%d",
		c.baseURL, url.PathEscape(coinID), c.symbolToVsCurrency(pair), days)

	// CoinGecko returns [[timestamp, open, high, low, close], ...]
	var ohlcData [][]float64
	if err := c.getJSON(ctx, endpoint, &ohlcData); err != nil {
		return nil, fmt.Errorf("fetching history: %w", err)
	}

	data := make(core.Series, 0, len(ohlcData))
	for _, ohlc := range ohlcData {
		if len(ohlc) < 5 {
			continue
		}
		ts := time.UnixMilli(int64(ohlc[0])).UTC()
		if ts.Before(start) || ts.After(end) {
			continue
		}
		data = append(data, core.OHLCV{
			Symbol:   pair,
			Interval: interval,
			Open:     ohlc[1],
			High:     ohlc[2],
			Low:      ohlc[3],
			Close:    ohlc[4],
			Time:     ts,
		})
	}

	return data, nil
}

func (c *CoinGecko) getJSON(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return core.WrapError(core.ErrRateLimited, fmt.Errorf("coingecko status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// coinMarket is one row of /coins/markets. Supply fields are null for
// coins without a cap.
type coinMarket struct {
	ID                       string   `json:"id"`
	Name                     string   `json:"name"`
	CurrentPrice             *float64 `json:"current_price"`
	PriceChangePercentage24h *float64 `json:"price_change_percentage_24h"`
	TotalVolume              *float64 `json:"total_volume"`
	MarketCap                *float64 `json:"market_cap"`
	CirculatingSupply        *float64 `json:"circulating_supply"`
	TotalSupply              *float64 `json:"total_supply"`
	MaxSupply                *float64 `json:"max_supply"`
}

var _ crypto.Provider = (*CoinGecko)(nil)
