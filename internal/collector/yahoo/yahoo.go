// Package yahoo fetches daily bars and quote metadata from Yahoo Finance
// for every asset class the dashboard shows.
package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/chartdesk/internal/collector"
	"github.com/newthinker/chartdesk/internal/collector/ratelimit"
	"github.com/newthinker/chartdesk/internal/core"
)

const (
	DefaultChartURL = "https://query1.finance.yahoo.com/v8/finance/chart"
	DefaultQuoteURL = "https://query1.finance.yahoo.com/v7/finance/quote"

	userAgent = "Mozilla/5.0 (compatible; chartdesk/1.0)"
)

// validSymbol matches symbols like BTC-USD, GC=F, EURUSD=X, ^GSPC
var validSymbol = regexp.MustCompile(`^\^?[A-Za-z0-9.\-]{1,15}(=[FX])?$`)

// validateSymbol checks if a symbol has valid format
func validateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if len(symbol) > 20 {
		return fmt.Errorf("symbol too long: %s", symbol)
	}
	if !validSymbol.MatchString(symbol) {
		return fmt.Errorf("invalid symbol format: %s", symbol)
	}
	return nil
}

// Yahoo implements the Yahoo Finance collector
type Yahoo struct {
	client   *http.Client
	chartURL string
	quoteURL string
	limiter  *ratelimit.Limiter
	policy   ratelimit.Policy
	logger   *zap.Logger
}

// Option configures the collector.
type Option func(*Yahoo)

// WithEndpoints overrides the chart and quote base URLs.
func WithEndpoints(chartURL, quoteURL string) Option {
	return func(y *Yahoo) {
		if chartURL != "" {
			y.chartURL = chartURL
		}
		if quoteURL != "" {
			y.quoteURL = quoteURL
		}
	}
}

// WithLimiter throttles outbound requests.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(y *Yahoo) { y.limiter = l }
}

// WithRetryPolicy sets how 429 responses are retried.
func WithRetryPolicy(p ratelimit.Policy) Option {
	return func(y *Yahoo) { y.policy = p }
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(y *Yahoo) {
		if d > 0 {
			y.client.Timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(y *Yahoo) { y.logger = l }
}

// New creates a new Yahoo collector
func New(opts ...Option) *Yahoo {
	y := &Yahoo{
		client:   &http.Client{Timeout: 10 * time.Second},
		chartURL: DefaultChartURL,
		quoteURL: DefaultQuoteURL,
		limiter:  ratelimit.NewLimiter("yahoo", 2, 2),
		policy:   ratelimit.DefaultPolicy(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

func (y *Yahoo) Name() string {
	return "yahoo"
}

func (y *Yahoo) AssetClasses() []core.AssetClass {
	return []core.AssetClass{core.AssetCrypto, core.AssetFutures, core.AssetCurrency}
}

// FetchHistory fetches historical OHLCV data. Bars Yahoo reports with
// missing prices are skipped.
func (y *Yahoo) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) (core.Series, error) {
	if err := validateSymbol(symbol); err != nil {
		return nil, core.WrapError(core.ErrSymbolNotFound, err)
	}

	q := url.Values{}
	q.Set("interval", toYahooInterval(interval))
	q.Set("period1", fmt.Sprint(start.Unix()))
	q.Set("period2", fmt.Sprint(end.Unix()))
	endpoint := fmt.Sprintf("%s/%s?%s", y.chartURL, url.PathEscape(symbol), q.Encode())

	body, err := y.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var result chartResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("decoding response: %w", err))
	}

	if result.Chart.Error != nil {
		if result.Chart.Error.Code == "Not Found" {
			return nil, core.WrapError(core.ErrSymbolNotFound, errors.New(result.Chart.Error.Description))
		}
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("yahoo error: %s", result.Chart.Error.Description))
	}

	if len(result.Chart.Result) == 0 || len(result.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no data for symbol: %s", symbol))
	}

	r := result.Chart.Result[0]
	quotes := r.Indicators.Quote[0]

	data := make(core.Series, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		open, high, low, cls := at(quotes.Open, i), at(quotes.High, i), at(quotes.Low, i), at(quotes.Close, i)
		if open == nil || high == nil || low == nil || cls == nil {
			continue
		}
		var volume float64
		if v := at(quotes.Volume, i); v != nil {
			volume = *v
		}
		data = append(data, core.OHLCV{
			Symbol:   symbol,
			Interval: interval,
			Open:     *open,
			High:     *high,
			Low:      *low,
			Close:    *cls,
			Volume:   volume,
			Time:     time.Unix(ts, 0).UTC(),
		})
	}

	if len(data) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no data for symbol: %s", symbol))
	}
	return data, nil
}

// get performs a rate limited GET, retrying 429 responses.
func (y *Yahoo) get(ctx context.Context, endpoint string) ([]byte, error) {
	var body []byte
	op := func() error {
		if err := y.limiter.Wait(ctx); err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := y.client.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("status %d: %w", resp.StatusCode, ratelimit.ErrTooManyRequests)
		case resp.StatusCode == http.StatusNotFound:
			// The chart API reports unknown symbols as 404 with a JSON error body.
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("unexpected status: %d", resp.StatusCode)
		}

		body, err = io.ReadAll(resp.Body)
		return err
	}

	notify := func(err error, wait time.Duration) {
		y.logger.Warn("yahoo rate limited, backing off",
			zap.String("url", endpoint),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	if err := ratelimit.Retry(ctx, y.policy, op, notify); err != nil {
		if errors.Is(err, ratelimit.ErrTooManyRequests) {
			return nil, core.WrapError(core.ErrRateLimited, err)
		}
		return nil, core.WrapError(core.ErrCollectorFailed, err)
	}
	return body, nil
}

func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}

func toYahooInterval(interval string) string {
	switch interval {
	case "1m", "5m", "15m", "30m", "1h", "1d", "1wk", "1mo":
		return interval
	default:
		return "1d"
	}
}

var _ collector.Collector = (*Yahoo)(nil)

// Yahoo API response types
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Timestamp  []int64    `json:"timestamp"`
	Indicators indicators `json:"indicators"`
}

type indicators struct {
	Quote []quoteIndicator `json:"quote"`
}

type quoteIndicator struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}
