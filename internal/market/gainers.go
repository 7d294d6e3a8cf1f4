package market

import (
	"cmp"
	"context"
	"slices"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/instrument"
)

const (
	DefaultGainerThreshold = 3.0
	DefaultGainerLimit     = 20
	defaultWorkers         = 4
)

// InfoSource fetches instrument metadata. collector.Collector satisfies it.
type InfoSource interface {
	FetchInfo(ctx context.Context, symbol string, class core.AssetClass) (instrument.Info, error)
}

// Gainer is one instrument that moved more than the threshold in 24h.
type Gainer struct {
	Symbol    string                    `json:"symbol"`
	Name      string                    `json:"name"`
	ChangePct float64                   `json:"change_pct"`
	Price     instrument.Value[float64] `json:"price"`
}

// Scanner finds the top gainers of a universe.
type Scanner struct {
	source    InfoSource
	threshold float64
	limit     int
	workers   int
	logger    *zap.Logger
	progress  func(symbol string)
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithThreshold sets the minimum 24h change in percent.
func WithThreshold(pct float64) ScannerOption {
	return func(s *Scanner) { s.threshold = pct }
}

// WithLimit caps how many gainers are returned.
func WithLimit(n int) ScannerOption {
	return func(s *Scanner) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithWorkers bounds how many symbols are fetched concurrently.
func WithWorkers(n int) ScannerOption {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithScanLogger sets the logger. A nil logger keeps the no-op default.
func WithScanLogger(l *zap.Logger) ScannerOption {
	return func(s *Scanner) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithProgress registers a callback invoked after each symbol is checked.
func WithProgress(fn func(symbol string)) ScannerOption {
	return func(s *Scanner) { s.progress = fn }
}

// NewScanner creates a Scanner over source.
func NewScanner(source InfoSource, opts ...ScannerOption) *Scanner {
	s := &Scanner{
		source:    source,
		threshold: DefaultGainerThreshold,
		limit:     DefaultGainerLimit,
		workers:   defaultWorkers,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TopGainers checks every symbol and returns those whose 24h change is
// strictly above the threshold, highest first. Symbols whose metadata
// cannot be fetched or has no change figure are skipped.
func (s *Scanner) TopGainers(ctx context.Context, class core.AssetClass, symbols []string) []Gainer {
	p := pool.NewWithResults[*Gainer]().WithMaxGoroutines(s.workers)

	for _, symbol := range symbols {
		p.Go(func() *Gainer {
			defer s.tick(symbol)
			if ctx.Err() != nil {
				return nil
			}

			info, err := s.source.FetchInfo(ctx, symbol, class)
			if err != nil {
				s.logger.Warn("gainer check failed", zap.String("symbol", symbol), zap.Error(err))
				return nil
			}
			change, ok := info.ChangePct.Get()
			if !ok || change <= s.threshold {
				return nil
			}
			return &Gainer{
				Symbol:    symbol,
				Name:      info.DisplayName(),
				ChangePct: change,
				Price:     info.Price,
			}
		})
	}

	gainers := make([]Gainer, 0)
	for _, g := range p.Wait() {
		if g != nil {
			gainers = append(gainers, *g)
		}
	}

	slices.SortFunc(gainers, func(a, b Gainer) int {
		if c := cmp.Compare(b.ChangePct, a.ChangePct); c != 0 {
			return c
		}
		return cmp.Compare(a.Symbol, b.Symbol)
	})

	s.logger.Info("gainer scan complete",
		zap.String("class", string(class)),
		zap.Int("checked", len(symbols)),
		zap.Int("found", len(gainers)),
		zap.Float64("threshold", s.threshold),
	)

	if len(gainers) > s.limit {
		gainers = gainers[:s.limit]
	}
	return gainers
}

func (s *Scanner) tick(symbol string) {
	if s.progress != nil {
		s.progress(symbol)
	}
}
