package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/chartdesk/internal/analysis"
	"github.com/newthinker/chartdesk/internal/chart"
	"github.com/newthinker/chartdesk/internal/commentary"
	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/instrument"
	"github.com/newthinker/chartdesk/internal/market"
	"github.com/newthinker/chartdesk/internal/notifier"
	"github.com/newthinker/chartdesk/internal/storage/signal"
)

// Snapshot is one instrument's fetched data and analysis.
type Snapshot struct {
	Class  core.AssetClass `json:"class"`
	Symbol string          `json:"symbol"`
	Info   instrument.Info `json:"info"`
	Series core.Series     `json:"-"`
	Result analysis.Result `json:"analysis"`
	At     time.Time       `json:"as_of"`
}

// Bars returns the number of bars analysed.
func (s *Snapshot) Bars() int { return len(s.Series) }

// ClassOf resolves the asset class of symbol, preferring the universe
// lists over the suffix convention.
func (a *App) ClassOf(symbol string) core.AssetClass {
	for _, class := range core.AssetClasses {
		if a.universe.Contains(class, symbol) {
			return class
		}
	}
	return core.DetectAssetClass(symbol)
}

// Fetch loads history and metadata for symbol. A metadata failure
// degrades to an info record with every field unavailable; a history
// failure is returned.
func (a *App) Fetch(ctx context.Context, class core.AssetClass, symbol string) (core.Series, instrument.Info, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, instrument.Info{}, core.ErrInvalidInput
	}

	c, ok := a.collectors.ForClass(class)
	if !ok {
		return nil, instrument.Info{}, core.WrapError(core.ErrProviderUnavailable, errors.New("no collector for "+string(class)))
	}

	end := a.now()
	start := end.AddDate(0, 0, -a.cfg.Collectors.HistoryDays)
	series, err := c.FetchHistory(ctx, symbol, start, end, a.cfg.Collectors.Interval)
	if err != nil {
		return nil, instrument.Info{}, err
	}

	info, err := c.FetchInfo(ctx, symbol, class)
	if err != nil {
		a.logger.Warn("metadata unavailable",
			zap.String("symbol", symbol),
			zap.String("collector", c.Name()),
			zap.Error(err),
		)
		info = instrument.NewInfo(class, symbol)
	}
	return series, info, nil
}

// Analyze fetches symbol and runs every detector over its history.
func (a *App) Analyze(ctx context.Context, symbol string) (*Snapshot, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	class := a.ClassOf(symbol)

	series, info, err := a.Fetch(ctx, class, symbol)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Class:  class,
		Symbol: symbol,
		Info:   info,
		Series: series,
		Result: a.analyzer.Analyze(series),
		At:     a.now(),
	}, nil
}

// Chart renders a snapshot. It never fails; problems produce a
// placeholder figure.
func (a *App) Chart(snap *Snapshot) chart.Figure {
	if snap == nil {
		return chart.ErrorFigure(core.ErrNoData)
	}
	res := snap.Result
	return a.composer.RenderResult(snap.Series, snap.Symbol, snap.Info, &res)
}

// Search filters the universe list of class.
func (a *App) Search(class core.AssetClass, query string) []string {
	if strings.TrimSpace(query) == "" {
		return a.universe.Symbols(class)
	}
	return a.universe.Search(class, query)
}

// Gainers returns the top gainers of class, reusing a scan younger than
// the refresh interval.
func (a *App) Gainers(ctx context.Context, class core.AssetClass) []market.Gainer {
	a.gainersMu.Lock()
	entry, ok := a.gainers[class]
	a.gainersMu.Unlock()
	if ok && a.now().Sub(entry.at) < a.scheduler.Interval() {
		return entry.list
	}

	list := a.ScanGainers(ctx, class)
	if ctx.Err() != nil {
		return list
	}

	a.gainersMu.Lock()
	a.gainers[class] = gainerEntry{list: list, at: a.now()}
	a.gainersMu.Unlock()
	return list
}

// ScanGainers runs a fresh gainers scan over the universe of class.
func (a *App) ScanGainers(ctx context.Context, class core.AssetClass, opts ...market.ScannerOption) []market.Gainer {
	c, ok := a.collectors.ForClass(class)
	if !ok {
		a.logger.Warn("gainers skipped, no collector", zap.String("class", string(class)))
		return []market.Gainer{}
	}

	base := []market.ScannerOption{
		market.WithThreshold(a.cfg.Gainers.Threshold),
		market.WithLimit(a.cfg.Gainers.Limit),
		market.WithWorkers(a.cfg.Gainers.Workers),
		market.WithScanLogger(a.logger.Named("gainers")),
	}
	scanner := market.NewScanner(c, append(base, opts...)...)
	return scanner.TopGainers(ctx, class, a.universe.Symbols(class))
}

// Positioning returns the positioning placeholders for symbol.
func (a *App) Positioning(symbol string) instrument.Positioning {
	return instrument.PositioningFor(strings.ToUpper(strings.TrimSpace(symbol)))
}

// Commentary asks the configured LLM to narrate a snapshot.
func (a *App) Commentary(ctx context.Context, snap *Snapshot) (*commentary.Commentary, error) {
	if a.writer == nil {
		return nil, core.WrapError(core.ErrConfigMissing, errors.New("no llm provider configured"))
	}
	if snap == nil {
		return nil, core.ErrNoData
	}
	return a.writer.Write(ctx, snap.Info, snap.Series, snap.Result)
}

// Alerts lists routed signal alerts, newest first.
func (a *App) Alerts(ctx context.Context, filter signal.ListFilter) ([]notifier.Alert, error) {
	return a.alerts.List(ctx, filter)
}

// Archive stores the figure of a snapshot. It is a no-op returning an
// empty path when archiving is disabled.
func (a *App) Archive(ctx context.Context, snap *Snapshot, fig chart.Figure) (string, error) {
	if a.charts == nil || snap == nil {
		return "", nil
	}
	return a.charts.Save(ctx, snap.Class, snap.Symbol, snap.At, fig)
}

// ArchiveEnabled reports whether a chart archive is configured.
func (a *App) ArchiveEnabled() bool { return a.charts != nil }
