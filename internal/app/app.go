// Package app wires collectors, detectors, sessions and the refresh loop
// into the operations the HTTP server, the CLI and the MCP tools share.
package app

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/chartdesk/internal/analysis"
	"github.com/newthinker/chartdesk/internal/chart"
	"github.com/newthinker/chartdesk/internal/collector"
	"github.com/newthinker/chartdesk/internal/commentary"
	"github.com/newthinker/chartdesk/internal/config"
	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/indicator"
	"github.com/newthinker/chartdesk/internal/market"
	"github.com/newthinker/chartdesk/internal/metrics"
	"github.com/newthinker/chartdesk/internal/notifier"
	"github.com/newthinker/chartdesk/internal/refresh"
	"github.com/newthinker/chartdesk/internal/router"
	"github.com/newthinker/chartdesk/internal/session"
	"github.com/newthinker/chartdesk/internal/storage/archive"
	"github.com/newthinker/chartdesk/internal/storage/signal"
)

// alertHistory is how many routed alerts are kept in memory.
const alertHistory = 500

// App is the application orchestrator.
type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	metrics    *metrics.Registry
	collectors *collector.Registry
	notifiers  *notifier.Registry
	router     *router.Router
	alerts     signal.Store
	analyzer   *analysis.Analyzer
	composer   *chart.Composer
	universe   *market.Universe
	sessions   *session.Store
	scheduler  *refresh.Scheduler
	charts     *archive.Charts
	writer     *commentary.Writer
	now        func() time.Time

	gainersMu sync.Mutex
	gainers   map[core.AssetClass]gainerEntry

	mu      sync.Mutex
	running bool
	closers []func() error
}

type gainerEntry struct {
	list []market.Gainer
	at   time.Time
}

// Option configures an App before its components are built.
type Option func(*App)

// WithMetrics feeds every component's measurements into reg.
func WithMetrics(reg *metrics.Registry) Option {
	return func(a *App) { a.metrics = reg }
}

// WithUniverse replaces the built-in symbol lists.
func WithUniverse(u *market.Universe) Option {
	return func(a *App) {
		if u != nil {
			a.universe = u
		}
	}
}

// New creates an App with no collectors or notifiers registered.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) *App {
	if cfg == nil {
		cfg = config.Defaults()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &App{
		cfg:        cfg,
		logger:     logger,
		collectors: collector.NewRegistry(),
		notifiers:  notifier.NewRegistry(),
		universe:   market.DefaultUniverse(),
		alerts:     signal.NewMemoryStore(alertHistory),
		now:        time.Now,
		gainers:    make(map[core.AssetClass]gainerEntry),
	}
	for _, opt := range opts {
		opt(a)
	}

	analysisOpts := []analysis.Option{analysis.WithLogger(logger.Named("analysis"))}
	chartOpts := []chart.Option{chart.WithLogger(logger.Named("chart"))}
	refreshOpts := []refresh.Option{refresh.WithLogger(logger.Named("refresh"))}
	if a.metrics != nil {
		analysisOpts = append(analysisOpts, analysis.WithObserver(a.metrics))
		chartOpts = append(chartOpts, chart.WithObserver(a.metrics))
		refreshOpts = append(refreshOpts, refresh.WithObserver(a.metrics))
	}

	a.analyzer = analysis.New(analysis.Params{
		LevelWindow: cfg.Analysis.SRWindow,
		SwingWindow: cfg.Analysis.SwingWindow,
	}, analysisOpts...)
	a.composer = chart.NewComposer(a.analyzer, chartOpts...)
	a.sessions = session.NewStore(a.universe, 0, cfg.Sessions.IdleTimeout)
	a.scheduler = refresh.NewScheduler(cfg.Refresh.Interval, refreshOpts...)

	a.router = router.New(router.Config{
		Cooldown: time.Duration(cfg.Router.CooldownHours) * time.Hour,
		Kinds:    []indicator.SignalKind{indicator.Buy, indicator.Sell},
	}, a.notifiers, logger.Named("router"))
	a.router.SetSignalStore(a.alerts)
	if a.metrics != nil {
		a.router.SetObserver(a.metrics)
	}

	return a
}

// RegisterCollector adds c, instrumented when metrics are enabled.
func (a *App) RegisterCollector(c collector.Collector) {
	if a.metrics != nil {
		c = collector.NewInstrumented(c, a.metrics)
	}
	a.collectors.Register(c)
}

// RouteClass pins an asset class to a registered collector name.
func (a *App) RouteClass(class core.AssetClass, name string) {
	a.collectors.Route(class, name)
}

// RegisterNotifier adds an alert channel.
func (a *App) RegisterNotifier(n notifier.Notifier) error {
	return a.notifiers.Register(n)
}

// SetArchive enables chart archiving.
func (a *App) SetArchive(c *archive.Charts) {
	a.charts = c
}

// SetCommentary enables LLM commentary.
func (a *App) SetCommentary(w *commentary.Writer) {
	a.writer = w
}

func (a *App) Config() *config.Config        { return a.cfg }
func (a *App) Logger() *zap.Logger           { return a.logger }
func (a *App) Metrics() *metrics.Registry    { return a.metrics }
func (a *App) Universe() *market.Universe    { return a.universe }
func (a *App) Sessions() *session.Store      { return a.sessions }
func (a *App) Scheduler() *refresh.Scheduler { return a.scheduler }
func (a *App) Router() *router.Router        { return a.router }
func (a *App) Composer() *chart.Composer     { return a.composer }

// HasCommentary reports whether an LLM provider is configured.
func (a *App) HasCommentary() bool { return a.writer != nil }

// Stats summarises the application state.
func (a *App) Stats() map[string]any {
	a.mu.Lock()
	running := a.running
	a.mu.Unlock()

	return map[string]any{
		"running":    running,
		"sessions":   a.sessions.Len(),
		"collectors": len(a.collectors.GetAll()),
		"notifiers":  a.notifiers.Len(),
		"archive":    a.charts != nil,
		"commentary": a.writer != nil,
		"interval":   a.scheduler.Interval().String(),
		"router":     a.router.Stats(),
	}
}

// Close releases resources opened by Build, such as the bar cache.
func (a *App) Close() error {
	a.mu.Lock()
	closers := a.closers
	a.closers = nil
	a.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RefreshInterval is how often the dashboard data is recomputed.
func (a *App) RefreshInterval() time.Duration { return a.scheduler.Interval() }

// AlertStore is the history of routed alerts.
func (a *App) AlertStore() signal.Store { return a.alerts }
