// Package analysis batches the indicator detectors into one call and keeps a
// failing detector from taking the others down with it.
package analysis

import (
	"fmt"
	"math"
	"runtime/debug"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/indicator"
)

// Detector names used in Result.Failures and in metrics labels.
const (
	DetectorLevels    = "levels"
	DetectorFibonacci = "fibonacci"
	DetectorSwings    = "swings"
	DetectorABC       = "abc"
	DetectorSignals   = "signals"
)

// Detectors lists every detector in execution order.
var Detectors = []string{DetectorLevels, DetectorFibonacci, DetectorSwings, DetectorABC, DetectorSignals}

// Params holds the window sizes used by the windowed detectors.
type Params struct {
	LevelWindow int `mapstructure:"sr_window" json:"sr_window"`
	SwingWindow int `mapstructure:"swing_window" json:"swing_window"`
}

// DefaultParams returns the standard windows (10 for levels, 5 for swings).
func DefaultParams() Params {
	return Params{
		LevelWindow: indicator.DefaultLevelWindow,
		SwingWindow: indicator.DefaultSwingWindow,
	}
}

// Result is everything derived from one series. A detector listed in
// Failures contributed an empty slice.
type Result struct {
	Supports    []indicator.Level          `json:"supports"`
	Resistances []indicator.Level          `json:"resistances"`
	Fibonacci   []indicator.FibonacciLevel `json:"fibonacci"`
	SwingPoints []indicator.SwingPoint     `json:"swing_points"`
	ABCPatterns []indicator.ABCPattern     `json:"abc_patterns"`
	Signals     []indicator.SignalEvent    `json:"signals"`
	Failures    map[string]string          `json:"failures,omitempty"`
}

// Failed reports whether the named detector failed.
func (r Result) Failed(detector string) bool {
	_, ok := r.Failures[detector]
	return ok
}

// LatestSignals returns the events on the final bar of a series of length n.
func (r Result) LatestSignals(n int) []indicator.SignalEvent {
	out := []indicator.SignalEvent{}
	for _, e := range r.Signals {
		if e.Index == n-1 {
			out = append(out, e)
		}
	}
	return out
}

// RecentSignals returns up to the last k events in chronological order.
func (r Result) RecentSignals(k int) []indicator.SignalEvent {
	if k <= 0 {
		return []indicator.SignalEvent{}
	}
	start := max(len(r.Signals)-k, 0)
	return slices.Clone(r.Signals[start:])
}

// Finite returns a copy without the entries whose price is NaN or infinite.
// JSON cannot carry those values, so encoders use this copy.
func (r Result) Finite() Result {
	out := Result{
		Supports:    keepFinite(r.Supports, func(l indicator.Level) float64 { return l.Price }),
		Resistances: keepFinite(r.Resistances, func(l indicator.Level) float64 { return l.Price }),
		Fibonacci:   keepFinite(r.Fibonacci, func(l indicator.FibonacciLevel) float64 { return l.Price }),
		SwingPoints: keepFinite(r.SwingPoints, func(p indicator.SwingPoint) float64 { return p.Price }),
		Signals:     keepFinite(r.Signals, func(e indicator.SignalEvent) float64 { return e.Price }),
		Failures:    r.Failures,
	}
	out.ABCPatterns = make([]indicator.ABCPattern, 0, len(r.ABCPatterns))
	for _, p := range r.ABCPatterns {
		if finite(p.A.Price) && finite(p.B.Price) && finite(p.C.Price) {
			out.ABCPatterns = append(out.ABCPatterns, p)
		}
	}
	return out
}

func keepFinite[T any](items []T, price func(T) float64) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if finite(price(it)) {
			out = append(out, it)
		}
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Observer receives per-run measurements. metrics.Registry satisfies it.
type Observer interface {
	ObserveAnalysis(duration time.Duration, failures []string)
}

// Analyzer runs the detectors over a series.
type Analyzer struct {
	params   Params
	logger   *zap.Logger
	observer Observer
	detect   detectors
}

// detectors are swappable in tests to exercise failure isolation.
type detectors struct {
	levels    func(core.Series, int) ([]indicator.Level, []indicator.Level)
	fibonacci func(core.Series) []indicator.FibonacciLevel
	swings    func(core.Series, int) []indicator.SwingPoint
	abc       func([]indicator.SwingPoint) []indicator.ABCPattern
	signals   func(core.Series, []indicator.Level, []indicator.Level) []indicator.SignalEvent
}

var defaultDetectors = detectors{
	levels:    indicator.SupportResistance,
	fibonacci: indicator.Fibonacci,
	swings:    indicator.SwingPoints,
	abc:       indicator.ABCPatterns,
	signals:   indicator.Signals,
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger used for detector failures.
func WithLogger(l *zap.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithObserver sets the run observer.
func WithObserver(o Observer) Option {
	return func(a *Analyzer) {
		a.observer = o
	}
}

// New creates an Analyzer. Non-positive windows fall back to the defaults.
func New(params Params, opts ...Option) *Analyzer {
	def := DefaultParams()
	if params.LevelWindow <= 0 {
		params.LevelWindow = def.LevelWindow
	}
	if params.SwingWindow <= 0 {
		params.SwingWindow = def.SwingWindow
	}
	a := &Analyzer{params: params, logger: zap.NewNop(), detect: defaultDetectors}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Params returns the windows in use.
func (a *Analyzer) Params() Params {
	return a.params
}

// Analyze runs every detector. It never panics and never returns an error;
// a detector that fails is logged, recorded in Failures and left empty.
func (a *Analyzer) Analyze(series core.Series) Result {
	start := time.Now()
	res := Result{
		Supports:    []indicator.Level{},
		Resistances: []indicator.Level{},
		Fibonacci:   []indicator.FibonacciLevel{},
		SwingPoints: []indicator.SwingPoint{},
		ABCPatterns: []indicator.ABCPattern{},
		Signals:     []indicator.SignalEvent{},
	}

	a.run(&res, DetectorLevels, func() {
		res.Supports, res.Resistances = a.detect.levels(series, a.params.LevelWindow)
	})
	a.run(&res, DetectorFibonacci, func() {
		res.Fibonacci = a.detect.fibonacci(series)
	})
	a.run(&res, DetectorSwings, func() {
		res.SwingPoints = a.detect.swings(series, a.params.SwingWindow)
	})
	if !res.Failed(DetectorSwings) {
		a.run(&res, DetectorABC, func() {
			res.ABCPatterns = a.detect.abc(res.SwingPoints)
		})
	}
	if !res.Failed(DetectorLevels) {
		a.run(&res, DetectorSignals, func() {
			res.Signals = a.detect.signals(series, res.Supports, res.Resistances)
		})
	}

	if a.observer != nil {
		failed := make([]string, 0, len(res.Failures))
		for name := range res.Failures {
			failed = append(failed, name)
		}
		slices.Sort(failed)
		a.observer.ObserveAnalysis(time.Since(start), failed)
	}
	return res
}

func (a *Analyzer) run(res *Result, name string, fn func()) {
	if stack, err := guard(fn); err != nil {
		a.logger.Warn("detector failed",
			zap.String("detector", name),
			zap.Error(err),
			zap.ByteString("stack", stack),
		)
		if res.Failures == nil {
			res.Failures = make(map[string]string)
		}
		res.Failures[name] = err.Error()
	}
}

// guard converts a panic in fn into an error and the stack it unwound.
func guard(fn func()) (stack []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = core.WrapError(core.ErrDetectorFailed, fmt.Errorf("%v", r))
			stack = debug.Stack()
		}
	}()
	fn()
	return nil, nil
}
