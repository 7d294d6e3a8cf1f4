package chart

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/newthinker/chartdesk/internal/analysis"
	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/indicator"
	"github.com/newthinker/chartdesk/internal/instrument"
)

// Render outcomes reported to the observer.
const (
	OutcomeOK       = "ok"
	OutcomeDegraded = "degraded"
	OutcomeError    = "error"
)

// Overlay names, reported in warnings when an overlay is skipped.
const (
	overlayLevels    = "levels"
	overlayFibonacci = "fibonacci"
	overlaySwings    = "swings"
	overlayABC       = "abc"
	overlaySignals   = "signals"
)

var (
	errEmptySeries = errors.New("price series is empty")
)

// Observer receives the outcome of every render.
type Observer interface {
	ObserveRender(outcome string)
}

// Composer turns a series into a figure.
type Composer struct {
	analyzer *analysis.Analyzer
	logger   *zap.Logger
	observer Observer
}

// Option configures a Composer.
type Option func(*Composer)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Composer) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithObserver sets the render observer.
func WithObserver(o Observer) Option {
	return func(c *Composer) {
		c.observer = o
	}
}

// NewComposer creates a Composer backed by analyzer. A nil analyzer uses
// the default windows.
func NewComposer(analyzer *analysis.Analyzer, opts ...Option) *Composer {
	if analyzer == nil {
		analyzer = analysis.New(analysis.DefaultParams())
	}
	c := &Composer{analyzer: analyzer, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Render analyzes series and composes the chart. It never panics: a chart
// that cannot be built comes back as the error placeholder.
func (c *Composer) Render(series core.Series, instrumentID string, info instrument.Info) Figure {
	return c.RenderResult(series, instrumentID, info, nil)
}

// RenderResult composes the chart from a precomputed analysis. A nil result
// runs the analyzer.
func (c *Composer) RenderResult(series core.Series, instrumentID string, info instrument.Info, res *analysis.Result) (fig Figure) {
	defer func() {
		if r := recover(); r != nil {
			fig = c.fail(instrumentID, fmt.Errorf("%v", r))
		}
	}()

	if len(series) == 0 {
		return c.fail(instrumentID, errEmptySeries)
	}
	if res == nil {
		r := c.analyzer.Analyze(series)
		res = &r
	}

	fig, degraded := c.compose(series, instrumentID, info, *res)
	if _, err := json.Marshal(fig); err != nil {
		return c.fail(instrumentID, err)
	}

	outcome := OutcomeOK
	if degraded {
		outcome = OutcomeDegraded
	}
	c.observe(outcome)
	return fig
}

func (c *Composer) compose(series core.Series, instrumentID string, info instrument.Info, res analysis.Result) (Figure, bool) {
	x := make([]string, len(series))
	for i, b := range series {
		x[i] = stamp(b.Time)
	}
	first, last := x[0], x[len(x)-1]

	fig := Figure{Layout: baseLayout(Heading(instrumentID, info))}
	fig.Data = append(fig.Data, candlestick(series, x), volume(series, x))

	degraded := len(res.Failures) > 0
	overlays := []struct {
		name  string
		skip  bool
		apply func()
	}{
		{overlayLevels, res.Failed(analysis.DetectorLevels), func() {
			fig.Layout.Shapes = append(fig.Layout.Shapes, levelShapes(res.Supports, "green", last)...)
			fig.Layout.Shapes = append(fig.Layout.Shapes, levelShapes(res.Resistances, "red", last)...)
		}},
		{overlayFibonacci, res.Failed(analysis.DetectorFibonacci), func() {
			shapes, notes := fibonacciLines(res.Fibonacci, first, last)
			fig.Layout.Shapes = append(fig.Layout.Shapes, shapes...)
			fig.Layout.Annotations = append(fig.Layout.Annotations, notes...)
		}},
		{overlaySwings, res.Failed(analysis.DetectorSwings), func() {
			fig.Data = append(fig.Data, swingMarkers(res.SwingPoints)...)
		}},
		{overlayABC, res.Failed(analysis.DetectorABC), func() {
			fig.Data = append(fig.Data, abcTraces(res.ABCPatterns)...)
		}},
		{overlaySignals, res.Failed(analysis.DetectorSignals), func() {
			fig.Data = append(fig.Data, signalTraces(res.Signals)...)
		}},
	}

	for _, o := range overlays {
		if o.skip {
			continue
		}
		shapes, annotations, data := len(fig.Layout.Shapes), len(fig.Layout.Annotations), len(fig.Data)
		if err := protect(o.apply); err != nil {
			// Roll back whatever the overlay managed to add.
			fig.Layout.Shapes = fig.Layout.Shapes[:shapes]
			fig.Layout.Annotations = fig.Layout.Annotations[:annotations]
			fig.Data = fig.Data[:data]
			degraded = true
			c.logger.Warn("chart overlay skipped",
				zap.String("instrument", instrumentID),
				zap.String("overlay", o.name),
				zap.Error(err),
			)
		}
	}
	return fig, degraded
}

// fail builds the placeholder figure and logs the cause.
func (c *Composer) fail(instrumentID string, cause error) Figure {
	err := core.WrapError(core.ErrRenderFailed, cause)
	c.logger.Error("error creating chart",
		zap.String("instrument", instrumentID),
		zap.Error(err),
	)
	c.observe(OutcomeError)
	return ErrorFigure(cause)
}

func (c *Composer) observe(outcome string) {
	if c.observer != nil {
		c.observer.ObserveRender(outcome)
	}
}

// ErrorFigure is a blank figure carrying a single error message.
func ErrorFigure(cause error) Figure {
	text := "Error creating chart: " + cause.Error()
	return Figure{
		Data: []Trace{},
		Layout: Layout{
			XAxis: &Axis{Visible: boolPtr(false)},
			YAxis: &Axis{Visible: boolPtr(false)},
			Annotations: []Annotation{{
				X: 0.5, Y: 0.5, XRef: "paper", YRef: "paper",
				Text: text, Font: &Font{Size: 20},
			}},
		},
		Error: text,
	}
}

// Heading builds "{name} ({symbol}) | {label}: {value} | ...".
func Heading(instrumentID string, info instrument.Info) string {
	name := info.Name.Or(instrumentID)
	parts := []string{fmt.Sprintf("%s (%s)", name, instrumentID)}
	for _, f := range info.HeadlineFields() {
		parts = append(parts, f.Label+": "+f.Value)
	}
	return strings.Join(parts, " | ")
}

func protect(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	fn()
	return nil
}

func baseLayout(title string) Layout {
	// Two stacked rows sharing the date axis: 70% price, 30% volume, 0.05 gap.
	return Layout{
		Title:  Title{Text: title},
		Height: 800,
		XAxis: &Axis{
			Title:       &Title{Text: "Date"},
			Type:        "date",
			Anchor:      "y2",
			RangeSlider: &RangeSlide{Visible: false},
		},
		YAxis: &Axis{
			Title:  &Title{Text: "Price (USD)"},
			Domain: []float64{0.335, 1},
		},
		YAxis2: &Axis{
			Domain: []float64{0, 0.285},
			Anchor: "x",
		},
		ShowLegend: true,
	}
}

func candlestick(series core.Series, x []string) Trace {
	t := Trace{Type: "candlestick", Name: "Price", X: x}
	for _, b := range series {
		t.Open = append(t.Open, num(b.Open))
		t.High = append(t.High, num(b.High))
		t.Low = append(t.Low, num(b.Low))
		t.Close = append(t.Close, num(b.Close))
	}
	return t
}

func volume(series core.Series, x []string) Trace {
	t := Trace{
		Type:   "bar",
		Name:   "Volume",
		X:      x,
		Marker: &Marker{Color: "rgba(0, 0, 255, 0.5)"},
		YAxis:  "y2",
	}
	for _, b := range series {
		t.Y = append(t.Y, num(b.Volume))
	}
	return t
}

func levelShapes(levels []indicator.Level, color, last string) []Shape {
	var shapes []Shape
	for _, l := range levels {
		if !finite(l.Price) {
			continue
		}
		shapes = append(shapes, hline(stamp(l.Time), last, l.Price, Line{Color: color, Width: 1, Dash: "dash"}))
	}
	return shapes
}

func fibonacciLines(levels []indicator.FibonacciLevel, first, last string) ([]Shape, []Annotation) {
	var (
		shapes []Shape
		notes  []Annotation
	)
	for _, l := range levels {
		if !finite(l.Price) {
			continue
		}
		shapes = append(shapes, hline(first, last, l.Price, Line{Color: "purple", Width: 1, Dash: "dot"}))
		notes = append(notes, Annotation{
			X: first, Y: l.Price, XRef: "x", YRef: "y",
			Text:    "Fib " + l.Label(),
			XAnchor: "left",
		})
	}
	return shapes, notes
}

func swingMarkers(points []indicator.SwingPoint) []Trace {
	var traces []Trace
	for i, p := range points {
		color := "orange"
		if p.Kind == indicator.Min {
			color = "blue"
		}
		traces = append(traces, Trace{
			Type:   "scatter",
			Name:   fmt.Sprintf("Wave %d", i+1),
			Mode:   "markers",
			X:      []string{stamp(p.Time)},
			Y:      []*float64{num(p.Price)},
			Marker: &Marker{Symbol: "circle", Size: 8, Color: color},
		})
	}
	return traces
}

func abcTraces(patterns []indicator.ABCPattern) []Trace {
	var traces []Trace
	for i, p := range patterns {
		t := Trace{
			Type:         "scatter",
			Name:         fmt.Sprintf("ABC Pattern %d", i+1),
			Mode:         "lines+markers+text",
			Text:         []string{"A", "B", "C"},
			TextPosition: "top center",
			Marker:       &Marker{Symbol: "circle", Size: 10, Color: "cyan"},
		}
		for _, leg := range p.Points() {
			t.X = append(t.X, stamp(leg.Time))
			t.Y = append(t.Y, num(leg.Price))
		}
		traces = append(traces, t)
	}
	return traces
}

func signalTraces(events []indicator.SignalEvent) []Trace {
	var traces []Trace
	styles := []struct {
		kind   indicator.SignalKind
		name   string
		symbol string
		color  string
		edge   string
	}{
		{indicator.Buy, "Buy Signal", "triangle-up", "green", "darkgreen"},
		{indicator.Sell, "Sell Signal", "triangle-down", "red", "darkred"},
	}
	for _, s := range styles {
		matched := indicator.FilterSignals(events, s.kind)
		if len(matched) == 0 {
			continue
		}
		t := Trace{
			Type: "scatter",
			Name: s.name,
			Mode: "markers",
			Marker: &Marker{
				Symbol: s.symbol,
				Size:   15,
				Color:  s.color,
				Line:   &Line{Color: s.edge, Width: 2},
			},
		}
		for _, e := range matched {
			t.X = append(t.X, stamp(e.Time))
			t.Y = append(t.Y, num(e.Price))
		}
		traces = append(traces, t)
	}
	return traces
}

func hline(x0, x1 string, y float64, line Line) Shape {
	return Shape{
		Type: "line", XRef: "x", YRef: "y",
		X0: x0, X1: x1, Y0: y, Y1: y,
		Line: line,
	}
}
