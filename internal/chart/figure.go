// Package chart builds Plotly figures from a price series and its analysis.
package chart

import (
	"math"
	"time"
)

// dateLayout is the timestamp format Plotly parses on date axes.
const dateLayout = "2006-01-02 15:04:05"

// Figure is a Plotly figure. Error is set on the placeholder figure
// produced when composition fails.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
	Error  string  `json:"error,omitempty"`
}

// Failed reports whether this is the error placeholder.
func (f Figure) Failed() bool {
	return f.Error != ""
}

// Trace is the subset of Plotly trace attributes the dashboard uses.
// Missing numbers are encoded as null, which Plotly renders as gaps.
type Trace struct {
	Type         string     `json:"type"`
	Name         string     `json:"name,omitempty"`
	X            []string   `json:"x"`
	Y            []*float64 `json:"y,omitempty"`
	Open         []*float64 `json:"open,omitempty"`
	High         []*float64 `json:"high,omitempty"`
	Low          []*float64 `json:"low,omitempty"`
	Close        []*float64 `json:"close,omitempty"`
	Mode         string     `json:"mode,omitempty"`
	Text         []string   `json:"text,omitempty"`
	TextPosition string     `json:"textposition,omitempty"`
	Marker       *Marker    `json:"marker,omitempty"`
	XAxis        string     `json:"xaxis,omitempty"`
	YAxis        string     `json:"yaxis,omitempty"`
}

// Marker styles scatter points and bars.
type Marker struct {
	Symbol string `json:"symbol,omitempty"`
	Size   int    `json:"size,omitempty"`
	Color  string `json:"color,omitempty"`
	Line   *Line  `json:"line,omitempty"`
}

// Line styles shapes and marker outlines.
type Line struct {
	Color string `json:"color,omitempty"`
	Width int    `json:"width,omitempty"`
	Dash  string `json:"dash,omitempty"`
}

// Layout is the figure layout.
type Layout struct {
	Title       Title        `json:"title"`
	Height      int          `json:"height,omitempty"`
	XAxis       *Axis        `json:"xaxis,omitempty"`
	YAxis       *Axis        `json:"yaxis,omitempty"`
	YAxis2      *Axis        `json:"yaxis2,omitempty"`
	Shapes      []Shape      `json:"shapes,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty"`
	ShowLegend  bool         `json:"showlegend"`
}

// Title is a layout or axis title.
type Title struct {
	Text string `json:"text"`
}

// Axis configures one axis.
type Axis struct {
	Title       *Title      `json:"title,omitempty"`
	Domain      []float64   `json:"domain,omitempty"`
	Anchor      string      `json:"anchor,omitempty"`
	Type        string      `json:"type,omitempty"`
	RangeSlider *RangeSlide `json:"rangeslider,omitempty"`
	Visible     *bool       `json:"visible,omitempty"`
}

// RangeSlide toggles the x axis range slider.
type RangeSlide struct {
	Visible bool `json:"visible"`
}

// Shape is a layout line drawn in data coordinates.
type Shape struct {
	Type string  `json:"type"`
	XRef string  `json:"xref"`
	YRef string  `json:"yref"`
	X0   string  `json:"x0"`
	X1   string  `json:"x1"`
	Y0   float64 `json:"y0"`
	Y1   float64 `json:"y1"`
	Line Line    `json:"line"`
}

// Annotation is a text label on the figure.
type Annotation struct {
	X         any    `json:"x"`
	Y         any    `json:"y"`
	XRef      string `json:"xref,omitempty"`
	YRef      string `json:"yref,omitempty"`
	Text      string `json:"text"`
	ShowArrow bool   `json:"showarrow"`
	XAnchor   string `json:"xanchor,omitempty"`
	Font      *Font  `json:"font,omitempty"`
}

// Font sizes annotation text.
type Font struct {
	Size int `json:"size"`
}

func stamp(t time.Time) string {
	return t.Format(dateLayout)
}

// num converts a float to a JSON safe pointer, nil for NaN and infinities.
func num(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func boolPtr(b bool) *bool {
	return &b
}
