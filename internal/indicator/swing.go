package indicator

import (
	"time"

	"github.com/newthinker/chartdesk/internal/core"
)

// DefaultSwingWindow is the half-width used for swing point detection.
const DefaultSwingWindow = 5

// SwingPoint is a local extremum used for wave and pattern markers.
type SwingPoint struct {
	Index int          `json:"index"`
	Time  time.Time    `json:"time"`
	Price float64      `json:"price"`
	Kind  ExtremumKind `json:"kind"`
}

// ABCPattern is three consecutive swing points shaped max, min, max.
type ABCPattern struct {
	A SwingPoint `json:"a"`
	B SwingPoint `json:"b"`
	C SwingPoint `json:"c"`
}

// Points returns the pattern legs in order.
func (p ABCPattern) Points() [3]SwingPoint {
	return [3]SwingPoint{p.A, p.B, p.C}
}

// SwingPoints merges minima of the lows and maxima of the highs into one
// chronological sequence. An index that is both yields the min entry first.
func SwingPoints(series core.Series, window int) []SwingPoint {
	next, stop := pullPair(
		Extrema(series.Lows(), window, Min),
		Extrema(series.Highs(), window, Max),
	)
	defer stop()

	points := []SwingPoint{}
	for e, ok := next(); ok; e, ok = next() {
		points = append(points, SwingPoint{
			Index: e.Index,
			Time:  series[e.Index].Time,
			Price: e.Value,
			Kind:  e.Kind,
		})
	}
	return points
}

// ABCPatterns slides a three point window over the swing sequence and keeps
// every (max, min, max) run. No amplitude or duration rules are applied.
func ABCPatterns(points []SwingPoint) []ABCPattern {
	patterns := []ABCPattern{}
	for i := 0; i+2 < len(points); i++ {
		a, b, c := points[i], points[i+1], points[i+2]
		if a.Kind == Max && b.Kind == Min && c.Kind == Max {
			patterns = append(patterns, ABCPattern{A: a, B: b, C: c})
		}
	}
	return patterns
}
