package indicator

import (
	"math"
	"strconv"

	"github.com/newthinker/chartdesk/internal/core"
)

// FibonacciRatios are the retracement ratios, top of range first.
var FibonacciRatios = []float64{0.0, 0.236, 0.382, 0.5, 0.618, 0.786, 1.0}

// FibonacciLevel is the price at one retracement ratio.
type FibonacciLevel struct {
	Ratio float64 `json:"ratio"`
	Price float64 `json:"price"`
}

// Label renders the ratio the way chart annotations show it ("0.236", "1.0").
func (l FibonacciLevel) Label() string {
	s := strconv.FormatFloat(l.Ratio, 'f', -1, 64)
	if l.Ratio == math.Trunc(l.Ratio) {
		s += ".0"
	}
	return s
}

// Fibonacci derives retracement levels between the highest high and the
// lowest low of the whole series. Ratio 0 is exactly the high and ratio 1
// exactly the low. NaN and infinite values are ignored; the result is empty
// when the series is empty or has no usable high or low.
func Fibonacci(series core.Series) []FibonacciLevel {
	if len(series) == 0 {
		return []FibonacciLevel{}
	}

	highest, okHigh := extreme(series.Highs(), func(a, b float64) bool { return a > b })
	lowest, okLow := extreme(series.Lows(), func(a, b float64) bool { return a < b })
	if !okHigh || !okLow {
		return []FibonacciLevel{}
	}

	diff := highest - lowest
	levels := make([]FibonacciLevel, 0, len(FibonacciRatios))
	for _, r := range FibonacciRatios {
		price := highest - r*diff
		switch r {
		case 0:
			price = highest
		case 1:
			price = lowest
		}
		levels = append(levels, FibonacciLevel{Ratio: r, Price: price})
	}
	return levels
}

func extreme(values []float64, better func(a, b float64) bool) (float64, bool) {
	var best float64
	found := false
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if !found || better(v, best) {
			best = v
			found = true
		}
	}
	return best, found
}
