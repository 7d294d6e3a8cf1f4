package indicator

import "iter"

// ExtremumKind tags a scanned position as a local low or high.
type ExtremumKind string

const (
	Min ExtremumKind = "min"
	Max ExtremumKind = "max"
)

// Extremum is one position reported by the sliding-window scan.
type Extremum struct {
	Index int
	Value float64
	Kind  ExtremumKind
}

// Extrema yields every index i in [window, n-window) whose value is <= (Min)
// or >= (Max) each of the window values on both sides. Ties qualify, so a
// plateau can produce several adjacent extrema. The scan is lazy and each
// range over the returned sequence restarts it from the beginning.
//
// Nothing is yielded when n <= 2*window or window < 1. Comparisons involving
// NaN are false, so a NaN neither qualifies nor lets its neighbours qualify.
func Extrema(values []float64, window int, kind ExtremumKind) iter.Seq[Extremum] {
	return func(yield func(Extremum) bool) {
		if window < 1 || len(values) <= 2*window {
			return
		}
		for i := window; i < len(values)-window; i++ {
			if !isExtremum(values, i, window, kind) {
				continue
			}
			if !yield(Extremum{Index: i, Value: values[i], Kind: kind}) {
				return
			}
		}
	}
}

func isExtremum(values []float64, i, window int, kind ExtremumKind) bool {
	v := values[i]
	for j := 1; j <= window; j++ {
		before, after := values[i-j], values[i+j]
		switch kind {
		case Min:
			if !(v <= before && v <= after) {
				return false
			}
		case Max:
			if !(v >= before && v >= after) {
				return false
			}
		default:
			return false
		}
	}
	return true
}
