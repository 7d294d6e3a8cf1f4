package indicator

import "iter"

// pullPair merges two index-ordered scans into one, preferring the minima
// side on equal indexes.
func pullPair(mins, maxs iter.Seq[Extremum]) (func() (Extremum, bool), func()) {
	nextMin, stopMin := iter.Pull(mins)
	nextMax, stopMax := iter.Pull(maxs)

	curMin, okMin := nextMin()
	curMax, okMax := nextMax()

	next := func() (Extremum, bool) {
		switch {
		case okMin && (!okMax || curMin.Index <= curMax.Index):
			out := curMin
			curMin, okMin = nextMin()
			return out, true
		case okMax:
			out := curMax
			curMax, okMax = nextMax()
			return out, true
		}
		return Extremum{}, false
	}
	stop := func() {
		stopMin()
		stopMax()
	}
	return next, stop
}
