package indicator

import (
	"time"

	"github.com/newthinker/chartdesk/internal/core"
)

// SignalKind is the direction of a level crossing.
type SignalKind string

const (
	Buy  SignalKind = "buy"
	Sell SignalKind = "sell"
)

// SignalEvent marks a close that crossed a level between two bars.
type SignalEvent struct {
	Index int        `json:"index"`
	Time  time.Time  `json:"time"`
	Price float64    `json:"price"`
	Kind  SignalKind `json:"kind"`
}

// Signals replays closes against the detected levels. At position i a buy
// fires when close[i-1] < s <= close[i] for a support s, and a sell fires on
// the same crossing against a resistance. Only the first matching level in
// list order counts per position and side. Nothing is emitted when either
// level list is empty.
func Signals(series core.Series, supports, resistances []Level) []SignalEvent {
	events := []SignalEvent{}
	if len(supports) == 0 || len(resistances) == 0 {
		return events
	}

	for i := 1; i < len(series); i++ {
		prev, curr := series[i-1].Close, series[i].Close
		if crossesAny(prev, curr, supports) {
			events = append(events, SignalEvent{Index: i, Time: series[i].Time, Price: curr, Kind: Buy})
		}
		if crossesAny(prev, curr, resistances) {
			events = append(events, SignalEvent{Index: i, Time: series[i].Time, Price: curr, Kind: Sell})
		}
	}
	return events
}

// FilterSignals keeps the events of one kind.
func FilterSignals(events []SignalEvent, kind SignalKind) []SignalEvent {
	out := []SignalEvent{}
	for _, e := range events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func crossesAny(prev, curr float64, levels []Level) bool {
	for _, l := range levels {
		if prev < l.Price && l.Price <= curr {
			return true
		}
	}
	return false
}
