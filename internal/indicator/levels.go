package indicator

import (
	"time"

	"github.com/newthinker/chartdesk/internal/core"
)

// DefaultLevelWindow is the half-width used to detect support and resistance.
const DefaultLevelWindow = 10

// LevelKind distinguishes support from resistance.
type LevelKind string

const (
	Support    LevelKind = "support"
	Resistance LevelKind = "resistance"
)

// Level is a horizontal price detected at a local extremum.
type Level struct {
	Index int       `json:"index"`
	Time  time.Time `json:"time"`
	Price float64   `json:"price"`
	Kind  LevelKind `json:"kind"`
}

// SupportResistance scans lows for supports and highs for resistances.
// Every qualifying index becomes its own level; nearby levels are not merged.
func SupportResistance(series core.Series, window int) (supports, resistances []Level) {
	supports = levelsFrom(series, series.Lows(), window, Min, Support)
	resistances = levelsFrom(series, series.Highs(), window, Max, Resistance)
	return supports, resistances
}

func levelsFrom(series core.Series, values []float64, window int, ek ExtremumKind, lk LevelKind) []Level {
	levels := []Level{}
	for e := range Extrema(values, window, ek) {
		levels = append(levels, Level{
			Index: e.Index,
			Time:  series[e.Index].Time,
			Price: e.Value,
			Kind:  lk,
		})
	}
	return levels
}
