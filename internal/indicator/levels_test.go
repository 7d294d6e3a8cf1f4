package indicator

import (
	"math"
	"testing"
)

// vShape returns 30 bars whose lows fall from 100 to 90 at day 15 and rise
// back to 100, with highs one point above the lows.
func vShape() ([]float64, []float64) {
	lows := make([]float64, 30)
	highs := make([]float64, 30)
	for i := range lows {
		lows[i] = 90 + math.Abs(float64(i-15))*10/15
		highs[i] = lows[i] + 1
	}
	return lows, highs
}

func TestSupportResistance_VShape(t *testing.T) {
	lows, highs := vShape()
	series := makeSeries(lows, highs, nil)

	supports, resistances := SupportResistance(series, DefaultLevelWindow)

	if len(supports) != 1 {
		t.Fatalf("expected exactly one support, got %d: %v", len(supports), supports)
	}
	s := supports[0]
	if s.Index != 15 || s.Price != 90 || s.Kind != Support {
		t.Errorf("unexpected support %+v", s)
	}
	if !s.Time.Equal(day0.AddDate(0, 0, 15)) {
		t.Errorf("support time = %v, want day 15", s.Time)
	}
	if len(resistances) != 0 {
		t.Errorf("expected no resistance on the slopes, got %v", resistances)
	}
}

func TestSupportResistance_Peak(t *testing.T) {
	lows, highs := vShape()
	// Mirror into an inverted V.
	for i := range lows {
		lows[i], highs[i] = 200-highs[i], 200-lows[i]
	}
	series := makeSeries(lows, highs, nil)

	supports, resistances := SupportResistance(series, DefaultLevelWindow)

	if len(supports) != 0 {
		t.Errorf("expected no supports, got %v", supports)
	}
	if len(resistances) != 1 || resistances[0].Index != 15 || resistances[0].Price != 110 {
		t.Errorf("unexpected resistances %v", resistances)
	}
}

func TestSupportResistance_FlatBottomNotDeduplicated(t *testing.T) {
	lows := []float64{10, 9, 8, 7, 5, 5, 5, 7, 8, 9, 10}
	highs := make([]float64, len(lows))
	for i, l := range lows {
		highs[i] = l + 1
	}
	series := makeSeries(lows, highs, nil)

	supports, _ := SupportResistance(series, 3)
	if len(supports) != 3 {
		t.Fatalf("expected one level per flat index, got %v", supports)
	}
	for i, s := range supports {
		if s.Index != 4+i {
			t.Errorf("supports[%d].Index = %d, want %d", i, s.Index, 4+i)
		}
	}
}

func TestSupportResistance_ShortSeries(t *testing.T) {
	lows, highs := vShape()
	series := makeSeries(lows[:20], highs[:20], nil)

	supports, resistances := SupportResistance(series, DefaultLevelWindow)
	if len(supports) != 0 || len(resistances) != 0 {
		t.Errorf("expected empty result for n <= 2w, got %v %v", supports, resistances)
	}
	if supports == nil || resistances == nil {
		t.Error("empty results should be non-nil slices")
	}
}
