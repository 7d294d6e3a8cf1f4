package indicator

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/chartdesk/internal/core"
)

func TestFibonacci_FlatSeries(t *testing.T) {
	lows := make([]float64, 40)
	highs := make([]float64, 40)
	for i := range lows {
		lows[i], highs[i] = 50, 100
	}

	levels := Fibonacci(makeSeries(lows, highs, nil))
	require.Len(t, levels, 7)

	want := map[float64]float64{
		0.0: 100, 0.236: 88.2, 0.382: 80.9, 0.5: 75,
		0.618: 69.1, 0.786: 60.7, 1.0: 50,
	}
	for i, l := range levels {
		assert.Equal(t, FibonacciRatios[i], l.Ratio)
		assert.InDelta(t, want[l.Ratio], l.Price, 1e-9, "ratio %v", l.Ratio)
	}
	assert.Equal(t, 100.0, levels[0].Price)
	assert.Equal(t, 50.0, levels[6].Price)
}

func TestFibonacci_EndpointsIgnoreTimeOrder(t *testing.T) {
	// The low comes before the high here; levels are prices, not points in time.
	series := makeSeries([]float64{10, 20, 30}, []float64{15, 25, 42.5}, nil)

	levels := Fibonacci(series)
	require.Len(t, levels, 7)
	assert.Equal(t, 42.5, levels[0].Price)
	assert.Equal(t, 10.0, levels[6].Price)
}

func TestFibonacci_Empty(t *testing.T) {
	assert.Empty(t, Fibonacci(nil))
	assert.Empty(t, Fibonacci(core.Series{}))
}

func TestFibonacci_SkipsNaN(t *testing.T) {
	nan := math.NaN()
	series := makeSeries([]float64{nan, 5, 7}, []float64{nan, 9, 8}, nil)

	levels := Fibonacci(series)
	require.Len(t, levels, 7)
	assert.Equal(t, 9.0, levels[0].Price)
	assert.Equal(t, 5.0, levels[6].Price)

	allNaN := makeSeries([]float64{nan}, []float64{nan}, nil)
	assert.Empty(t, Fibonacci(allNaN))
}

func TestFibonacci_SkipsInf(t *testing.T) {
	inf := math.Inf(1)
	series := makeSeries([]float64{50, 60, math.Inf(-1)}, []float64{100, inf, 90}, nil)

	levels := Fibonacci(series)
	require.Len(t, levels, 7)
	assert.Equal(t, 100.0, levels[0].Price)
	assert.Equal(t, 50.0, levels[6].Price)
	for _, l := range levels {
		assert.False(t, math.IsNaN(l.Price) || math.IsInf(l.Price, 0), "ratio %v has price %v", l.Ratio, l.Price)
	}

	_, err := json.Marshal(levels)
	assert.NoError(t, err)

	allInf := makeSeries([]float64{inf}, []float64{inf}, nil)
	assert.Empty(t, Fibonacci(allInf))
}

func TestFibonacciLevel_Label(t *testing.T) {
	tests := map[float64]string{0: "0.0", 0.236: "0.236", 0.5: "0.5", 1: "1.0"}
	for ratio, want := range tests {
		assert.Equal(t, want, FibonacciLevel{Ratio: ratio}.Label())
	}
}
