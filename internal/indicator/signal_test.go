package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignals_BuyCrossing(t *testing.T) {
	series := closeSeries([]float64{8, 9, 11, 10})
	supports := []Level{{Price: 10, Kind: Support}}
	resistances := []Level{{Price: 50, Kind: Resistance}}

	events := Signals(series, supports, resistances)

	require.Len(t, events, 1)
	assert.Equal(t, Buy, events[0].Kind)
	assert.Equal(t, 2, events[0].Index)
	assert.Equal(t, 11.0, events[0].Price)
	assert.True(t, events[0].Time.Equal(series[2].Time))
}

func TestSignals_SellCrossing(t *testing.T) {
	series := closeSeries([]float64{18, 19, 21, 19, 22})
	supports := []Level{{Price: 1, Kind: Support}}
	resistances := []Level{{Price: 20, Kind: Resistance}}

	events := Signals(series, supports, resistances)

	require.Len(t, events, 2)
	for _, e := range events {
		assert.Equal(t, Sell, e.Kind)
	}
	assert.Equal(t, 2, events[0].Index)
	assert.Equal(t, 4, events[1].Index)
}

func TestSignals_ExactTouchCounts(t *testing.T) {
	series := closeSeries([]float64{9, 10})
	events := Signals(series, []Level{{Price: 10}}, []Level{{Price: 100}})

	require.Len(t, events, 1)
	assert.Equal(t, 1, events[0].Index)
}

func TestSignals_OnePerSidePerPosition(t *testing.T) {
	series := closeSeries([]float64{5, 15})
	supports := []Level{{Price: 12}, {Price: 8}, {Price: 10}}
	resistances := []Level{{Price: 14}, {Price: 6}}

	events := Signals(series, supports, resistances)

	require.Len(t, events, 2)
	assert.Equal(t, Buy, events[0].Kind)
	assert.Equal(t, Sell, events[1].Kind)
	assert.Equal(t, events[0].Index, events[1].Index)
	assert.Len(t, FilterSignals(events, Buy), 1)
	assert.Len(t, FilterSignals(events, Sell), 1)
}

func TestSignals_EmptyLevelLists(t *testing.T) {
	series := closeSeries([]float64{8, 9, 11, 10})
	levels := []Level{{Price: 10}}

	assert.Empty(t, Signals(series, nil, levels))
	assert.Empty(t, Signals(series, levels, nil))
	assert.Empty(t, Signals(nil, levels, levels))
}

func TestSignals_DownwardMoveIsSilent(t *testing.T) {
	series := closeSeries([]float64{12, 11, 9, 8})
	events := Signals(series, []Level{{Price: 10}}, []Level{{Price: 10}})
	assert.Empty(t, events)
}
