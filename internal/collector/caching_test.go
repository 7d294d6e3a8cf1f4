package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/storage/barcache"
)

func sampleBars() core.Series {
	return core.Series{
		{Symbol: "GC=F", Close: 2300, Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{Symbol: "GC=F", Close: 2310, Time: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
	}
}

func TestCaching_ServesFromCache(t *testing.T) {
	inner := &mockCollector{name: "yahoo", bars: sampleBars()}
	c := NewCaching(inner, barcache.NewMemoryCache(10), time.Minute, nil)
	ctx := context.Background()
	end := time.Now()

	for i := 0; i < 3; i++ {
		bars, err := c.FetchHistory(ctx, "GC=F", end.AddDate(-1, 0, 0), end, "1d")
		require.NoError(t, err)
		assert.Len(t, bars, 2)
	}
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, "yahoo", c.Name())
}

func TestCaching_RefetchesAfterTTL(t *testing.T) {
	inner := &mockCollector{name: "yahoo", bars: sampleBars()}
	c := NewCaching(inner, barcache.NewMemoryCache(10), time.Minute, nil)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := c.FetchHistory(ctx, "GC=F", now.AddDate(-1, 0, 0), now, "1d")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = c.FetchHistory(ctx, "GC=F", now.AddDate(-1, 0, 0), now, "1d")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCaching_ServesStaleOnError(t *testing.T) {
	inner := &mockCollector{name: "yahoo", bars: sampleBars()}
	c := NewCaching(inner, barcache.NewMemoryCache(10), time.Minute, nil)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := c.FetchHistory(ctx, "GC=F", now.AddDate(-1, 0, 0), now, "1d")
	require.NoError(t, err)

	inner.err = errors.New("provider down")
	now = now.Add(time.Hour)
	bars, err := c.FetchHistory(ctx, "GC=F", now.AddDate(-1, 0, 0), now, "1d")
	require.NoError(t, err)
	assert.Len(t, bars, 2)
}

func TestCaching_ErrorWithoutCache(t *testing.T) {
	inner := &mockCollector{name: "yahoo", err: core.ErrNoData}
	c := NewCaching(inner, barcache.NewMemoryCache(10), time.Minute, nil)

	_, err := c.FetchHistory(context.Background(), "GC=F", time.Now().AddDate(-1, 0, 0), time.Now(), "1d")
	assert.ErrorIs(t, err, core.ErrNoData)
}
