package barcache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLiteCache {
	t.Helper()
	cache, err := NewSQLiteCache(filepath.Join(t.TempDir(), "bars.db"))
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestSQLiteCache_RoundTrip(t *testing.T) {
	cache := newTestSQLite(t)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, testKey("BTC-USD"))
	require.NoError(t, err)
	assert.False(t, ok)

	fetched := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	bars := testBars(100, 101, 99)
	require.NoError(t, cache.Put(ctx, testKey("BTC-USD"), Entry{Bars: bars, FetchedAt: fetched}))

	got, ok, err := cache.Get(ctx, testKey("BTC-USD"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.FetchedAt.Equal(fetched))
	require.Len(t, got.Bars, 3)
	assert.Equal(t, 101.0, got.Bars[1].Close)
	assert.True(t, got.Bars[2].Time.Equal(bars[2].Time))
}

func TestSQLiteCache_Upsert(t *testing.T) {
	cache := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, testKey("GC=F"), Entry{Bars: testBars(1), FetchedAt: time.Now()}))
	require.NoError(t, cache.Put(ctx, testKey("GC=F"), Entry{Bars: testBars(1, 2, 3, 4), FetchedAt: time.Now()}))

	got, ok, err := cache.Get(ctx, testKey("GC=F"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, got.Bars, 4)
}

func TestSQLiteCache_Purge(t *testing.T) {
	cache := newTestSQLite(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, cache.Put(ctx, testKey("OLD"), Entry{Bars: testBars(1), FetchedAt: now.Add(-48 * time.Hour)}))
	require.NoError(t, cache.Put(ctx, testKey("NEW"), Entry{Bars: testBars(2), FetchedAt: now}))

	n, err := cache.Purge(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, ok, err := cache.Get(ctx, testKey("OLD"))
	require.NoError(t, err)
	assert.False(t, ok)
}
