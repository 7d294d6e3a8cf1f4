package market

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/instrument"
)

type fakeSource struct {
	mu      sync.Mutex
	changes map[string]*float64
	fail    map[string]bool
}

func (f *fakeSource) FetchInfo(ctx context.Context, symbol string, class core.AssetClass) (instrument.Info, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	info := instrument.NewInfo(class, symbol)
	if f.fail[symbol] {
		return info, errors.New("boom")
	}
	info.ChangePct = instrument.Float(f.changes[symbol])
	info.Price = instrument.Some(100.0)
	return info, nil
}

func pct(v float64) *float64 { return &v }

func TestTopGainers(t *testing.T) {
	src := &fakeSource{
		changes: map[string]*float64{
			"A": pct(5),
			"B": pct(3),  // equal to threshold, excluded
			"C": pct(12), // highest
			"D": pct(-4),
			"E": nil, // change not reported
			"F": pct(3.01),
		},
		fail: map[string]bool{"G": true},
	}

	var checked atomic.Int32
	s := NewScanner(src, WithProgress(func(string) { checked.Add(1) }))
	got := s.TopGainers(context.Background(), core.AssetCrypto, []string{"A", "B", "C", "D", "E", "F", "G"})

	require.Len(t, got, 3)
	assert.Equal(t, "C", got[0].Symbol)
	assert.Equal(t, "A", got[1].Symbol)
	assert.Equal(t, "F", got[2].Symbol)
	assert.Equal(t, "C", got[0].Name)
	assert.Equal(t, int32(7), checked.Load())
}

func TestTopGainers_Limit(t *testing.T) {
	changes := map[string]*float64{}
	symbols := make([]string, 0, 30)
	for i := 0; i < 30; i++ {
		sym := string(rune('a'+i%26)) + string(rune('0'+i/26))
		changes[sym] = pct(float64(10 + i))
		symbols = append(symbols, sym)
	}

	got := NewScanner(&fakeSource{changes: changes}, WithWorkers(8)).TopGainers(context.Background(), core.AssetFutures, symbols)
	require.Len(t, got, DefaultGainerLimit)
	assert.Equal(t, 39.0, got[0].ChangePct)

	got = NewScanner(&fakeSource{changes: changes}, WithLimit(5), WithThreshold(30)).TopGainers(context.Background(), core.AssetFutures, symbols)
	require.Len(t, got, 5)
	for _, g := range got {
		assert.Greater(t, g.ChangePct, 30.0)
	}
}

func TestTopGainers_Empty(t *testing.T) {
	got := NewScanner(&fakeSource{}).TopGainers(context.Background(), core.AssetCurrency, nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestTopGainers_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := NewScanner(&fakeSource{changes: map[string]*float64{"A": pct(50)}}).TopGainers(ctx, core.AssetCrypto, []string{"A"})
	assert.Empty(t, got)
}

func TestNewScanner_NilLogger(t *testing.T) {
	src := &fakeSource{changes: map[string]*float64{"SOL-USD": pct(5)}, fail: map[string]bool{"BAD-USD": true}}

	var got []Gainer
	require.NotPanics(t, func() {
		got = NewScanner(src, WithScanLogger(nil)).TopGainers(context.Background(), core.AssetCrypto, []string{"SOL-USD", "BAD-USD"})
	})
	require.Len(t, got, 1)
	assert.Equal(t, "SOL-USD", got[0].Symbol)
}
