package router

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/indicator"
	"github.com/newthinker/chartdesk/internal/notifier"
	"github.com/newthinker/chartdesk/internal/storage/signal"
)

type mockNotifier struct {
	name     string
	fail     bool
	mu       sync.Mutex
	received []notifier.Alert
}

func (m *mockNotifier) Name() string { return m.name }

func (m *mockNotifier) Send(ctx context.Context, a notifier.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.received = append(m.received, a)
	if m.fail {
		return errors.New("down")
	}
	return nil
}

func (m *mockNotifier) SendBatch(ctx context.Context, alerts []notifier.Alert) error {
	for _, a := range alerts {
		if err := m.Send(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

type countingObserver struct {
	signals map[string]int
	routed  map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{signals: map[string]int{}, routed: map[string]int{}}
}

func (c *countingObserver) RecordSignal(kind string) { c.signals[kind]++ }

func (c *countingObserver) RecordSignalRouted(n, status string) { c.routed[n+"/"+status]++ }

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestRouter(cfg Config, notifiers ...notifier.Notifier) (*Router, *clock) {
	reg := notifier.NewRegistry()
	for _, n := range notifiers {
		reg.Register(n)
	}
	r := New(cfg, reg, nil)
	c := &clock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	r.now = c.now
	return r, c
}

func alert(symbol string, kind indicator.SignalKind) notifier.Alert {
	return notifier.Alert{Symbol: symbol, Class: core.AssetCrypto, Kind: kind, Price: 100}
}

func TestRouter_Route(t *testing.T) {
	mock := &mockNotifier{name: "mock"}
	r, _ := newTestRouter(DefaultConfig(), mock)

	if _, ok := r.Route(context.Background(), alert("BTC-USD", indicator.Buy)); !ok {
		t.Fatal("expected alert to be routed")
	}
	if len(mock.received) != 1 {
		t.Errorf("expected 1 alert, got %d", len(mock.received))
	}
}

func TestRouter_Route_FilterByKind(t *testing.T) {
	mock := &mockNotifier{name: "mock"}
	r, _ := newTestRouter(Config{Cooldown: time.Hour, Kinds: []indicator.SignalKind{indicator.Buy}}, mock)

	r.Route(context.Background(), alert("BTC-USD", indicator.Sell))
	if len(mock.received) != 0 {
		t.Error("sell alert should be filtered")
	}
}

func TestRouter_Route_CooldownPerSymbolAndKind(t *testing.T) {
	mock := &mockNotifier{name: "mock"}
	r, clk := newTestRouter(Config{Cooldown: time.Hour}, mock)
	ctx := context.Background()

	r.Route(ctx, alert("BTC-USD", indicator.Buy))
	r.Route(ctx, alert("BTC-USD", indicator.Buy))
	if len(mock.received) != 1 {
		t.Fatalf("second buy inside cooldown should be suppressed, got %d", len(mock.received))
	}

	r.Route(ctx, alert("BTC-USD", indicator.Sell))
	r.Route(ctx, alert("ETH-USD", indicator.Buy))
	if len(mock.received) != 3 {
		t.Fatalf("other kind and other symbol should pass, got %d", len(mock.received))
	}

	clk.advance(time.Hour)
	r.Route(ctx, alert("BTC-USD", indicator.Buy))
	if len(mock.received) != 4 {
		t.Errorf("buy after cooldown should pass, got %d", len(mock.received))
	}
}

func TestRouter_ClearCooldown(t *testing.T) {
	mock := &mockNotifier{name: "mock"}
	r, _ := newTestRouter(Config{Cooldown: time.Hour}, mock)
	ctx := context.Background()

	r.Route(ctx, alert("GC=F", indicator.Sell))
	r.ClearCooldown("GC=F")
	r.Route(ctx, alert("GC=F", indicator.Sell))
	if len(mock.received) != 2 {
		t.Errorf("expected 2 alerts after clearing cooldown, got %d", len(mock.received))
	}
}

func TestRouter_RouteLatest(t *testing.T) {
	mock := &mockNotifier{name: "mock"}
	r, _ := newTestRouter(DefaultConfig(), mock)
	obs := newCountingObserver()
	r.SetObserver(obs)

	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	series := make(core.Series, 5)
	for i := range series {
		series[i] = core.OHLCV{Time: day.AddDate(0, 0, i), Close: float64(100 + i)}
	}
	events := []indicator.SignalEvent{
		{Index: 2, Time: series[2].Time, Price: 102, Kind: indicator.Buy},
		{Index: 4, Time: series[4].Time, Price: 104, Kind: indicator.Buy},
		{Index: 4, Time: series[4].Time, Price: 104, Kind: indicator.Sell},
	}

	routed := r.RouteLatest(context.Background(), core.AssetCrypto, "BTC-USD", "Bitcoin", series, events)
	if len(routed) != 2 {
		t.Fatalf("expected 2 alerts on the last bar, got %d", len(routed))
	}
	if routed[0].Name != "Bitcoin" || !routed[0].BarTime.Equal(series[4].Time) {
		t.Errorf("unexpected alert %+v", routed[0])
	}
	if obs.signals["buy"] != 1 || obs.signals["sell"] != 1 {
		t.Errorf("signals observed = %v", obs.signals)
	}
	if obs.routed["mock/ok"] != 2 {
		t.Errorf("routed observed = %v", obs.routed)
	}

	if got := r.RouteLatest(context.Background(), core.AssetCrypto, "BTC-USD", "", series[:1], events); got != nil {
		t.Errorf("single bar series should not route, got %v", got)
	}
}

func TestRouter_NotifierFailureStillRouted(t *testing.T) {
	bad := &mockNotifier{name: "bad", fail: true}
	r, _ := newTestRouter(DefaultConfig(), bad)
	obs := newCountingObserver()
	r.SetObserver(obs)

	if _, ok := r.Route(context.Background(), alert("CL=F", indicator.Buy)); !ok {
		t.Error("alert should count as routed even when a notifier fails")
	}
	if obs.routed["bad/error"] != 1 {
		t.Errorf("routed observed = %v", obs.routed)
	}
}

func TestRouter_PersistsAlerts(t *testing.T) {
	r, _ := newTestRouter(DefaultConfig())
	store := signal.NewMemoryStore(10)
	r.SetSignalStore(store)

	saved, ok := r.Route(context.Background(), alert("ETH-USD", indicator.Buy))
	if !ok || saved.ID == "" {
		t.Fatalf("expected stored alert with ID, got %+v", saved)
	}
	n, _ := store.Count(context.Background(), signal.ListFilter{Symbol: "ETH-USD"})
	if n != 1 {
		t.Errorf("expected 1 persisted alert, got %d", n)
	}
}

func TestRouter_CleanupExpiredCooldowns(t *testing.T) {
	r, clk := newTestRouter(Config{Cooldown: time.Minute})
	ctx := context.Background()

	r.Route(ctx, alert("A", indicator.Buy))
	clk.advance(90 * time.Second)
	r.Route(ctx, alert("B", indicator.Buy))
	clk.advance(45 * time.Second)

	if removed := r.CleanupExpiredCooldowns(); removed != 1 {
		t.Errorf("expected 1 expired cooldown, got %d", removed)
	}
	if got := r.Stats()["cooldowns_active"]; got != 1 {
		t.Errorf("cooldowns_active = %v", got)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Cooldown != 4*time.Hour || len(cfg.Kinds) != 2 {
		t.Errorf("unexpected default config %+v", cfg)
	}
}
