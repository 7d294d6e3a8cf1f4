package collector

import (
	"context"
	"testing"
	"time"

	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/instrument"
)

// mockCollector for testing
type mockCollector struct {
	name    string
	classes []core.AssetClass
	bars    core.Series
	err     error
	calls   int
}

func (m *mockCollector) Name() string                    { return m.name }
func (m *mockCollector) AssetClasses() []core.AssetClass { return m.classes }
func (m *mockCollector) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) (core.Series, error) {
	m.calls++
	return m.bars, m.err
}
func (m *mockCollector) FetchInfo(ctx context.Context, symbol string, class core.AssetClass) (instrument.Info, error) {
	return instrument.NewInfo(class, symbol), m.err
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	mock := &mockCollector{name: "mock"}
	r.Register(mock)

	c, ok := r.Get("mock")
	if !ok {
		t.Fatal("expected to find registered collector")
	}

	if c.Name() != "mock" {
		t.Errorf("expected name 'mock', got '%s'", c.Name())
	}
}

func TestRegistry_GetAll(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockCollector{name: "a"})
	r.Register(&mockCollector{name: "b"})
	r.Register(&mockCollector{name: "a"})

	all := r.GetAll()
	if len(all) != 2 {
		t.Fatalf("expected 2 collectors, got %d", len(all))
	}
	if all[0].Name() != "a" || all[1].Name() != "b" {
		t.Errorf("expected registration order [a b], got [%s %s]", all[0].Name(), all[1].Name())
	}
}

func TestRegistry_ForClass(t *testing.T) {
	r := NewRegistry()
	yahoo := &mockCollector{name: "yahoo", classes: []core.AssetClass{core.AssetCrypto, core.AssetFutures, core.AssetCurrency}}
	crypto := &mockCollector{name: "crypto", classes: []core.AssetClass{core.AssetCrypto}}
	r.Register(yahoo)
	r.Register(crypto)

	c, ok := r.ForClass(core.AssetCrypto)
	if !ok || c.Name() != "yahoo" {
		t.Errorf("expected first supporting collector 'yahoo', got %v", c)
	}

	r.Route(core.AssetCrypto, "crypto")
	c, ok = r.ForClass(core.AssetCrypto)
	if !ok || c.Name() != "crypto" {
		t.Errorf("expected routed collector 'crypto', got %v", c)
	}

	c, ok = r.ForClass(core.AssetFutures)
	if !ok || c.Name() != "yahoo" {
		t.Errorf("expected 'yahoo' for futures, got %v", c)
	}
}

func TestRegistry_ForClass_Missing(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockCollector{name: "crypto", classes: []core.AssetClass{core.AssetCrypto}})
	r.Route(core.AssetCurrency, "ghost")

	if _, ok := r.ForClass(core.AssetCurrency); ok {
		t.Error("expected no collector for currencies")
	}
}

func TestSupports(t *testing.T) {
	c := &mockCollector{name: "x", classes: []core.AssetClass{core.AssetFutures}}
	if !Supports(c, core.AssetFutures) {
		t.Error("expected futures to be supported")
	}
	if Supports(c, core.AssetCrypto) {
		t.Error("crypto should not be supported")
	}
}
