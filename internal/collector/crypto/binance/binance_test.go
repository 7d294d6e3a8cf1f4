package binance

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestBinance_Name(t *testing.T) {
	b := New()
	if b.Name() != "binance" {
		t.Errorf("expected 'binance', got '%s'", b.Name())
	}
}

func TestBinance_ToInterval(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1m", "1m"},
		{"5m", "5m"},
		{"15m", "15m"},
		{"1h", "1h"},
		{"4h", "4h"},
		{"1d", "1d"},
		{"1wk", "1w"},
		{"1mo", "1M"},
		{"unknown", "1d"},
	}

	for _, tc := range tests {
		got := toInterval(tc.input)
		if got != tc.expected {
			t.Errorf("toInterval(%s) = %s, want %s", tc.input, got, tc.expected)
		}
	}
}

func TestBinance_FetchHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/klines" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("symbol") != "BTCUSDT" {
			t.Errorf("unexpected symbol %s", r.URL.Query().Get("symbol"))
		}
		fmt.Fprint(w, `[
			[1704067200000,"42000.1","43000.5","41000.2","42500.0","1234.5",1704153599999,"0",0,"0","0","0"],
			[1704153600000,"42500.0","44000.0","42000.0","43900.9","2345.6",1704239999999,"0",0,"0","0","0"],
			[1704240000000,"bad"]
		]`)
	}))
	defer srv.Close()

	b := NewWithBaseURL(srv.URL)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	data, err := b.FetchHistory(context.Background(), "BTCUSDT", start, start.AddDate(0, 0, 3), "1d")
	if err != nil {
		t.Fatalf("FetchHistory failed: %v", err)
	}

	if len(data) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(data))
	}
	if data[1].Close != 43900.9 || data[0].Volume != 1234.5 {
		t.Errorf("unexpected bar values: %+v", data)
	}
	if !data[0].Time.Equal(start) {
		t.Errorf("expected first bar at %v, got %v", start, data[0].Time)
	}
}

func TestBinance_FetchHistory_Pages(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		n := maxKlines
		if calls > 1 {
			n = 10
		}
		offset := (calls - 1) * maxKlines
		rows := make([]string, n)
		for i := range rows {
			ts := start.AddDate(0, 0, offset+i).UnixMilli()
			rows[i] = fmt.Sprintf(`[%d,"1","2","0.5","1.5","10"]`, ts)
		}
		fmt.Fprintf(w, "[%s]", strings.Join(rows, ","))
	}))
	defer srv.Close()

	data, err := NewWithBaseURL(srv.URL).FetchHistory(context.Background(), "ETHUSDT", start, start.AddDate(5, 0, 0), "1d")
	if err != nil {
		t.Fatalf("FetchHistory failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 requests, got %d", calls)
	}
	if len(data) != maxKlines+10 {
		t.Errorf("expected %d bars, got %d", maxKlines+10, len(data))
	}
}

func TestBinance_FetchMarket(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"symbol":"SOLUSDT","priceChangePercent":"4.25","lastPrice":"145.10","quoteVolume":"987654321.5"}`)
	}))
	defer srv.Close()

	m, err := NewWithBaseURL(srv.URL).FetchMarket(context.Background(), "SOLUSDT")
	if err != nil {
		t.Fatalf("FetchMarket failed: %v", err)
	}
	if m.Name != "SOL" {
		t.Errorf("expected name SOL, got %s", m.Name)
	}
	if m.Price == nil || *m.Price != 145.10 {
		t.Errorf("unexpected price %v", m.Price)
	}
	if m.MarketCap != nil {
		t.Error("binance does not report market cap")
	}
}

func TestBinance_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	if _, err := NewWithBaseURL(srv.URL).FetchMarket(context.Background(), "NOPEUSDT"); err == nil {
		t.Error("expected error on 400")
	}
}
