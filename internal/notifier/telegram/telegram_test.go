package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/indicator"
	"github.com/newthinker/chartdesk/internal/notifier"
)

var _ notifier.Notifier = (*Telegram)(nil)

func testAlert(kind indicator.SignalKind) notifier.Alert {
	return notifier.Alert{
		Symbol:  "EURUSD=X",
		Name:    "EUR/USD",
		Class:   core.AssetCurrency,
		Kind:    kind,
		Price:   1.0842,
		BarTime: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New("", "chat"); err == nil {
		t.Error("expected error for missing bot_token")
	}
	if _, err := New("token", ""); err == nil {
		t.Error("expected error for missing chat_id")
	}
	tg, err := New("token", "chat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tg.Name() != "telegram" {
		t.Errorf("expected 'telegram', got '%s'", tg.Name())
	}
}

func TestTelegram_Send(t *testing.T) {
	var path string
	var got map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	tg, _ := New("abc123", "42")
	tg.WithAPIBase(server.URL + "/")

	if err := tg.Send(context.Background(), testAlert(indicator.Buy)); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if path != "/botabc123/sendMessage" {
		t.Errorf("path = %q", path)
	}
	if got["chat_id"] != "42" || got["parse_mode"] != "Markdown" {
		t.Errorf("unexpected payload %v", got)
	}
	text, _ := got["text"].(string)
	for _, want := range []string{"*EURUSD=X* - BUY", "EUR/USD", "support", "Price: 1.08", "2024-06-03 00:00"} {
		if !strings.Contains(text, want) {
			t.Errorf("message missing %q:\n%s", want, text)
		}
	}
}

func TestTelegram_SendBatch(t *testing.T) {
	var got map[string]any
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewDecoder(r.Body).Decode(&got)
	}))
	defer server.Close()

	tg, _ := New("t", "c")
	tg.WithAPIBase(server.URL)

	if err := tg.SendBatch(context.Background(), nil); err != nil || calls != 0 {
		t.Fatalf("empty batch: err=%v calls=%d", err, calls)
	}
	err := tg.SendBatch(context.Background(), []notifier.Alert{testAlert(indicator.Buy), testAlert(indicator.Sell)})
	if err != nil {
		t.Fatalf("SendBatch: %v", err)
	}
	text, _ := got["text"].(string)
	if !strings.HasPrefix(text, "📊 *2 chart signals*") {
		t.Errorf("unexpected batch header: %q", text)
	}
	if !strings.Contains(text, "SELL") || !strings.Contains(text, "resistance") {
		t.Errorf("batch missing sell alert: %q", text)
	}
}

func TestTelegram_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"ok":false,"description":"Unauthorized"}`))
	}))
	defer server.Close()

	tg, _ := New("bad", "c")
	tg.WithAPIBase(server.URL)

	err := tg.Send(context.Background(), testAlert(indicator.Buy))
	if err == nil || !strings.Contains(err.Error(), "Unauthorized") {
		t.Errorf("expected Unauthorized error, got %v", err)
	}
}
