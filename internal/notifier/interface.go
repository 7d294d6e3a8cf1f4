// Package notifier delivers level-crossing alerts to external channels.
package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/indicator"
)

// Alert is a signal event on the latest bar of an instrument.
type Alert struct {
	ID          string               `json:"id,omitempty"`
	Symbol      string               `json:"symbol"`
	Name        string               `json:"name,omitempty"`
	Class       core.AssetClass      `json:"class"`
	Kind        indicator.SignalKind `json:"kind"`
	Price       float64              `json:"price"`
	BarTime     time.Time            `json:"bar_time"`
	GeneratedAt time.Time            `json:"generated_at"`
}

// NewAlert builds an alert from a detected event.
func NewAlert(class core.AssetClass, symbol, name string, ev indicator.SignalEvent, at time.Time) Alert {
	return Alert{
		Symbol:      symbol,
		Name:        name,
		Class:       class,
		Kind:        ev.Kind,
		Price:       ev.Price,
		BarTime:     ev.Time,
		GeneratedAt: at,
	}
}

// Headline is a one-line summary, e.g. "BUY BTC-USD at 64210.50".
func (a Alert) Headline() string {
	verb := "BUY"
	if a.Kind == indicator.Sell {
		verb = "SELL"
	}
	return fmt.Sprintf("%s %s at %.2f", verb, a.Symbol, a.Price)
}

// Notifier sends alerts to one channel.
type Notifier interface {
	Name() string
	Send(ctx context.Context, alert Alert) error
	SendBatch(ctx context.Context, alerts []Alert) error
}
