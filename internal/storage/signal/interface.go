// Package signal keeps the history of routed alerts.
package signal

import (
	"context"
	"time"

	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/indicator"
	"github.com/newthinker/chartdesk/internal/notifier"
)

// Store persists routed alerts.
type Store interface {
	// Save assigns an ID and stores the alert.
	Save(ctx context.Context, alert notifier.Alert) (notifier.Alert, error)
	GetByID(ctx context.Context, id string) (*notifier.Alert, error)
	// List returns matches newest first.
	List(ctx context.Context, filter ListFilter) ([]notifier.Alert, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
}

// ListFilter selects alerts. Zero fields match everything.
type ListFilter struct {
	Symbol string
	Class  core.AssetClass
	Kind   indicator.SignalKind
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}
