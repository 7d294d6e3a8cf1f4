// Package router decides which detected signals become alerts and fans
// them out to the configured notifiers.
package router

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/indicator"
	"github.com/newthinker/chartdesk/internal/notifier"
	"github.com/newthinker/chartdesk/internal/storage/signal"
)

// Config holds router configuration.
type Config struct {
	Cooldown time.Duration
	Kinds    []indicator.SignalKind
}

// DefaultConfig alerts on both sides with a four hour cooldown.
func DefaultConfig() Config {
	return Config{
		Cooldown: 4 * time.Hour,
		Kinds:    []indicator.SignalKind{indicator.Buy, indicator.Sell},
	}
}

// Observer receives routing counters.
type Observer interface {
	RecordSignal(kind string)
	RecordSignalRouted(notifier, status string)
}

// Router routes alerts with a cooldown per symbol and kind.
type Router struct {
	cfg       Config
	registry  *notifier.Registry
	store     signal.Store
	observer  Observer
	logger    *zap.Logger
	now       func() time.Time
	mu        sync.Mutex
	cooldowns map[string]time.Time
}

// New creates a router. A nil registry routes into the store only.
func New(cfg Config, registry *notifier.Registry, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		cfg:       cfg,
		registry:  registry,
		logger:    logger,
		now:       time.Now,
		cooldowns: make(map[string]time.Time),
	}
}

// SetSignalStore enables alert history.
func (r *Router) SetSignalStore(store signal.Store) {
	r.store = store
}

// SetObserver enables routing metrics.
func (r *Router) SetObserver(o Observer) {
	r.observer = o
}

// RouteLatest turns the events on the final bar of series into alerts and
// routes them. Older events were already visible on earlier refreshes.
func (r *Router) RouteLatest(ctx context.Context, class core.AssetClass, symbol, name string, series core.Series, events []indicator.SignalEvent) []notifier.Alert {
	last := len(series) - 1
	if last < 1 {
		return nil
	}

	var routed []notifier.Alert
	for _, ev := range events {
		if ev.Index != last {
			continue
		}
		if r.observer != nil {
			r.observer.RecordSignal(string(ev.Kind))
		}
		alert := notifier.NewAlert(class, symbol, name, ev, r.now())
		if sent, ok := r.Route(ctx, alert); ok {
			routed = append(routed, sent)
		}
	}
	return routed
}

// Route delivers one alert unless it is filtered or cooling down. It
// reports the stored alert and whether it was routed.
func (r *Router) Route(ctx context.Context, alert notifier.Alert) (notifier.Alert, bool) {
	if !r.admit(alert) {
		r.logger.Debug("alert suppressed",
			zap.String("symbol", alert.Symbol),
			zap.String("kind", string(alert.Kind)),
		)
		return alert, false
	}

	if r.store != nil {
		saved, err := r.store.Save(ctx, alert)
		if err != nil {
			r.logger.Error("failed to persist alert", zap.Error(err))
		} else {
			alert = saved
		}
	}

	if r.registry == nil || r.registry.Len() == 0 {
		return alert, true
	}

	errs := r.registry.NotifyAll(ctx, alert)
	for _, n := range r.registry.GetAll() {
		status := "ok"
		if err, failed := errs[n.Name()]; failed {
			status = "error"
			r.logger.Error("notifier failed",
				zap.String("notifier", n.Name()),
				zap.String("symbol", alert.Symbol),
				zap.Error(core.WrapError(core.ErrNotifierFailed, err)),
			)
		}
		if r.observer != nil {
			r.observer.RecordSignalRouted(n.Name(), status)
		}
	}

	r.logger.Info("alert routed",
		zap.String("symbol", alert.Symbol),
		zap.String("kind", string(alert.Kind)),
		zap.Float64("price", alert.Price),
		zap.Int("notifiers", r.registry.Len()),
		zap.Int("errors", len(errs)),
	)
	return alert, true
}

// admit applies the kind filter and claims the cooldown slot.
func (r *Router) admit(alert notifier.Alert) bool {
	if len(r.cfg.Kinds) > 0 && !slices.Contains(r.cfg.Kinds, alert.Kind) {
		return false
	}

	key := cooldownKey(alert.Symbol, alert.Kind)
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()
	if last, ok := r.cooldowns[key]; ok && now.Sub(last) < r.cfg.Cooldown {
		return false
	}
	r.cooldowns[key] = now
	return true
}

func cooldownKey(symbol string, kind indicator.SignalKind) string {
	return symbol + "|" + string(kind)
}

// ClearCooldown forgets the cooldowns of symbol for both kinds.
func (r *Router) ClearCooldown(symbol string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cooldowns, cooldownKey(symbol, indicator.Buy))
	delete(r.cooldowns, cooldownKey(symbol, indicator.Sell))
}

// CleanupExpiredCooldowns drops entries older than twice the cooldown.
func (r *Router) CleanupExpiredCooldowns() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	expiry := r.cfg.Cooldown * 2
	removed := 0
	for key, last := range r.cooldowns {
		if now.Sub(last) > expiry {
			delete(r.cooldowns, key)
			removed++
		}
	}
	return removed
}

// StartCleanupRoutine runs CleanupExpiredCooldowns every interval until ctx ends.
func (r *Router) StartCleanupRoutine(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := r.CleanupExpiredCooldowns(); removed > 0 {
					r.logger.Debug("cleaned up expired cooldowns", zap.Int("removed", removed))
				}
			}
		}
	}()
}

// Stats summarises the router state.
func (r *Router) Stats() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()

	notifiers := 0
	if r.registry != nil {
		notifiers = r.registry.Len()
	}
	return map[string]any{
		"cooldowns_active": len(r.cooldowns),
		"cooldown_seconds": r.cfg.Cooldown.Seconds(),
		"kinds":            r.cfg.Kinds,
		"notifiers":        notifiers,
	}
}
