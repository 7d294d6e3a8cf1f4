package app

import (
	"context"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/market"
	"github.com/newthinker/chartdesk/internal/refresh"
	"github.com/newthinker/chartdesk/internal/session"
)

// refreshWorkers bounds concurrent instrument fetches per refresh.
const refreshWorkers = 4

// RefreshStats summarises one refresh pass.
type RefreshStats struct {
	Sessions    int           `json:"sessions"`
	Expired     int           `json:"expired"`
	Instruments int           `json:"instruments"`
	Failed      int           `json:"failed"`
	Stored      int           `json:"stored"`
	Alerts      int           `json:"alerts"`
	Archived    int           `json:"archived"`
	Duration    time.Duration `json:"duration"`
}

type target struct {
	class  core.AssetClass
	symbol string
}

// Run starts the refresh scheduler and serves its requests until ctx is
// cancelled.
func (a *App) Run(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return nil
	}
	a.running = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
	}()

	if err := a.scheduler.Start(); err != nil {
		return err
	}
	defer a.scheduler.Stop()

	go a.router.StartCleanupRoutine(ctx, time.Hour)

	a.logger.Info("refresh loop started", zap.Duration("interval", a.scheduler.Interval()))

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("refresh loop stopped")
			return nil
		case req := <-a.scheduler.Requests():
			stats := a.RefreshAll(ctx, req)
			a.logger.Info("refresh complete",
				zap.String("reason", string(req.Reason)),
				zap.Int("sessions", stats.Sessions),
				zap.Int("instruments", stats.Instruments),
				zap.Int("failed", stats.Failed),
				zap.Int("alerts", stats.Alerts),
				zap.Duration("duration", stats.Duration),
			)
		}
	}
}

// RefreshAll recomputes the current instrument of every live session's
// open tab. Each distinct instrument is fetched and analysed once and
// the result is stored into every session still looking at it.
func (a *App) RefreshAll(ctx context.Context, req refresh.Request) RefreshStats {
	started := a.now()
	stats := RefreshStats{Expired: a.sessions.Sweep()}

	states := a.sessions.List()
	stats.Sessions = len(states)
	if a.metrics != nil {
		a.metrics.SetSessions(len(states))
	}

	seen := make(map[target]bool)
	var targets []target
	classes := make(map[core.AssetClass]bool)
	for _, st := range states {
		class := st.Active()
		t := target{class: class, symbol: st.CurrentFor(class)}
		classes[class] = true
		if t.symbol == "" || seen[t] {
			continue
		}
		seen[t] = true
		targets = append(targets, t)
	}
	stats.Instruments = len(targets)

	var mu sync.Mutex
	snaps := make(map[target]*Snapshot, len(targets))
	p := pool.New().WithMaxGoroutines(refreshWorkers)
	for _, t := range targets {
		p.Go(func() {
			snap, err := a.snapshot(ctx, t.class, t.symbol)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.Failed++
				a.logger.Warn("refresh fetch failed",
					zap.String("symbol", t.symbol),
					zap.Error(err),
				)
				return
			}
			snaps[t] = snap
		})
	}
	p.Wait()

	gainers := make(map[core.AssetClass][]market.Gainer, len(classes))
	for class := range classes {
		gainers[class] = a.Gainers(ctx, class)
	}

	for _, st := range states {
		class := st.Active()
		snap, ok := snaps[target{class: class, symbol: st.CurrentFor(class)}]
		if !ok {
			continue
		}
		if st.Store(class, snap.Symbol, snap.Series, snap.Info, gainers[class], req.At) {
			stats.Stored++
		}
	}

	for _, t := range targets {
		snap, ok := snaps[t]
		if !ok {
			continue
		}
		alerts := a.router.RouteLatest(ctx, snap.Class, snap.Symbol, snap.Info.DisplayName(), snap.Series, snap.Result.Signals)
		stats.Alerts += len(alerts)

		if a.charts != nil {
			if _, err := a.Archive(ctx, snap, a.Chart(snap)); err != nil {
				a.logger.Warn("archive failed", zap.String("symbol", snap.Symbol), zap.Error(err))
			} else {
				stats.Archived++
			}
		}
	}

	stats.Duration = a.now().Sub(started)
	return stats
}

// LoadSession fetches the current instrument of a session's open tab and
// stores it, along with the tab's gainers. It is used after navigation.
func (a *App) LoadSession(ctx context.Context, st *session.State) (*Snapshot, error) {
	class := st.Active()
	symbol := st.CurrentFor(class)
	if symbol == "" {
		return nil, core.ErrSymbolNotFound
	}

	snap, err := a.snapshot(ctx, class, symbol)
	if err != nil {
		return nil, err
	}
	st.Store(class, symbol, snap.Series, snap.Info, a.Gainers(ctx, class), snap.At)
	return snap, nil
}

// Refresh asks the scheduler for an immediate refresh.
func (a *App) Refresh() bool {
	return a.scheduler.Trigger(refresh.ReasonManual)
}

func (a *App) snapshot(ctx context.Context, class core.AssetClass, symbol string) (*Snapshot, error) {
	series, info, err := a.Fetch(ctx, class, symbol)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Class:  class,
		Symbol: symbol,
		Info:   info,
		Series: series,
		Result: a.analyzer.Analyze(series),
		At:     a.now(),
	}, nil
}
