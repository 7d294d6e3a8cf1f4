// Package refresh emits periodic refresh requests for the dashboard. The
// timer only signals; recomputation happens wherever the channel is read.
package refresh

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultInterval is how often the dashboard refetches when unconfigured.
const DefaultInterval = 120 * time.Second

// Reason says what triggered a refresh.
type Reason string

const (
	ReasonTick   Reason = "tick"
	ReasonManual Reason = "manual"
)

// Request asks the consumer to refetch and recompute.
type Request struct {
	At     time.Time
	Reason Reason
}

// Observer receives tick outcomes for metrics.
type Observer interface {
	ObserveRefresh(delivered bool)
}

// Scheduler pushes a Request onto its channel every interval. A tick that
// finds the consumer still busy with the previous request is dropped, so
// refreshes never queue up behind a slow fetch.
type Scheduler struct {
	cron     *cron.Cron
	interval time.Duration
	requests chan Request
	logger   *zap.Logger
	observer Observer
	now      func() time.Time

	mu      sync.Mutex
	running bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger. A nil logger keeps the no-op default.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithObserver records delivered and dropped ticks.
func WithObserver(o Observer) Option {
	return func(s *Scheduler) { s.observer = o }
}

// NewScheduler creates a scheduler ticking every interval. Non-positive
// intervals use DefaultInterval.
func NewScheduler(interval time.Duration, opts ...Option) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	s := &Scheduler{
		interval: interval,
		requests: make(chan Request, 1),
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cron = cron.New(cron.WithLogger(cronLogger{s.logger.Sugar()}))
	return s
}

// Requests returns the channel refresh requests are delivered on.
func (s *Scheduler) Requests() <-chan Request {
	return s.requests
}

// Interval returns the tick interval.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Start begins ticking. Calling Start twice is a no-op.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, func() { s.Trigger(ReasonTick) }); err != nil {
		return fmt.Errorf("register refresh tick: %w", err)
	}
	s.cron.Start()
	s.running = true
	s.logger.Info("refresh scheduler started", zap.Duration("interval", s.interval))
	return nil
}

// Stop halts ticking and waits for an in-flight tick to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info("refresh scheduler stopped")
}

// Trigger offers a request without blocking and reports whether it was
// accepted.
func (s *Scheduler) Trigger(reason Reason) bool {
	req := Request{At: s.now(), Reason: reason}
	select {
	case s.requests <- req:
		s.observe(true)
		return true
	default:
		s.logger.Debug("refresh dropped, consumer busy", zap.String("reason", string(reason)))
		s.observe(false)
		return false
	}
}

func (s *Scheduler) observe(delivered bool) {
	if s.observer != nil {
		s.observer.ObserveRefresh(delivered)
	}
}

// cronLogger adapts zap to cron's logger interface.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
