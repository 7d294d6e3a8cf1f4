package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Business metrics
	analysisRuns     prometheus.Counter
	analysisDuration prometheus.Histogram
	detectorFailures *prometheus.CounterVec
	chartRenders     *prometheus.CounterVec
	signalsDetected  *prometheus.CounterVec
	signalsRouted    *prometheus.CounterVec
	fetchDuration    *prometheus.HistogramVec
	fetchErrors      *prometheus.CounterVec
	refreshTicks     *prometheus.CounterVec
	sessionsActive   prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Business metrics
	r.analysisRuns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chartdesk_analysis_runs_total",
			Help: "Total number of analysis runs",
		},
	)
	r.analysisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chartdesk_analysis_duration_seconds",
			Help:    "Analysis run duration in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		},
	)
	r.detectorFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chartdesk_detector_failures_total",
			Help: "Total number of detector failures by detector",
		},
		[]string{"detector"},
	)
	r.chartRenders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chartdesk_chart_renders_total",
			Help: "Total number of chart renders by outcome",
		},
		[]string{"outcome"},
	)
	r.signalsDetected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chartdesk_signals_detected_total",
			Help: "Total number of signals detected on the latest bar",
		},
		[]string{"kind"},
	)
	r.signalsRouted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chartdesk_signals_routed_total",
			Help: "Total number of signals routed to notifiers",
		},
		[]string{"notifier", "status"},
	)
	r.fetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chartdesk_fetch_duration_seconds",
			Help:    "Market data fetch duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"collector", "op"},
	)
	r.fetchErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chartdesk_fetch_errors_total",
			Help: "Total number of failed market data fetches",
		},
		[]string{"collector", "op"},
	)
	r.refreshTicks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chartdesk_refresh_ticks_total",
			Help: "Total number of refresh ticks by result",
		},
		[]string{"result"},
	)
	r.sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chartdesk_sessions_active",
			Help: "Number of live dashboard sessions",
		},
	)

	reg.MustRegister(r.analysisRuns)
	reg.MustRegister(r.analysisDuration)
	reg.MustRegister(r.detectorFailures)
	reg.MustRegister(r.chartRenders)
	reg.MustRegister(r.signalsDetected)
	reg.MustRegister(r.signalsRouted)
	reg.MustRegister(r.fetchDuration)
	reg.MustRegister(r.fetchErrors)
	reg.MustRegister(r.refreshTicks)
	reg.MustRegister(r.sessionsActive)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, route string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, route, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, route).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// ObserveAnalysis records one analysis run and the detectors that failed in it.
func (r *Registry) ObserveAnalysis(duration time.Duration, failures []string) {
	r.analysisRuns.Inc()
	r.analysisDuration.Observe(duration.Seconds())
	for _, d := range failures {
		r.detectorFailures.WithLabelValues(d).Inc()
	}
}

// ObserveRender records a chart render outcome.
func (r *Registry) ObserveRender(outcome string) {
	r.chartRenders.WithLabelValues(outcome).Inc()
}

// ObserveRefresh records a refresh tick that was delivered or dropped.
func (r *Registry) ObserveRefresh(delivered bool) {
	result := "dropped"
	if delivered {
		result = "delivered"
	}
	r.refreshTicks.WithLabelValues(result).Inc()
}

// RecordSignal records a signal detected on the latest bar.
func (r *Registry) RecordSignal(kind string) {
	r.signalsDetected.WithLabelValues(kind).Inc()
}

// RecordSignalRouted records a routed signal.
func (r *Registry) RecordSignalRouted(notifier, status string) {
	r.signalsRouted.WithLabelValues(notifier, status).Inc()
}

// RecordFetch records a market data fetch.
func (r *Registry) RecordFetch(collector, op string, duration time.Duration, err error) {
	r.fetchDuration.WithLabelValues(collector, op).Observe(duration.Seconds())
	if err != nil {
		r.fetchErrors.WithLabelValues(collector, op).Inc()
	}
}

// SetSessions sets the number of live sessions.
func (r *Registry) SetSessions(n int) {
	r.sessionsActive.Set(float64(n))
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
