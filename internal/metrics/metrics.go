package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var durationBuckets = []float64{0.001, 0.0025, 0.005, 0.010, 0.025, 0.050, 0.100, 0.250, 0.500, 1.0, 2.5, 5.0, 10.0}

// Metrics holds the collectors of mcp-manager. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	reqTotal        *prometheus.CounterVec
	reqDuration     *prometheus.HistogramVec
	probeTotal      *prometheus.CounterVec
	probeDuration   *prometheus.HistogramVec
	saveTotal       *prometheus.CounterVec
	saveDuration    prometheus.Histogram
	wsConnTotal     prometheus.Counter
	wsConnCurrent   prometheus.Gauge
	serversByStatus *prometheus.GaugeVec
}

// New creates the collectors on a fresh registry that also carries the Go and process collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		reqTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcpm_http_requests_total",
				Help: "The total number of API requests.",
			},
			[]string{"method", "route", "code"},
		),
		reqDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mcpm_http_request_duration_seconds",
				Help:    "The duration of API requests.",
				Buckets: durationBuckets,
			},
			[]string{"method", "route"},
		),
		probeTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcpm_probes_total",
				Help: "The total number of liveness probes by strategy and outcome.",
			},
			[]string{"strategy", "status"},
		),
		probeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mcpm_probe_duration_seconds",
				Help:    "The duration of liveness probes.",
				Buckets: durationBuckets,
			},
			[]string{"strategy"},
		),
		saveTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcpm_config_saves_total",
				Help: "The total number of configuration saves by result.",
			},
			[]string{"result"},
		),
		saveDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mcpm_config_save_duration_seconds",
				Help:    "The duration of configuration saves.",
				Buckets: durationBuckets,
			},
		),
		wsConnTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "mcpm_ws_connections_total",
				Help: "The total number of status stream connections.",
			},
		),
		wsConnCurrent: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "mcpm_ws_connections_current",
				Help: "The current number of status stream connections.",
			},
		),
		serversByStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mcpm_servers",
				Help: "The number of configured servers by last known status.",
			},
			[]string{"status"},
		),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.reqTotal,
		m.reqDuration,
		m.probeTotal,
		m.probeDuration,
		m.saveTotal,
		m.saveDuration,
		m.wsConnTotal,
		m.wsConnCurrent,
		m.serversByStatus,
	)

	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// MeasureRequest starts timing a request; call the returned func with the status code
func (m *Metrics) MeasureRequest(method, route string) func(code int) time.Duration {
	start := time.Now()
	return func(code int) time.Duration {
		elapsed := time.Since(start)
		if m == nil {
			return elapsed
		}
		m.reqTotal.With(prometheus.Labels{"method": method, "route": route, "code": strconv.Itoa(code)}).Inc()
		m.reqDuration.With(prometheus.Labels{"method": method, "route": route}).Observe(elapsed.Seconds())
		return elapsed
	}
}

// ObserveProbe records one probe outcome
func (m *Metrics) ObserveProbe(strategy string, online bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	status := "offline"
	if online {
		status = "online"
	}
	m.probeTotal.With(prometheus.Labels{"strategy": strategy, "status": status}).Inc()
	m.probeDuration.With(prometheus.Labels{"strategy": strategy}).Observe(elapsed.Seconds())
}

// ObserveSave records one save
func (m *Metrics) ObserveSave(ok bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "error"
	if ok {
		result = "success"
	}
	m.saveTotal.With(prometheus.Labels{"result": result}).Inc()
	m.saveDuration.Observe(elapsed.Seconds())
}

// SetStatusCounts replaces the per-status server gauge
func (m *Metrics) SetStatusCounts(counts map[string]int) {
	if m == nil {
		return
	}
	m.serversByStatus.Reset()
	for status, n := range counts {
		m.serversByStatus.With(prometheus.Labels{"status": status}).Set(float64(n))
	}
}

// RegisterWSConnection counts a new status stream client
func (m *Metrics) RegisterWSConnection() {
	if m == nil {
		return
	}
	m.wsConnTotal.Inc()
	m.wsConnCurrent.Inc()
}

// UnregisterWSConnection counts a closed status stream client
func (m *Metrics) UnregisterWSConnection() {
	if m == nil {
		return
	}
	m.wsConnCurrent.Dec()
}
