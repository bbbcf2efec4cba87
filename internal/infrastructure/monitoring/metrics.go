package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/GriffinCanCode/AgentOS/appletd/internal/shared/result"
)

const namespace = "appletd"

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// IPC metrics
	DispatchTotal    *prometheus.CounterVec
	DispatchDuration *prometheus.HistogramVec
	SessionsActive   *prometheus.GaugeVec
	SessionsTotal    *prometheus.CounterVec

	// Applet metrics
	AppletsActive  prometheus.Gauge
	ProxiesOpened  prometheus.Counter
	ProxyRejection *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.GaugeFunc
	startTime time.Time

	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current values for the JSON API
type Snapshot struct {
	Dispatches     int64   `json:"dispatches"`
	Failures       int64   `json:"failures"`
	ActiveSessions int64   `json:"active_sessions"`
	Applets        int64   `json:"applets"`
	ProxiesOpened  int64   `json:"proxies_opened"`
	AvgDispatchMS  float64 `json:"avg_dispatch_ms"`
	UptimeSeconds  float64 `json:"uptime_seconds"`
	totalDuration  time.Duration
}

// NewMetrics registers every collector with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{startTime: time.Now()}

	m.RequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of admin HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	m.RequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	m.DispatchTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ipc_dispatch_total",
			Help:      "Total number of dispatched commands by result",
		},
		[]string{"service", "command", "result"},
	)
	m.DispatchDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ipc_dispatch_duration_seconds",
			Help:      "Command handler duration in seconds",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1},
		},
		[]string{"service", "command"},
	)
	m.SessionsActive = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ipc_sessions_active",
			Help:      "Number of open sessions",
		},
		[]string{"service"},
	)
	m.SessionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ipc_sessions_total",
			Help:      "Total number of sessions opened",
		},
		[]string{"service"},
	)

	m.AppletsActive = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "applets_active",
			Help:      "Number of applet records in the registry",
		},
	)
	m.ProxiesOpened = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "application_proxies_opened_total",
			Help:      "Total number of application proxies handed out",
		},
	)
	m.ProxyRejection = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "application_proxy_rejections_total",
			Help:      "OpenApplicationProxy calls that failed, by result",
		},
		[]string{"result"},
	)

	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Host uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// RecordHTTPRequest records an admin HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveDispatch records one dispatched command
func (m *Metrics) ObserveDispatch(service, command string, res result.Result, duration time.Duration) {
	m.DispatchTotal.WithLabelValues(service, command, res.Name()).Inc()
	m.DispatchDuration.WithLabelValues(service, command).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.Dispatches++
	m.snapshot.totalDuration += duration
	if res.IsError() {
		m.snapshot.Failures++
	}
	m.mu.Unlock()
}

// SessionOpened tracks a new session
func (m *Metrics) SessionOpened(service string) {
	m.SessionsActive.WithLabelValues(service).Inc()
	m.SessionsTotal.WithLabelValues(service).Inc()

	m.mu.Lock()
	m.snapshot.ActiveSessions++
	m.mu.Unlock()
}

// SessionClosed tracks a closed session
func (m *Metrics) SessionClosed(service string) {
	m.SessionsActive.WithLabelValues(service).Dec()

	m.mu.Lock()
	m.snapshot.ActiveSessions--
	m.mu.Unlock()
}

// SetApplets sets the number of applet records
func (m *Metrics) SetApplets(count int) {
	m.AppletsActive.Set(float64(count))

	m.mu.Lock()
	m.snapshot.Applets = int64(count)
	m.mu.Unlock()
}

// IncProxiesOpened counts a proxy handed to a client
func (m *Metrics) IncProxiesOpened() {
	m.ProxiesOpened.Inc()

	m.mu.Lock()
	m.snapshot.ProxiesOpened++
	m.mu.Unlock()
}

// RecordProxyRejection counts a failed OpenApplicationProxy
func (m *Metrics) RecordProxyRejection(res result.Result) {
	m.ProxyRejection.WithLabelValues(res.Name()).Inc()
}

// GetSnapshot returns the current values
func (m *Metrics) GetSnapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.snapshot
	if s.Dispatches > 0 {
		s.AvgDispatchMS = float64(s.totalDuration.Microseconds()) / float64(s.Dispatches) / 1000
	}
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
