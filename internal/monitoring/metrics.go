package monitoring

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Version is reported by the metrics and health endpoints.
const Version = "1.0.0"

// Lookup outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics tracks lookup counts and latencies. Counters are kept both in a
// Prometheus registry for scraping and in plain atomics for GetMetrics.
type Metrics struct {
	startTime time.Time

	// Atomic counters
	totalLookups int64
	totalErrors  int64

	lookupRateTracker *RateTracker

	// Per-operation totals
	operations      map[string]int64
	operationsMutex sync.RWMutex

	backendUp atomic.Bool

	registry       *prometheus.Registry
	lookupsTotal   *prometheus.CounterVec
	lookupDuration *prometheus.HistogramVec
	backendGauge   prometheus.Gauge
}

// RateTracker tracks operations per minute.
type RateTracker struct {
	events []time.Time
	mutex  sync.Mutex
	maxAge time.Duration
}

// NewMetrics creates a metrics tracker with its own Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime:         time.Now(),
		lookupRateTracker: NewRateTracker(time.Minute),
		operations:        make(map[string]int64),
		registry:          prometheus.NewRegistry(),
		lookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sensegate",
			Name:      "lookups_total",
			Help:      "Lookups served, by operation and outcome.",
		}, []string{"operation", "outcome"}),
		lookupDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sensegate",
			Name:      "lookup_duration_seconds",
			Help:      "Lookup latency including knowledge base round trips.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"operation"}),
		backendGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sensegate",
			Name:      "knowledge_base_up",
			Help:      "1 when the last knowledge base probe succeeded.",
		}),
	}
	m.registry.MustRegister(
		m.lookupsTotal,
		m.lookupDuration,
		m.backendGauge,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.SetBackendUp(true)
	return m
}

// Registry exposes the Prometheus registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// NewRateTracker creates a new rate tracker.
func NewRateTracker(window time.Duration) *RateTracker {
	return &RateTracker{
		events: make([]time.Time, 0),
		maxAge: window,
	}
}

// Record records an event in the rate tracker.
func (rt *RateTracker) Record() {
	rt.mutex.Lock()
	defer rt.mutex.Unlock()

	now := time.Now()
	rt.events = append(rt.events, now)
	rt.cleanOldEvents(now)
}

// GetRate returns the number of events in the tracking window.
func (rt *RateTracker) GetRate() int64 {
	rt.mutex.Lock()
	defer rt.mutex.Unlock()

	rt.cleanOldEvents(time.Now())
	return int64(len(rt.events))
}

// cleanOldEvents removes events older than the tracking window.
func (rt *RateTracker) cleanOldEvents(now time.Time) {
	cutoff := now.Add(-rt.maxAge)
	validEvents := rt.events[:0]

	for _, event := range rt.events {
		if event.After(cutoff) {
			validEvents = append(validEvents, event)
		}
	}

	rt.events = validEvents
}

// RecordLookup records one finished lookup.
func (m *Metrics) RecordLookup(operation string, duration time.Duration, err error) {
	atomic.AddInt64(&m.totalLookups, 1)
	m.lookupRateTracker.Record()

	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
		atomic.AddInt64(&m.totalErrors, 1)
	}
	m.lookupsTotal.WithLabelValues(operation, outcome).Inc()
	m.lookupDuration.WithLabelValues(operation).Observe(duration.Seconds())

	m.operationsMutex.Lock()
	m.operations[operation]++
	m.operationsMutex.Unlock()
}

// SetBackendUp records the result of the latest knowledge base probe.
func (m *Metrics) SetBackendUp(up bool) {
	m.backendUp.Store(up)
	if up {
		m.backendGauge.Set(1)
	} else {
		m.backendGauge.Set(0)
	}
}

// GetMetrics returns current metric values.
func (m *Metrics) GetMetrics() MetricsSnapshot {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	m.operationsMutex.RLock()
	operations := make(map[string]int64, len(m.operations))
	for op, n := range m.operations {
		operations[op] = n
	}
	m.operationsMutex.RUnlock()

	return MetricsSnapshot{
		LookupRatePerMin: m.lookupRateTracker.GetRate(),
		UptimeSeconds:    int64(time.Since(m.startTime).Seconds()),
		MemoryUsageBytes: int64(memStats.Alloc),
		Goroutines:       runtime.NumGoroutine(),
		Version:          Version,
		BackendUp:        m.backendUp.Load(),
		TotalLookups:     atomic.LoadInt64(&m.totalLookups),
		TotalErrors:      atomic.LoadInt64(&m.totalErrors),
		Operations:       operations,
	}
}

// MetricsSnapshot represents a point-in-time view of metrics.
type MetricsSnapshot struct {
	LookupRatePerMin int64            `json:"lookup_rate_per_min"`
	UptimeSeconds    int64            `json:"uptime_seconds"`
	MemoryUsageBytes int64            `json:"memory_usage_bytes"`
	Goroutines       int              `json:"goroutines"`
	Version          string           `json:"version"`
	BackendUp        bool             `json:"backend_up"`
	TotalLookups     int64            `json:"total_lookups"`
	TotalErrors      int64            `json:"total_errors"`
	Operations       map[string]int64 `json:"operations"`
}

// HealthStatus represents the health status of the agent.
type HealthStatus struct {
	Status        string `json:"status"`  // "healthy", "degraded", "unhealthy"
	Message       string `json:"message"` // Human-readable status message
	UptimeSeconds int64  `json:"uptime_seconds"`
	LastActivity  int64  `json:"last_activity"`
}

// GetHealthStatus returns the current health status.
func (m *Metrics) GetHealthStatus() HealthStatus {
	uptime := int64(time.Since(m.startTime).Seconds())

	status := "healthy"
	message := "Agent is operating normally"

	memStats := runtime.MemStats{}
	runtime.ReadMemStats(&memStats)

	if memStats.Alloc > 1024*1024*1024 { // > 1GB
		status = "degraded"
		message = "High memory usage detected"
	}

	if !m.backendUp.Load() {
		status = "unhealthy"
		message = "Knowledge base is unreachable"
	}

	return HealthStatus{
		Status:        status,
		Message:       message,
		UptimeSeconds: uptime,
		LastActivity:  time.Now().Unix(),
	}
}
