package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Cache event labels.
const (
	CacheHit        = "hit"
	CacheMiss       = "miss"
	CacheJoin       = "join"
	CacheInvalidate = "invalidate"
	CacheEvict      = "evict"
	CacheClear      = "clear"
	CacheRetry      = "retry"
)

// ClientMetrics exposes counters/histograms for API client traffic.
type ClientMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestLatency  *prometheus.HistogramVec
	cacheEvents     *prometheus.CounterVec
	sessionTeardown *prometheus.CounterVec
}

func NewClientMetrics(reg prometheus.Registerer) *ClientMetrics {
	m := &ClientMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mypatients",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Total API requests by method and response status (0 = no response)",
		}, []string{"method", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mypatients",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Latency of API requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		cacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mypatients",
			Subsystem: "client",
			Name:      "cache_events_total",
			Help:      "Query cache events (hit, miss, join, retry, invalidate, evict, clear)",
		}, []string{"event"}),
		sessionTeardown: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mypatients",
			Subsystem: "client",
			Name:      "session_teardowns_total",
			Help:      "Session teardowns by reason",
		}, []string{"reason"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.requestLatency, m.cacheEvents, m.sessionTeardown)
	return m
}

func (m *ClientMetrics) ObserveRequest(method string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.requestLatency.WithLabelValues(method).Observe(seconds)
}

func (m *ClientMetrics) ObserveCache(event string) {
	if m == nil {
		return
	}
	m.cacheEvents.WithLabelValues(event).Inc()
}

func (m *ClientMetrics) ObserveTeardown(reason string) {
	if m == nil {
		return
	}
	m.sessionTeardown.WithLabelValues(reason).Inc()
}
