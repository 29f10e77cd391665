package proxy

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the proxy collectors. Registered on its own registry so tests
// and multiple servers in one process do not collide.
type Metrics struct {
	registry       *prometheus.Registry
	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	upstreamErrors *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weex_proxy_requests_total",
				Help: "Requests forwarded to WEEX by endpoint group, method and status",
			},
			[]string{"group", "method", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "weex_proxy_request_duration_seconds",
				Help:    "Upstream round trip time",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"group"},
		),
		upstreamErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weex_proxy_errors_total",
				Help: "Requests that did not get an upstream response",
			},
			[]string{"kind"},
		),
	}

	m.registry.MustRegister(
		m.requests,
		m.duration,
		m.upstreamErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) observe(group, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(group, method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(group).Observe(elapsed.Seconds())
}

func (m *Metrics) failure(kind string) {
	if m == nil {
		return
	}
	m.upstreamErrors.WithLabelValues(kind).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
