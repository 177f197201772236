package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Record kinds used as the "kind" label.
const (
	KindProject    = "obra"
	KindInspection = "fiscalizacao"
	KindReport     = "relatorio"
)

// Metrics holds the service's collectors on a private registry so tests can
// build as many instances as they like. All methods are safe on a nil
// receiver.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
	RecordsCreated *prometheus.CounterVec
	RecordsDeleted *prometheus.CounterVec
	EmailsSent     *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fiscobras_http_requests_total",
			Help: "HTTP requests by method, route pattern and status code",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fiscobras_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route"}),
		RecordsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fiscobras_records_created_total",
			Help: "Records created by kind",
		}, []string{"kind"}),
		RecordsDeleted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fiscobras_records_deleted_total",
			Help: "Records deleted by kind, including cascaded inspections",
		}, []string{"kind"}),
		EmailsSent: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fiscobras_emails_total",
			Help: "Notification emails by kind and outcome",
		}, []string{"kind", "outcome"}),
	}
}

// ObserveRequest records one served request. route is the matched mux
// pattern, or "unmatched".
func (m *Metrics) ObserveRequest(method, route string, status int, start time.Time) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
}

func (m *Metrics) RecordCreated(kind string) {
	if m == nil {
		return
	}
	m.RecordsCreated.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordsRemoved(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RecordsDeleted.WithLabelValues(kind).Add(float64(n))
}

// EmailResult counts one dispatch attempt as "sent" or "failed".
func (m *Metrics) EmailResult(kind string, err error) {
	if m == nil {
		return
	}
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	m.EmailsSent.WithLabelValues(kind, outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
