package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ============================================================
// Metrics
// ============================================================

const namespace = "room_passport"

// Metrics держит собственный реестр, чтобы тесты не делили глобальное состояние.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	passports       *prometheus.CounterVec
	passportBytes   prometheus.Histogram
	schemas         *prometheus.CounterVec
	reconciled      *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route and status.",
	}, []string{"method", "route", "status"})

	m.requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	m.passports = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "passports_generated_total",
		Help:      "Passport generation attempts by result.",
	}, []string{"result"})

	m.passportBytes = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "passport_size_bytes",
		Help:      "Size of generated passport documents.",
		Buckets:   prometheus.ExponentialBuckets(16*1024, 2, 10),
	})

	m.schemas = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "schemas_saved_total",
		Help:      "Schema uploads by result.",
	}, []string{"result"})

	m.reconciled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconciliation_tasks_total",
		Help:      "Replayed owner-list reconciliation tasks by result.",
	}, []string{"result"})

	m.registry.MustRegister(
		m.requests, m.requestDuration, m.passports, m.passportBytes, m.schemas, m.reconciled,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveRequest(method, route string, status int, took time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(took.Seconds())
}

// PassportGenerated учитывает попытку генерации; size учитывается только для успешных.
func (m *Metrics) PassportGenerated(err error, size int) {
	if err != nil {
		m.passports.WithLabelValues("error").Inc()
		return
	}
	m.passports.WithLabelValues("ok").Inc()
	m.passportBytes.Observe(float64(size))
}

func (m *Metrics) SchemaSaved(err error) {
	m.schemas.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) TaskReconciled(err error) {
	m.reconciled.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler отдаёт метрики в текстовом формате Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
