package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	service  string
	registry *prometheus.Registry

	loadTotal    *prometheus.CounterVec
	loadDuration *prometheus.HistogramVec
	loadInFlight prometheus.Gauge
	queueLag     *prometheus.HistogramVec
	outboxRows   *prometheus.GaugeVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	loadTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "dispatch_load_total",
			Help:      "Total ERP dispatches loaded into the outbox by decision and status.",
		},
		[]string{"service", "decision", "status"},
	)
	loadDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "dispatch_load_duration_seconds",
			Help:      "Outbox insert duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	loadInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "dispatch_load_in_flight",
			Help:      "Number of in-flight outbox inserts.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between dispatch creation and outbox load.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)
	outboxRows := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "outbox_rows",
			Help:      "Rows staged in the ERP outbox at worker start by decision.",
		},
		[]string{"service", "decision"},
	)

	registry.MustRegister(loadTotal, loadDuration, loadInFlight, queueLag, outboxRows)

	return &WorkerMetrics{
		service:      service,
		registry:     registry,
		loadTotal:    loadTotal,
		loadDuration: loadDuration,
		loadInFlight: loadInFlight,
		queueLag:     queueLag,
		outboxRows:   outboxRows,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartLoad() {
	m.loadInFlight.Inc()
}

func (m *WorkerMetrics) FinishLoad(decision string, duration time.Duration, err error) {
	m.loadInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.loadTotal.WithLabelValues(m.service, decision, status).Inc()
	m.loadDuration.WithLabelValues(m.service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(m.service).Observe(lag.Seconds())
}

func (m *WorkerMetrics) SetOutboxRows(decision string, count int) {
	m.outboxRows.WithLabelValues(m.service, decision).Set(float64(count))
}
