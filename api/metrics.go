package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's collectors on a private registry.
type Metrics struct {
	registry     *prometheus.Registry
	documents    *prometheus.CounterVec
	transactions prometheus.Counter
	duration     *prometheus.HistogramVec
}

// NewMetrics registers the collectors on a fresh registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "txnrecon",
			Name:      "documents_processed_total",
			Help:      "Documents processed, by format, strategy and outcome.",
		}, []string{"format", "strategy", "status"}),
		transactions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "txnrecon",
			Name:      "transactions_extracted_total",
			Help:      "Transactions returned across all documents.",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "txnrecon",
			Name:      "request_duration_seconds",
			Help:      "Request latency by endpoint.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
	m.registry.MustRegister(
		m.documents,
		m.transactions,
		m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) observeDocument(format, strategy, status string, transactions int) {
	m.documents.WithLabelValues(format, strategy, status).Inc()
	m.transactions.Add(float64(transactions))
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
