package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	quotesGenerated *prometheus.CounterVec
	quoteErrors     *prometheus.CounterVec
	catalogSync     *prometheus.CounterVec
	quoteAmount     *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		quotesGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cotizador_quotes_generated_total",
			Help: "Generated quotation documents by kind.",
		}, []string{"kind"}),
		quoteErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cotizador_quote_errors_total",
			Help: "Quotation failures by pipeline stage.",
		}, []string{"stage"}),
		catalogSync: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cotizador_catalog_sync_total",
			Help: "Catalog synchronisation attempts by result.",
		}, []string{"result"}),
		quoteAmount: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cotizador_quote_amount",
			Help:    "Quotation totals.",
			Buckets: prometheus.ExponentialBuckets(1000, 2, 10),
		}, []string{"kind"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.quotesGenerated,
		m.quoteErrors,
		m.catalogSync,
		m.quoteAmount,
	)

	return m
}

func (m *Metrics) QuoteGenerated(kind string, amount float64) {
	m.quotesGenerated.WithLabelValues(kind).Inc()
	m.quoteAmount.WithLabelValues(kind).Observe(amount)
}

func (m *Metrics) QuoteFailed(stage string) {
	m.quoteErrors.WithLabelValues(stage).Inc()
}

func (m *Metrics) CatalogSynced(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	m.catalogSync.WithLabelValues(result).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
