package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dealdesk/diligence-assistant/internal/core/domain"
)

// Indexing outcomes used as the "outcome" label.
const (
	OutcomeIndexed         = "indexed"
	OutcomeExtractionEmpty = "extraction_empty"
	OutcomeMissing         = "document_missing"
	OutcomeError           = "error"
)

// IndexingMetrics instruments the background indexing worker.
type IndexingMetrics struct {
	service  string
	registry *prometheus.Registry

	documentsTotal   *prometheus.CounterVec
	documentDuration *prometheus.HistogramVec
	chunksPerDoc     prometheus.Histogram
	inFlight         prometheus.Gauge
	queueLag         prometheus.Histogram
}

func NewIndexingMetrics(service string) *IndexingMetrics {
	constLabels := prometheus.Labels{"service": service}
	m := &IndexingMetrics{
		service:  service,
		registry: prometheus.NewRegistry(),
		documentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "indexing",
			Name:        "documents_total",
			Help:        "Documents taken off the upload queue, by outcome.",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		documentDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "indexing",
			Name:        "document_duration_seconds",
			Help:        "Time to extract, chunk and store one document, by outcome.",
			Buckets:     []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		chunksPerDoc: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "indexing",
			Name:        "chunks_per_document",
			Help:        "Chunks created for each successfully indexed document.",
			Buckets:     prometheus.ExponentialBuckets(1, 2, 12),
			ConstLabels: constLabels,
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "indexing",
			Name:        "documents_in_flight",
			Help:        "Documents currently being indexed.",
			ConstLabels: constLabels,
		}),
		queueLag: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "indexing",
			Name:        "queue_lag_seconds",
			Help:        "Delay between upload and the start of indexing.",
			Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
			ConstLabels: constLabels,
		}),
	}
	m.registry.MustRegister(m.documentsTotal, m.documentDuration, m.chunksPerDoc, m.inFlight, m.queueLag)
	return m
}

func (m *IndexingMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *IndexingMetrics) StartDocument() {
	m.inFlight.Inc()
}

// FinishDocument records one processed document. chunks is ignored unless
// err is nil.
func (m *IndexingMetrics) FinishDocument(duration time.Duration, chunks int, err error) {
	m.inFlight.Dec()

	outcome := indexingOutcome(err)
	m.documentsTotal.WithLabelValues(outcome).Inc()
	m.documentDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	if err == nil {
		m.chunksPerDoc.Observe(float64(chunks))
	}
}

func (m *IndexingMetrics) ObserveQueueLag(lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.Observe(lag.Seconds())
}

func indexingOutcome(err error) string {
	switch {
	case err == nil:
		return OutcomeIndexed
	case domain.IsKind(err, domain.ErrExtractionEmpty):
		return OutcomeExtractionEmpty
	case domain.IsKind(err, domain.ErrDocumentNotFound):
		return OutcomeMissing
	default:
		return OutcomeError
	}
}
