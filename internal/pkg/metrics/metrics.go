// Package metrics exposes pipeline counters for Prometheus.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "docqa"

// Embedding paths.
const (
	PathIngest = "ingest"
	PathQuery  = "query"
)

type Metrics struct {
	filesIngested      *prometheus.CounterVec
	chunksEmbedded     prometheus.Counter
	embeddingFailures  *prometheus.CounterVec
	retrievalMatches   prometheus.Histogram
	generationFailures prometheus.Counter
	ingestDuration     prometheus.Histogram
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		filesIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_ingested_total",
			Help:      "Uploaded files by final stage",
		}, []string{"result"}),
		chunksEmbedded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_embedded_total",
			Help:      "Chunks embedded and persisted",
		}),
		embeddingFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_failures_total",
			Help:      "Embedding calls that failed after retries",
		}, []string{"path"}),
		retrievalMatches: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_matches",
			Help:      "Chunks returned per retrieval",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		}),
		generationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_failures_total",
			Help:      "Failed answer generations",
		}),
		ingestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_file_duration_seconds",
			Help:      "Time to ingest a single file",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}

	reg.MustRegister(
		m.filesIngested,
		m.chunksEmbedded,
		m.embeddingFailures,
		m.retrievalMatches,
		m.generationFailures,
		m.ingestDuration,
	)
	return m
}

// NewRegistry returns a registry with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

func (m *Metrics) FileIngested(result string, seconds float64) {
	if m == nil {
		return
	}
	m.filesIngested.WithLabelValues(result).Inc()
	m.ingestDuration.Observe(seconds)
}

func (m *Metrics) ChunksEmbedded(n int) {
	if m == nil {
		return
	}
	m.chunksEmbedded.Add(float64(n))
}

func (m *Metrics) EmbeddingFailed(path string) {
	if m == nil {
		return
	}
	m.embeddingFailures.WithLabelValues(path).Inc()
}

func (m *Metrics) RetrievalMatches(n int) {
	if m == nil {
		return
	}
	m.retrievalMatches.Observe(float64(n))
}

func (m *Metrics) GenerationFailed() {
	if m == nil {
		return
	}
	m.generationFailures.Inc()
}
