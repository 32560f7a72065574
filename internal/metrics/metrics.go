// Package metrics records ingestion, embedding and retrieval measurements
// with Prometheus. Each Recorder owns its registry so tests and multiple
// commands in one process never collide on registration.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/athena/internal/core/ports/driven"
)

// Ensure Recorder implements the interface.
var _ driven.Metrics = (*Recorder)(nil)

const namespace = "athena"

// Recorder implements driven.Metrics on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	embeddingRequests *prometheus.CounterVec
	embeddingLatency  *prometheus.HistogramVec
	retrievalLatency  *prometheus.HistogramVec
	retrievalResults  *prometheus.HistogramVec
	documents         *prometheus.CounterVec
	storeChunks       prometheus.Gauge
}

// NewRecorder creates a recorder with process and Go runtime collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),

		embeddingRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_requests_total",
			Help:      "Embedding calls by operation and outcome",
		}, []string{"op", "outcome"}),

		embeddingLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "embedding_duration_seconds",
			Help:      "Embedding call latency in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"op"}),

		retrievalLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_duration_seconds",
			Help:      "Search and context assembly latency in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"mode"}),

		retrievalResults: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_results",
			Help:      "Chunks returned per search or assembly",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64},
		}, []string{"mode"}),

		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_documents_total",
			Help:      "Documents handled by ingestion passes by change kind and status",
		}, []string{"change", "status"}),

		storeChunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_chunks",
			Help:      "Chunks currently held by the embedding store",
		}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.embeddingRequests,
		r.embeddingLatency,
		r.retrievalLatency,
		r.retrievalResults,
		r.documents,
		r.storeChunks,
	)
	return r
}

// ObserveEmbedding records one embedding call.
func (r *Recorder) ObserveEmbedding(op string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.embeddingRequests.WithLabelValues(op, outcome).Inc()
	r.embeddingLatency.WithLabelValues(op).Observe(d.Seconds())
}

// ObserveRetrieval records one search or assembly.
func (r *Recorder) ObserveRetrieval(mode string, d time.Duration, results int) {
	r.retrievalLatency.WithLabelValues(mode).Observe(d.Seconds())
	r.retrievalResults.WithLabelValues(mode).Observe(float64(results))
}

// RecordDocument counts one document outcome.
func (r *Recorder) RecordDocument(change, status string) {
	if status == "" {
		status = "none"
	}
	r.documents.WithLabelValues(change, status).Inc()
}

// SetStoreSize publishes the store size.
func (r *Recorder) SetStoreSize(chunks int) {
	r.storeChunks.Set(float64(chunks))
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
