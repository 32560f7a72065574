package driven

import "time"

// Metrics records operational measurements. Services accept nil and fall
// back to NopMetrics.
type Metrics interface {
	// ObserveEmbedding records one embedding call and whether it failed.
	ObserveEmbedding(op string, d time.Duration, err error)

	// ObserveRetrieval records one search or assembly.
	ObserveRetrieval(mode string, d time.Duration, results int)

	// RecordDocument counts one document handled by an ingestion pass.
	RecordDocument(change, status string)

	// SetStoreSize publishes the number of chunks held in memory.
	SetStoreSize(chunks int)
}

// NopMetrics discards every measurement.
type NopMetrics struct{}

func (NopMetrics) ObserveEmbedding(string, time.Duration, error) {}

func (NopMetrics) ObserveRetrieval(string, time.Duration, int) {}

func (NopMetrics) RecordDocument(string, string) {}

func (NopMetrics) SetStoreSize(int) {}
