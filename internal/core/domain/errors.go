package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a document format with no extractor.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrNoExtractableText indicates a document produced no non-blank page text.
	ErrNoExtractableText = errors.New("no extractable text")

	// ErrInvalidOverlap indicates a chunk overlap that would never advance the window.
	ErrInvalidOverlap = errors.New("overlap must be smaller than chunk size")

	// ErrIngestInProgress indicates an ingestion pass is already running.
	ErrIngestInProgress = errors.New("ingest in progress")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrEmbeddingFailed is matched by every *EmbeddingError.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrDimensionMismatch indicates a vector whose length differs from the store's.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrStorage indicates the snapshot or ingest state could not be read or written.
	ErrStorage = errors.New("storage failure")
)

// EmbeddingError is the typed failure surfaced by embedding calls.
// Timeout is set when the call's deadline expired before the model answered.
type EmbeddingError struct {
	// Op names the call that failed ("embed query", "embed chunk 3 of policy.pdf").
	Op string

	// Timeout reports a deadline expiry.
	Timeout bool

	// Err is the underlying cause.
	Err error
}

// Error implements error.
func (e *EmbeddingError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s: embedding deadline exceeded: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *EmbeddingError) Unwrap() error {
	return e.Err
}

// Is makes every EmbeddingError match ErrEmbeddingFailed.
func (e *EmbeddingError) Is(target error) bool {
	return target == ErrEmbeddingFailed
}
