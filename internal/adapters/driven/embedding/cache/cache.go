// Package cache memoises embedding vectors so unchanged chunk text and
// repeated queries skip the model. Entries are keyed by model name and the
// sha256 of the text.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync/atomic"

	"github.com/custodia-labs/athena/internal/core/ports/driven"
	"github.com/custodia-labs/athena/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Backend stores vectors by key.
type Backend interface {
	// Get returns the vector for key, reporting whether it was found.
	Get(ctx context.Context, key string) ([]float32, bool, error)

	// Set stores a vector under key.
	Set(ctx context.Context, key string, vec []float32) error

	// Close releases backend resources.
	Close() error
}

// Stats counts cache lookups.
type Stats struct {
	Hits   int64
	Misses int64
	Errors int64
}

// EmbeddingService consults a Backend before calling the wrapped service.
// Backend failures are logged and treated as misses.
type EmbeddingService struct {
	inner   driven.EmbeddingService
	backend Backend

	hits, misses, errs atomic.Int64
}

// New wraps inner with backend.
func New(inner driven.EmbeddingService, backend Backend) *EmbeddingService {
	return &EmbeddingService{inner: inner, backend: backend}
}

// Embed returns a cached vector or computes and stores one.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	key := s.key(text)
	if vec, ok := s.lookup(ctx, key); ok {
		return vec, nil
	}
	vec, err := s.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, vec)
	return vec, nil
}

// EmbedBatch serves hits from the cache and embeds only the misses, in one
// call to the wrapped service.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	keys := make([]string, len(texts))
	var missing []int
	for i, text := range texts {
		keys[i] = s.key(text)
		if vec, ok := s.lookup(ctx, keys[i]); ok {
			out[i] = vec
			continue
		}
		missing = append(missing, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	pending := make([]string, len(missing))
	for j, i := range missing {
		pending[j] = texts[i]
	}
	vecs, err := s.inner.EmbedBatch(ctx, pending)
	if err != nil {
		return nil, err
	}
	for j, i := range missing {
		out[i] = vecs[j]
		s.store(ctx, keys[i], vecs[j])
	}
	return out, nil
}

// Stats returns lookup counters since creation.
func (s *EmbeddingService) Stats() Stats {
	return Stats{Hits: s.hits.Load(), Misses: s.misses.Load(), Errors: s.errs.Load()}
}

// Dimensions returns the wrapped service's vector size.
func (s *EmbeddingService) Dimensions() int { return s.inner.Dimensions() }

// ModelName returns the wrapped service's model.
func (s *EmbeddingService) ModelName() string { return s.inner.ModelName() }

// Ping checks the wrapped service.
func (s *EmbeddingService) Ping(ctx context.Context) error { return s.inner.Ping(ctx) }

// Close closes the backend and the wrapped service.
func (s *EmbeddingService) Close() error {
	berr := s.backend.Close()
	if err := s.inner.Close(); err != nil {
		return err
	}
	return berr
}

func (s *EmbeddingService) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return s.inner.ModelName() + ":" + hex.EncodeToString(sum[:])
}

func (s *EmbeddingService) lookup(ctx context.Context, key string) ([]float32, bool) {
	vec, ok, err := s.backend.Get(ctx, key)
	switch {
	case err != nil:
		s.errs.Add(1)
		logger.Warn("embedding cache: get %s: %v", key, err)
		return nil, false
	case !ok || len(vec) == 0:
		s.misses.Add(1)
		return nil, false
	}
	s.hits.Add(1)
	return vec, true
}

func (s *EmbeddingService) store(ctx context.Context, key string, vec []float32) {
	if err := s.backend.Set(ctx, key, vec); err != nil {
		s.errs.Add(1)
		logger.Warn("embedding cache: set %s: %v", key, err)
	}
}
