// Package ratelimit throttles calls to an embedding service with a token
// bucket, keeping bulk ingestion within a provider's request quota.
package ratelimit

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/athena/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Config holds rate limiting configuration.
type Config struct {
	// RequestsPerSecond is the sustained rate. Zero or less disables limiting.
	RequestsPerSecond float64

	// Burst is the maximum burst size (minimum 1).
	Burst int
}

// EmbeddingService waits for a token before every request to the wrapped
// service. A batch is one request.
type EmbeddingService struct {
	inner   driven.EmbeddingService
	limiter *rate.Limiter
}

// Wrap decorates inner with a limiter. It returns inner unchanged when the
// configured rate is not positive.
func Wrap(inner driven.EmbeddingService, cfg Config) driven.EmbeddingService {
	if cfg.RequestsPerSecond <= 0 {
		return inner
	}
	return New(inner, cfg)
}

// New creates a rate-limited embedding service.
func New(inner driven.EmbeddingService, cfg Config) *EmbeddingService {
	burst := max(cfg.Burst, 1)
	limit := rate.Limit(cfg.RequestsPerSecond)
	if cfg.RequestsPerSecond <= 0 {
		limit = rate.Inf
	}
	return &EmbeddingService{inner: inner, limiter: rate.NewLimiter(limit, burst)}
}

// Embed waits for a token, then embeds text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.inner.Embed(ctx, text)
}

// EmbedBatch waits for a single token, then embeds all texts.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.inner.EmbedBatch(ctx, texts)
}

// Allow reports whether a request could start now without waiting.
func (s *EmbeddingService) Allow() bool {
	return s.limiter.Tokens() >= 1
}

// Dimensions returns the wrapped service's vector size.
func (s *EmbeddingService) Dimensions() int { return s.inner.Dimensions() }

// ModelName returns the wrapped service's model.
func (s *EmbeddingService) ModelName() string { return s.inner.ModelName() }

// Ping is not rate limited.
func (s *EmbeddingService) Ping(ctx context.Context) error { return s.inner.Ping(ctx) }

// Close closes the wrapped service.
func (s *EmbeddingService) Close() error { return s.inner.Close() }

func (s *EmbeddingService) wait(ctx context.Context) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	return nil
}
