package services

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driven"
)

// deadlineEmbedder bounds every embedding call and converts failures into
// *domain.EmbeddingError.
type deadlineEmbedder struct {
	svc     driven.EmbeddingService
	timeout time.Duration
	metrics driven.Metrics
}

func newDeadlineEmbedder(svc driven.EmbeddingService, timeout time.Duration, m driven.Metrics) *deadlineEmbedder {
	if m == nil {
		m = driven.NopMetrics{}
	}
	return &deadlineEmbedder{svc: svc, timeout: timeout, metrics: m}
}

// embed runs one call under the configured budget.
func (e *deadlineEmbedder) embed(ctx context.Context, op, text string) ([]float32, error) {
	if e.svc == nil {
		return nil, &domain.EmbeddingError{Op: op, Err: domain.ErrEmbeddingUnavailable}
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	vec, err := e.call(ctx, text)
	e.metrics.ObserveEmbedding(op, time.Since(start), err)

	switch {
	case err != nil:
		return nil, &domain.EmbeddingError{
			Op:      op,
			Timeout: errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded),
			Err:     err,
		}
	case len(vec) == 0:
		return nil, &domain.EmbeddingError{Op: op, Err: errors.New("empty vector")}
	}
	return vec, nil
}

// call returns as soon as ctx ends, even if the service ignores it.
func (e *deadlineEmbedder) call(ctx context.Context, text string) ([]float32, error) {
	type result struct {
		vec []float32
		err error
	}
	done := make(chan result, 1)
	go func() {
		vec, err := e.svc.Embed(ctx, text)
		done <- result{vec, err}
	}()

	select {
	case r := <-done:
		return r.vec, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
