package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/athena/internal/core/domain"
)

// stubbornEmbedder ignores cancellation entirely.
type stubbornEmbedder struct {
	mockEmbedder
	release chan struct{}
}

func (s *stubbornEmbedder) Embed(context.Context, string) ([]float32, error) {
	<-s.release
	return []float32{1}, nil
}

func TestDeadlineEmbedder_NilService(t *testing.T) {
	e := newDeadlineEmbedder(nil, time.Second, nil)
	_, err := e.embed(context.Background(), "embed query", "x")
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.ErrorIs(t, err, domain.ErrEmbeddingFailed)
}

func TestDeadlineEmbedder_ReturnsEvenIfServiceHangs(t *testing.T) {
	svc := &stubbornEmbedder{release: make(chan struct{})}
	defer close(svc.release)

	e := newDeadlineEmbedder(svc, 20*time.Millisecond, nil)
	start := time.Now()
	_, err := e.embed(context.Background(), "embed chunk", "x")

	var embErr *domain.EmbeddingError
	require.ErrorAs(t, err, &embErr)
	assert.True(t, embErr.Timeout)
	assert.Equal(t, "embed chunk", embErr.Op)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestDeadlineEmbedder_EmptyVectorIsFailure(t *testing.T) {
	svc := &stubbornEmbedder{release: make(chan struct{})}
	close(svc.release)
	e := newDeadlineEmbedder(svc, time.Second, nil)
	_, err := e.embed(context.Background(), "embed query", "x")
	require.NoError(t, err)

	e = newDeadlineEmbedder(emptyEmbedder{newMockEmbedder()}, time.Second, nil)
	_, err = e.embed(context.Background(), "embed query", "x")
	assert.ErrorIs(t, err, domain.ErrEmbeddingFailed)
}

type emptyEmbedder struct{ *mockEmbedder }

func (emptyEmbedder) Embed(context.Context, string) ([]float32, error) { return nil, nil }

func TestDeadlineEmbedder_PropagatesServiceError(t *testing.T) {
	emb := newMockEmbedder()
	emb.err = errors.New("boom")
	e := newDeadlineEmbedder(emb, 0, nil)

	_, err := e.embed(context.Background(), "embed query", "x")
	var embErr *domain.EmbeddingError
	require.ErrorAs(t, err, &embErr)
	assert.False(t, embErr.Timeout)
	assert.EqualError(t, embErr.Err, "boom")
}
