package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEmbedder returns len(text) as a one-dimensional vector.
type countingEmbedder struct {
	calls   int
	batched [][]string
}

func (c *countingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	c.calls++
	return []float32{float32(len(text))}, nil
}

func (c *countingEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	c.calls++
	c.batched = append(c.batched, texts)
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t))}
	}
	return out, nil
}

func (c *countingEmbedder) Dimensions() int { return 1 }
func (c *countingEmbedder) ModelName() string { return "counting" }
func (c *countingEmbedder) Ping(context.Context) error { return nil }
func (c *countingEmbedder) Close() error { return nil }

type brokenBackend struct{}

func (brokenBackend) Get(context.Context, string) ([]float32, bool, error) {
	return nil, false, errors.New("down")
}

func (brokenBackend) Set(context.Context, string, []float32) error { return errors.New("down") }

func (brokenBackend) Close() error { return nil }

func TestEmbed_HitsAfterFirstCall(t *testing.T) {
	inner := &countingEmbedder{}
	svc := New(inner, NewMemoryBackend(0))
	ctx := context.Background()

	v1, err := svc.Embed(ctx, "abc")
	require.NoError(t, err)
	v2, err := svc.Embed(ctx, "abc")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, Stats{Hits: 1, Misses: 1}, svc.Stats())
}

func TestEmbedBatch_EmbedsOnlyMisses(t *testing.T) {
	inner := &countingEmbedder{}
	svc := New(inner, NewMemoryBackend(0))
	ctx := context.Background()

	_, err := svc.Embed(ctx, "aa")
	require.NoError(t, err)

	vecs, err := svc.EmbedBatch(ctx, []string{"aa", "bbb", "c"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{2}, {3}, {1}}, vecs)
	assert.Equal(t, [][]string{{"bbb", "c"}}, inner.batched)

	_, err = svc.EmbedBatch(ctx, []string{"bbb", "c"})
	require.NoError(t, err)
	assert.Len(t, inner.batched, 1, "fully cached batch skips the model")
}

func TestEmbed_BackendFailureFallsThrough(t *testing.T) {
	inner := &countingEmbedder{}
	svc := New(inner, brokenBackend{})

	vec, err := svc.Embed(context.Background(), "abcd")
	require.NoError(t, err)
	assert.Equal(t, []float32{4}, vec)
	assert.Equal(t, int64(2), svc.Stats().Errors)
}

func TestMemoryBackend_TTL(t *testing.T) {
	m := NewMemoryBackend(time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", []float32{1}))
	_, ok, _ := m.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, _ = m.Get(ctx, "k")
	assert.False(t, ok)
	assert.Zero(t, m.Len())
}

func TestKeyIncludesModel(t *testing.T) {
	svc := New(&countingEmbedder{}, NewMemoryBackend(0))
	key := svc.key("texto")
	assert.Regexp(t, `^counting:[0-9a-f]{64}$`, key)
}

func TestRedisBackend(t *testing.T) {
	addr := os.Getenv("ATHENA_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("ATHENA_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	backend, err := NewRedisBackend(ctx, RedisConfig{Addr: addr, TTL: time.Minute, KeyPrefix: "athena:test:"})
	require.NoError(t, err)
	defer backend.Close()

	key := "roundtrip-" + time.Now().Format(time.RFC3339Nano)
	_, ok, err := backend.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, backend.Set(ctx, key, []float32{0.25, -1}))
	vec, ok, err := backend.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []float32{0.25, -1}, vec)
}
