package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/athena/internal/core/domain"
)

func TestSnapshotStore_RoundTripIsolated(t *testing.T) {
	ctx := context.Background()
	store := NewSnapshotStore()

	empty, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	chunks := []domain.ChunkRecord{
		{ID: "a", Text: "multa", Source: "p.pdf", Page: 1, Embedding: []float32{1, 0}},
		{ID: "b", Text: "prazo", Source: "p.pdf", Page: 2, Order: 1, Embedding: []float32{0, 1}},
	}
	require.NoError(t, store.Save(ctx, chunks))
	chunks[0].Embedding[0] = 9

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, float32(1), loaded[0].Embedding[0])
	assert.Equal(t, "b", loaded[1].ID)

	loaded[1].Embedding[1] = 7
	again, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, float32(1), again[1].Embedding[1])

	require.NoError(t, store.Delete(ctx))
	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestIngestStateStore_FreshAndIsolated(t *testing.T) {
	ctx := context.Background()
	store := NewIngestStateStore()

	fresh, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.IndexSchemaVersion, fresh.SchemaVersion)
	assert.Empty(t, fresh.Documents)

	state := domain.NewIngestState()
	state.Documents["p.pdf"] = domain.DocumentState{
		Hash: "abc", Status: domain.StatusCompleted, Chunks: 3, UpdatedAt: time.Now(),
	}
	require.NoError(t, store.Save(ctx, state))
	delete(state.Documents, "p.pdf")

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Contains(t, loaded.Documents, "p.pdf")
	assert.Equal(t, 3, loaded.Documents["p.pdf"].Chunks)

	require.NoError(t, store.Delete(ctx))
	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded.Documents)
}
