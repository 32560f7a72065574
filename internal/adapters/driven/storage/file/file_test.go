package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/athena/internal/core/domain"
)

func TestSnapshotStore_MissingFileIsEmpty(t *testing.T) {
	store, err := NewSnapshotStore(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)

	chunks, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, chunks)
	assert.Empty(t, chunks)
	assert.Equal(t, SnapshotFileName, filepath.Base(store.Path()))
}

func TestSnapshotStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewSnapshotStore(t.TempDir())
	require.NoError(t, err)

	in := []domain.ChunkRecord{
		{
			ID: "c1", Text: "Multa de 2% ao mês.", Embedding: []float32{0.25, -1, 3.5},
			Source: "Policy_X.pdf", Page: 2, Order: 0,
			Category: "financeiro", Role: "valor", Topic: "penalidades", DocType: "politica",
		},
		{ID: "c2", Text: "Prazo de 30 dias.", Embedding: []float32{1, 0, 0}, Source: "Policy_X.pdf", Page: 3, Order: 1},
	}
	require.NoError(t, store.Save(ctx, in))

	out, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"doc_type":"politica"`)
}

func TestSnapshotStore_SaveReplacesAtomically(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewSnapshotStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, []domain.ChunkRecord{{ID: "a", Text: "x", Source: "a.txt", Page: 1}}))
	require.NoError(t, store.Save(ctx, nil))

	out, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, out)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, SnapshotFileName, entries[0].Name())
}

func TestSnapshotStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewSnapshotStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0600))

	_, err = store.Load(context.Background())
	assert.Error(t, err)
}

func TestSnapshotStore_Delete(t *testing.T) {
	ctx := context.Background()
	store, err := NewSnapshotStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx), "deleting a missing snapshot is not an error")
	require.NoError(t, store.Save(ctx, []domain.ChunkRecord{{ID: "a", Text: "x"}}))
	require.NoError(t, store.Delete(ctx))

	_, err = os.Stat(store.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestIngestStateStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewIngestStateStore(t.TempDir())
	require.NoError(t, err)

	fresh, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.IndexSchemaVersion, fresh.SchemaVersion)

	when := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	state := domain.NewIngestState()
	state.Documents["Política de Férias.pdf"] = domain.DocumentState{
		Hash: "ab12", Status: domain.StatusCompleted, Chunks: 4, UpdatedAt: when,
	}
	state.Documents["broken.docx"] = domain.DocumentState{
		Hash: "cd34", Status: domain.StatusError, Error: "no extractable text", UpdatedAt: when,
	}
	require.NoError(t, store.Save(ctx, state))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.IndexSchemaVersion, loaded.SchemaVersion)
	require.Len(t, loaded.Documents, 2)

	ok := loaded.Documents["Política de Férias.pdf"]
	assert.Equal(t, "ab12", ok.Hash)
	assert.Equal(t, domain.StatusCompleted, ok.Status)
	assert.Equal(t, 4, ok.Chunks)
	assert.Empty(t, ok.Error)
	assert.True(t, when.Equal(ok.UpdatedAt))

	assert.Equal(t, "no extractable text", loaded.Documents["broken.docx"].Error)
}

func TestIngestStateStore_UnversionedFileLoadsAsZero(t *testing.T) {
	store, err := NewIngestStateStore(t.TempDir())
	require.NoError(t, err)
	legacy := "[documents.\"a.pdf\"]\nhash = \"x\"\nstatus = \"completed\"\nchunks = 1\n"
	require.NoError(t, os.WriteFile(store.Path(), []byte(legacy), 0600))

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.SchemaVersion)
	assert.Equal(t, domain.ChangeChanged, loaded.Classify("a.pdf", "x", true))
}

func TestIngestStateStore_DeleteAndCorrupt(t *testing.T) {
	ctx := context.Background()
	store, err := NewIngestStateStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx))
	require.NoError(t, os.WriteFile(store.Path(), []byte("[[[ nope"), 0600))
	_, err = store.Load(ctx)
	assert.Error(t, err)

	require.NoError(t, store.Delete(ctx))
	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded.Documents)
}
