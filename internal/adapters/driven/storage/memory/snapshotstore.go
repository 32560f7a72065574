package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driven"
)

// Ensure SnapshotStore implements the interface.
var _ driven.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore keeps the last saved chunk collection.
type SnapshotStore struct {
	mu     sync.RWMutex
	chunks []domain.ChunkRecord
}

// NewSnapshotStore creates an empty snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// Load returns a copy of the saved chunks.
func (s *SnapshotStore) Load(_ context.Context) ([]domain.ChunkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneChunks(s.chunks), nil
}

// Save replaces the saved chunks with a copy of chunks.
func (s *SnapshotStore) Save(_ context.Context, chunks []domain.ChunkRecord) error {
	next := cloneChunks(chunks)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = next
	return nil
}

// Delete drops the saved chunks.
func (s *SnapshotStore) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = nil
	return nil
}

func cloneChunks(in []domain.ChunkRecord) []domain.ChunkRecord {
	out := make([]domain.ChunkRecord, len(in))
	for i, c := range in {
		c.Embedding = slices.Clone(c.Embedding)
		out[i] = c
	}
	return out
}
