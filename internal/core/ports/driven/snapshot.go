package driven

import (
	"context"

	"github.com/custodia-labs/athena/internal/core/domain"
)

// SnapshotStore persists the whole chunk collection as one unit.
// Save must never leave a partially written snapshot behind.
type SnapshotStore interface {
	// Load returns the persisted chunks, or an empty slice if none exist.
	Load(ctx context.Context) ([]domain.ChunkRecord, error)

	// Save atomically replaces the persisted chunks.
	Save(ctx context.Context, chunks []domain.ChunkRecord) error

	// Delete removes the persisted snapshot. Deleting a missing snapshot is not an error.
	Delete(ctx context.Context) error
}

// IngestStateStore persists per-document tracking records.
type IngestStateStore interface {
	// Load returns the persisted state, or a fresh state at the current
	// schema version when nothing was saved yet.
	Load(ctx context.Context) (*domain.IngestState, error)

	// Save atomically replaces the persisted state.
	Save(ctx context.Context, state *domain.IngestState) error

	// Delete removes the persisted state.
	Delete(ctx context.Context) error
}
