package driving

import (
	"context"

	"github.com/custodia-labs/athena/internal/core/domain"
)

// IngestService keeps the embedding store in step with the policy directory.
type IngestService interface {
	// Ingest runs one incremental pass over the policy directory.
	// Returns domain.ErrIngestInProgress if a pass is already running.
	Ingest(ctx context.Context) (*domain.IngestReport, error)

	// Reprocess re-embeds one document regardless of its hash.
	Reprocess(ctx context.Context, name string) (*domain.DocumentOutcome, error)

	// Remove purges one document's chunks and stops tracking it.
	Remove(ctx context.Context, name string) error

	// Reset clears the store, its snapshot and all tracking.
	Reset(ctx context.Context) error

	// Status returns the tracking record of every document.
	Status(ctx context.Context) (*domain.IngestState, error)
}
