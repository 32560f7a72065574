package driven

import (
	"context"

	"github.com/custodia-labs/athena/internal/core/domain"
)

// PostProcessor turns extracted pages into chunk records.
// PostProcessors are chained in a pipeline (chunking, then tagging).
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process takes a document and returns chunks.
	// A processor that creates chunks (the chunker) receives nil.
	// A processor that annotates chunks (the tagger) receives and returns them.
	Process(ctx context.Context, doc *domain.SourceDocument, chunks []domain.ChunkRecord) ([]domain.ChunkRecord, error)
}

// PostProcessorPipeline chains multiple PostProcessors.
type PostProcessorPipeline interface {
	// Process runs the document through all processors in order.
	Process(ctx context.Context, doc *domain.SourceDocument) ([]domain.ChunkRecord, error)
}
