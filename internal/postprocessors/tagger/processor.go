// Package tagger annotates chunks with heuristic semantic labels.
package tagger

import (
	"context"

	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/semantic"
)

// Processor sets category, role, topic and doc type on every chunk.
// It implements the PostProcessor interface and must run after the chunker.
type Processor struct{}

// New creates a tagger processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "tagger"
}

// Process labels chunks in place and returns them.
func (p *Processor) Process(
	_ context.Context,
	doc *domain.SourceDocument,
	chunks []domain.ChunkRecord,
) ([]domain.ChunkRecord, error) {
	for i := range chunks {
		source := chunks[i].Source
		if source == "" {
			source = doc.Name
		}
		chunks[i].SetTags(semantic.Tag(chunks[i].Text, source))
	}
	return chunks, nil
}
