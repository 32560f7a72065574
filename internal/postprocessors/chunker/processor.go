// Package chunker provides a page-aware sliding-window chunking processor.
package chunker

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/athena/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 450

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 100

// Processor splits each page of a document into overlapping chunks.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// The window must advance on every step.
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits every page into chunks.
// Input chunks are ignored; this processor creates new chunks from the pages.
// Blank pages are skipped without consuming an order number.
func (p *Processor) Process(
	ctx context.Context,
	doc *domain.SourceDocument,
	_ []domain.ChunkRecord,
) ([]domain.ChunkRecord, error) {
	var chunks []domain.ChunkRecord
	order := 0

	for i, page := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text := []rune(CleanText(page))
		if len(text) == 0 {
			continue
		}

		for _, w := range Windows(len(text), p.chunkSize, p.overlap) {
			content := strings.TrimSpace(string(text[w.Start:w.End]))
			if content == "" {
				continue
			}
			chunks = append(chunks, domain.ChunkRecord{
				ID:     uuid.New().String(),
				Text:   content,
				Source: doc.Name,
				Page:   i + 1,
				Order:  order,
			})
			order++
		}
	}

	return chunks, nil
}

// CleanText keeps the non-blank lines of s, trimmed and joined by newlines.
func CleanText(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if t := strings.TrimSpace(line); t != "" {
			kept = append(kept, t)
		}
	}
	return strings.Join(kept, "\n")
}

// Window is a half-open character range [Start, End).
type Window struct {
	Start int
	End   int
}

// Windows returns the window positions over a text of length n.
// Each window after the first starts overlap characters before the previous end.
func Windows(n, size, overlap int) []Window {
	if n <= 0 || size <= 0 || overlap >= size {
		return nil
	}
	windows := make([]Window, 0, n/(size-overlap)+1)
	for start := 0; ; {
		end := min(start+size, n)
		windows = append(windows, Window{Start: start, End: end})
		if end == n {
			return windows
		}
		start = end - overlap
	}
}
