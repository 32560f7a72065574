// Package pdf extracts one text block per PDF page.
package pdf

import (
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driven"
)

var _ driven.Extractor = (*Extractor)(nil)

// Extractor reads text from PDF files.
type Extractor struct{}

// New creates a PDF extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the handled extensions.
func (e *Extractor) Extensions() []string {
	return []string{".pdf"}
}

// Extract returns the plain text of every page. Pages without content
// yield an empty string so page numbers keep their position.
func (e *Extractor) Extract(ctx context.Context, path string) (pages []string, err error) {
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("%w: corrupt pdf %s: %v", domain.ErrInvalidInput, path, r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	total := reader.NumPage()
	pages = make([]string, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("read page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}
