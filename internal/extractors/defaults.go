package extractors

import (
	"github.com/custodia-labs/athena/internal/extractors/docx"
	"github.com/custodia-labs/athena/internal/extractors/html"
	"github.com/custodia-labs/athena/internal/extractors/markdown"
	"github.com/custodia-labs/athena/internal/extractors/pdf"
	"github.com/custodia-labs/athena/internal/extractors/plaintext"
)

// NewDefaultRegistry registers the PDF, DOCX, plain text, Markdown and HTML
// extractors.
func NewDefaultRegistry(virtualPageChars int) *Registry {
	paginate := func(text string) []string { return VirtualPages(text, virtualPageChars) }

	r := NewRegistry()
	r.Register(pdf.New())
	r.Register(docx.New(paginate))
	r.Register(plaintext.New(paginate))
	r.Register(markdown.New(paginate))
	r.Register(html.New(paginate))
	return r
}
