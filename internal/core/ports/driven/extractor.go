package driven

import "context"

// Extractor converts one document format into ordered page texts.
type Extractor interface {
	// Extensions returns the lower-case file extensions handled, with dot.
	Extensions() []string

	// Extract reads the file at path. An empty or all-blank result means
	// the document has no extractable text.
	Extract(ctx context.Context, path string) ([]string, error)
}

// ExtractorRegistry selects an Extractor by file extension.
type ExtractorRegistry interface {
	// Register adds an extractor. Later registrations win for shared extensions.
	Register(e Extractor)

	// Extract dispatches on the extension of path.
	// Returns domain.ErrUnsupportedType when no extractor handles it.
	Extract(ctx context.Context, path string) ([]string, error)

	// Supports reports whether path has a registered extension.
	Supports(path string) bool

	// Extensions lists every registered extension.
	Extensions() []string
}
