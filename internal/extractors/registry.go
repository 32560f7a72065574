package extractors

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driven"
)

// Registry dispatches extraction by file extension.
type Registry struct {
	byExt map[string]driven.Extractor
}

var _ driven.ExtractorRegistry = (*Registry)(nil)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]driven.Extractor)}
}

// Register adds an extractor for each of its extensions.
func (r *Registry) Register(e driven.Extractor) {
	for _, ext := range e.Extensions() {
		r.byExt[strings.ToLower(ext)] = e
	}
}

// Extract runs the extractor registered for the extension of path.
func (r *Registry) Extract(ctx context.Context, path string) ([]string, error) {
	e, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, filepath.Ext(path))
	}
	return e.Extract(ctx, path)
}

// Supports reports whether path has a registered extension.
func (r *Registry) Supports(path string) bool {
	_, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Extensions lists every registered extension, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
