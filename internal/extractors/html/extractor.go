// Package html extracts the visible text of HTML policy pages.
package html

import (
	"context"
	"html"
	"regexp"
	"strings"

	"github.com/custodia-labs/athena/internal/core/ports/driven"
	"github.com/custodia-labs/athena/internal/extractors/plaintext"
)

var _ driven.Extractor = (*Extractor)(nil)

var (
	invisible   = regexp.MustCompile(`(?is)<(script|style|noscript|head|svg|template)[^>]*>.*?</(script|style|noscript|head|svg|template)>`)
	comments    = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockBreaks = regexp.MustCompile(`(?i)</?(p|div|br|hr|h[1-6]|li|tr|blockquote|pre|table|section|article|header|footer)\b[^>]*>`)
	cellBreaks  = regexp.MustCompile(`(?i)</t[dh]>`)
	tags        = regexp.MustCompile(`<[^>]+>`)
	spaces      = regexp.MustCompile(`[ \t\x{00A0}]+`)
)

// Extractor reads HTML files and paginates their visible text.
type Extractor struct {
	paginate func(string) []string
}

// New creates an HTML extractor. paginate cuts the text into pages.
func New(paginate func(string) []string) *Extractor {
	return &Extractor{paginate: paginate}
}

// Extensions returns the handled extensions.
func (e *Extractor) Extensions() []string {
	return []string{".html", ".htm"}
}

// Extract reads the file, drops the markup and returns virtual pages.
func (e *Extractor) Extract(_ context.Context, path string) ([]string, error) {
	text, err := plaintext.ReadText(path)
	if err != nil {
		return nil, err
	}
	return e.paginate(Strip(text)), nil
}

// Strip returns the visible text, one line per block element.
func Strip(content string) string {
	content = invisible.ReplaceAllString(content, "")
	content = comments.ReplaceAllString(content, "")
	content = blockBreaks.ReplaceAllString(content, "\n")
	content = cellBreaks.ReplaceAllString(content, " ")
	content = tags.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	content = spaces.ReplaceAllString(content, " ")

	lines := strings.Split(content, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
