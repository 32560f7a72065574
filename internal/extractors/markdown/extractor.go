// Package markdown extracts the prose of Markdown policy files.
package markdown

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/athena/internal/core/ports/driven"
	"github.com/custodia-labs/athena/internal/extractors/plaintext"
)

var _ driven.Extractor = (*Extractor)(nil)

var (
	fencedCode    = regexp.MustCompile("(?s)```.*?```")
	inlineCode    = regexp.MustCompile("`([^`]+)`")
	images        = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	links         = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	headings      = regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s+`)
	strong        = regexp.MustCompile(`(\*\*|__)(\S(?:.*?\S)?)(\*\*|__)`)
	emphasis      = regexp.MustCompile(`(^|\s)\*(\S(?:[^*]*\S)?)\*`)
	blockquotes   = regexp.MustCompile(`(?m)^\s*>\s?`)
	rules         = regexp.MustCompile(`(?m)^\s*([-*_]\s*){3,}$`)
	bullets       = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	tableRules    = regexp.MustCompile(`(?m)^\s*\|?\s*:?-{3,}.*$`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// Extractor reads Markdown files and paginates their plain text.
type Extractor struct {
	paginate func(string) []string
}

// New creates a Markdown extractor. paginate cuts the text into pages.
func New(paginate func(string) []string) *Extractor {
	return &Extractor{paginate: paginate}
}

// Extensions returns the handled extensions.
func (e *Extractor) Extensions() []string {
	return []string{".md", ".markdown"}
}

// Extract reads the file, strips the markup and returns virtual pages.
func (e *Extractor) Extract(_ context.Context, path string) ([]string, error) {
	text, err := plaintext.ReadText(path)
	if err != nil {
		return nil, err
	}
	return e.paginate(Strip(text)), nil
}

// Strip removes Markdown syntax and keeps the readable text. Numbered list
// markers are kept since clause numbers carry meaning in policies.
func Strip(content string) string {
	content = fencedCode.ReplaceAllString(content, "")
	content = images.ReplaceAllString(content, "")
	content = links.ReplaceAllString(content, "$1")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = headings.ReplaceAllString(content, "")
	content = strong.ReplaceAllString(content, "$2")
	content = emphasis.ReplaceAllString(content, "$1$2")
	content = blockquotes.ReplaceAllString(content, "")
	content = rules.ReplaceAllString(content, "")
	content = tableRules.ReplaceAllString(content, "")
	content = bullets.ReplaceAllString(content, "")
	content = strings.ReplaceAll(content, "|", " ")
	content = multiNewlines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
