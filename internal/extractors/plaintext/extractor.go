// Package plaintext extracts text files, decoding Latin-1 when the bytes
// are not valid UTF-8.
package plaintext

import (
	"context"
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/custodia-labs/athena/internal/core/ports/driven"
)

var _ driven.Extractor = (*Extractor)(nil)

// Extractor reads plain text files and paginates them.
type Extractor struct {
	paginate func(string) []string
}

// New creates a plain text extractor. paginate cuts the text into pages.
func New(paginate func(string) []string) *Extractor {
	return &Extractor{paginate: paginate}
}

// Extensions returns the handled extensions.
func (e *Extractor) Extensions() []string {
	return []string{".txt"}
}

// Extract reads the file and returns its virtual pages.
func (e *Extractor) Extract(_ context.Context, path string) ([]string, error) {
	text, err := ReadText(path)
	if err != nil {
		return nil, err
	}
	return e.paginate(text), nil
}

// ReadText reads a text file as UTF-8, falling back to Latin-1.
func ReadText(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode latin-1: %w", err)
	}
	return string(out), nil
}
