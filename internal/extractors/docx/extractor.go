// Package docx extracts paragraph text from Word documents.
package docx

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driven"
)

var _ driven.Extractor = (*Extractor)(nil)

// Extractor reads DOCX files and paginates the text.
type Extractor struct {
	paginate func(string) []string
}

// New creates a DOCX extractor. paginate cuts the document text into pages.
func New(paginate func(string) []string) *Extractor {
	return &Extractor{paginate: paginate}
}

// Extensions returns the handled extensions.
func (e *Extractor) Extensions() []string {
	return []string{".docx"}
}

// Extract reads word/document.xml and returns its paragraphs as virtual pages.
func (e *Extractor) Extract(_ context.Context, path string) ([]string, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: not a docx archive: %v", domain.ErrInvalidInput, err)
	}
	defer reader.Close()

	text, err := documentText(&reader.Reader)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return e.paginate(text), nil
}

// documentText extracts text from word/document.xml.
func documentText(reader *zip.Reader) (string, error) {
	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("%w: open document.xml: %v", domain.ErrInvalidInput, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("%w: read document.xml: %v", domain.ErrInvalidInput, err)
		}

		return parseDocumentXML(content)
	}
	return "", nil
}

// documentXML mirrors the paragraph, run and text nesting of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

// parseDocumentXML joins each paragraph's runs, one paragraph per line.
func parseDocumentXML(content []byte) (string, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", fmt.Errorf("%w: parse document.xml: %v", domain.ErrInvalidInput, err)
	}

	var b strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			b.WriteString("\n")
		}
		for _, r := range para.Runs {
			for _, t := range r.Text {
				b.WriteString(t.Content)
			}
		}
	}
	return b.String(), nil
}
