package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/athena/internal/core/domain"
)

// EnrichChunk prefixes chunk text with its labels so the embedding leans
// toward the chunk's semantic role.
func EnrichChunk(c *domain.ChunkRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "DOCUMENT: %s\n", c.Source)
	fmt.Fprintf(&b, "DOC_TYPE: %s\n", labelOrUnknown(c.DocType))
	fmt.Fprintf(&b, "CATEGORY: %s\n", labelOrUnknown(c.Category))
	fmt.Fprintf(&b, "ROLE: %s\n", labelOrUnknown(c.Role))
	fmt.Fprintf(&b, "TOPIC: %s\n", labelOrUnknown(c.Topic))
	fmt.Fprintf(&b, "PAGE: %d\n", c.Page)
	b.WriteString(c.Text)
	return b.String()
}

// EnrichQuery prefixes a query with the intent it expresses, in the same
// header dialect as EnrichChunk.
func EnrichQuery(query string, intent domain.Intent) string {
	var b strings.Builder
	writeTagLine(&b, "DESIRED_ROLE", intent.Roles)
	writeTagLine(&b, "DESIRED_CATEGORY", intent.Categories)
	writeTagLine(&b, "DESIRED_DOC_TYPE", intent.DocTypes)
	b.WriteString(query)
	return b.String()
}

func writeTagLine(b *strings.Builder, key string, values []string) {
	if len(values) == 0 {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", key, strings.Join(values, ", "))
}

func labelOrUnknown(s string) string {
	if s == "" {
		return domain.Unknown
	}
	return s
}
