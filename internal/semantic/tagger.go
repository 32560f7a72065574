package semantic

import (
	"path/filepath"
	"strings"

	"github.com/custodia-labs/athena/internal/core/domain"
)

// maxTopicRunes bounds the fallback topic taken from the text itself.
const maxTopicRunes = 80

// Tag infers every label of a chunk from its text and source filename.
func Tag(text, source string) domain.Tags {
	folded := Fold(text)
	return domain.Tags{
		Category: InferCategory(Fold(source) + "\n" + folded),
		Role:     firstMatch(Roles, folded, RoleDefault),
		Topic:    inferTopic(text, folded),
		DocType:  InferDocType(source),
	}
}

// InferDocType classifies a document by its filename alone.
func InferDocType(source string) string {
	name := Fold(filepath.Base(source))
	for _, r := range DocTypes {
		if r.Matches(name) {
			return r.Label
		}
	}
	return domain.Unknown
}

// InferCategory returns the category with the most keyword hits in folded text.
func InferCategory(folded string) string {
	best, bestScore := domain.Unknown, 0
	for _, c := range Categories {
		if score := len(c.Pattern.FindAllStringIndex(folded, -1)); score > bestScore {
			best, bestScore = c.Label, score
		}
	}
	return best
}

// InferRole returns the first role whose rule matches text.
func InferRole(text string) string {
	return firstMatch(Roles, Fold(text), RoleDefault)
}

func firstMatch(rules []Rule, folded, fallback string) string {
	for _, r := range rules {
		if r.Pattern.MatchString(folded) {
			return r.Label
		}
	}
	return fallback
}

func inferTopic(text, folded string) string {
	if label := firstMatch(Topics, folded, ""); label != "" {
		return label
	}
	return leadingClause(text)
}

// leadingClause returns the first non-empty sentence or clause of text.
func leadingClause(text string) string {
	clause := ""
	for _, part := range strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '\n' || r == ';' || r == ':'
	}) {
		if p := strings.TrimSpace(part); p != "" {
			clause = p
			break
		}
	}
	if clause == "" {
		return domain.Unknown
	}
	if r := []rune(clause); len(r) > maxTopicRunes {
		return string(r[:maxTopicRunes]) + "..."
	}
	return clause
}
