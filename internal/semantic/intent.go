package semantic

import (
	"strings"

	"github.com/custodia-labs/athena/internal/core/domain"
)

// InferIntent detects which roles, categories and doc types a query asks about.
func InferIntent(query string) domain.Intent {
	folded := Fold(query)
	var intent domain.Intent
	for _, r := range IntentRoles {
		if r.Pattern.MatchString(folded) {
			intent.Roles = append(intent.Roles, r.Label)
		}
	}
	for _, c := range Categories {
		if c.Pattern.MatchString(folded) {
			intent.Categories = append(intent.Categories, c.Label)
		}
	}
	for _, d := range DocTypes {
		for _, word := range d.Contains {
			if strings.Contains(folded, word) {
				intent.DocTypes = append(intent.DocTypes, d.Label)
				break
			}
		}
	}
	return intent
}
