package semantic

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lower-cases s and strips diacritics ("Políticas" -> "politicas").
func Fold(s string) string {
	// Chain transformers carry state, so each call builds its own.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Tokens splits folded s into runs of letters and digits.
func Tokens(s string) []string {
	return strings.FieldsFunc(Fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// NormalizeSpace folds s and collapses whitespace runs to single spaces.
// It is the identity used for duplicate suppression.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(Fold(s)), " ")
}

var stopwords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		a o as os e é um uma uns umas de do da dos das em no na nos nas
		por para pelo pela pelos pelas com sem sob sobre ao aos à às que
		qual quais quem como onde quando se me te lhe nos vos isso isto
		esse essa este esta aquele aquela meu minha seu sua ou mas mais
		the of and or to in on for with is are be by an at from this that
		ha tem ter ser sao foi era`) {
		stopwords[Fold(w)] = struct{}{}
	}
}

// IsStopword reports whether a folded token carries no content.
func IsStopword(tok string) bool {
	_, ok := stopwords[tok]
	return ok
}
