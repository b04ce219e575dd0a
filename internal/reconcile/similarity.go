package reconcile

import (
	"strings"
	"unicode"
)

// Tokenize splits s on Unicode whitespace, '-' and '/' and returns the set of
// lower-cased non-empty tokens.
func Tokenize(s string) map[string]struct{} {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '/' || unicode.IsSpace(r)
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[strings.ToLower(f)] = struct{}{}
	}
	return set
}

// Jaccard returns |a ∩ b| / |a ∪ b|. Two empty sets are identical, so the
// result is 1.0.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// Similarity is the Jaccard index of the token sets of two descriptions.
func Similarity(a, b string) float64 {
	return Jaccard(Tokenize(a), Tokenize(b))
}
