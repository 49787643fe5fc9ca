package replay

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// Similarity weights. Edit distance catches near-identical texts with
// small local changes; token containment catches texts that differ only
// by an extra qualifier ("San Francisco" against "San Francisco, CA")
// without penalizing the side that says less. The blend is compared
// against the matcher threshold.
const (
	editWeight        = 0.6
	containmentWeight = 0.4
)

// fieldScore scores two canonical field values in [0, 1].
func fieldScore(a, b string) float64 {
	if a == b {
		return 1.0
	}
	return editWeight*editSimilarity(a, b) + containmentWeight*tokenContainment(a, b)
}

// argumentScore averages fieldScore over the union of field names.
// A field missing on one side scores against the empty string, so extra
// or absent fields pull the total down instead of being ignored.
func argumentScore(a, b map[string]string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}

	union := make(map[string]struct{}, len(a)+len(b))
	for name := range a {
		union[name] = struct{}{}
	}
	for name := range b {
		union[name] = struct{}{}
	}

	var total float64
	for name := range union {
		total += fieldScore(a[name], b[name])
	}
	return total / float64(len(union))
}

// editSimilarity is 1 minus the normalized Levenshtein distance.
func editSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(longest)
}

// tokenContainment is the shared token count over the smaller token set,
// lowercased. Symmetric, and 1.0 whenever one side's vocabulary is a
// subset of the other's.
func tokenContainment(a, b string) float64 {
	ta, tb := tokenize(a), tokenize(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 1.0
	}
	if len(ta) == 0 || len(tb) == 0 {
		return 0.0
	}

	shared := 0
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			shared++
		}
	}
	return float64(shared) / float64(min(len(ta), len(tb)))
}

// tokenize splits on anything that is not a letter or digit.
func tokenize(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, tok := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		out[tok] = struct{}{}
	}
	return out
}
