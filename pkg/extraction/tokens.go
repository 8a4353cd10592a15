package extraction

import (
	"strings"

	"github.com/orsinium-labs/stopwords"
)

// allCapsStopwords rejects ALL_CAPS tokens that are ordinary words. The
// stopword library is lowercase-keyed, so a dedicated list keeps the
// ALL_CAPS regex from promoting shouting prose to entities.
var allCapsStopwords = map[string]bool{
	"IF": true, "YOU": true, "THE": true, "WHEN": true, "AND": true,
	"OR": true, "NOT": true, "BUT": true, "FOR": true, "ALL": true,
	"ANY": true, "CAN": true, "DO": true, "DONT": true, "IS": true,
	"IT": true, "ITS": true, "NO": true, "OK": true, "SO": true,
	"TO": true, "USE": true, "VIA": true, "WAS": true, "WE": true,
	"WITH": true, "YES": true, "THIS": true, "THAT": true, "ONLY": true,
	"MUST": true, "NEVER": true, "ALWAYS": true, "TODO": true, "NOTE": true,
	"WARNING": true, "IMPORTANT": true, "README": true, "FIXME": true,
}

var englishStopwords = stopwords.MustGet("en")

// isStopword layers the robust English stopword list over the static
// ALL_CAPS set, the same two-tier check the candidate registry uses.
func isStopword(token string) bool {
	if allCapsStopwords[strings.ToUpper(token)] {
		return true
	}
	return englishStopwords.Contains(strings.ToLower(token))
}

// Tokens splits content into lowercased, stopword-filtered tokens for
// overlap scoring. Punctuation is stripped from token edges.
func Tokens(content string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, raw := range strings.Fields(content) {
		tok := strings.ToLower(strings.Trim(raw, ".,;:!?\"'()[]{}<>"))
		if len(tok) < 2 {
			continue
		}
		if englishStopwords.Contains(tok) {
			continue
		}
		out[tok] = struct{}{}
	}
	return out
}

// Overlap returns the Jaccard similarity of two token sets.
func Overlap(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// OverlapOfSmaller returns the intersection size divided by the smaller
// set's size, the causal-synthesis ratio.
func OverlapOfSmaller(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	smaller := len(a)
	if len(b) < smaller {
		smaller = len(b)
	}
	return float64(inter) / float64(smaller)
}
