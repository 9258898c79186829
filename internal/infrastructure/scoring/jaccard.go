package scoring

import "strings"

// Jaccard scores lexical overlap between whitespace-delimited, lower-cased
// token sets.
type Jaccard struct{}

func NewJaccard() Jaccard {
	return Jaccard{}
}

func (Jaccard) Score(query, content string) float64 {
	a := tokenSet(query)
	b := tokenSet(content)
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	intersection := 0
	for token := range small {
		if _, ok := large[token]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	out := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		out[f] = struct{}{}
	}
	return out
}
