package query

import (
	"sort"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// similarityThreshold is the minimum score for a fuzzy category match
const similarityThreshold = 0.8

// Similarity scores how close two strings are in [0, 1]. The concrete
// algorithm is an implementation detail; only the threshold and the
// best-single-match contract are fixed.
type Similarity func(a, b string) float64

// diceSimilarity is the default metric (bigram Sørensen–Dice)
func diceSimilarity(a, b string) float64 {
	return strutil.Similarity(a, b, metrics.NewSorensenDice())
}

// closestCategory resolves a phrase to a taxonomy code: exact lookup first,
// then the single best fuzzy match over the table keys. Keys are scanned in
// sorted order so ties resolve deterministically.
func closestCategory(phrase string, sim Similarity) (string, bool) {
	if code, ok := CategoryMap[phrase]; ok {
		return code, true
	}

	keys := make([]string, 0, len(CategoryMap))
	for k := range CategoryMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	bestKey := ""
	bestScore := 0.0
	for _, k := range keys {
		if score := sim(phrase, k); score >= similarityThreshold && score > bestScore {
			bestKey = k
			bestScore = score
		}
	}

	if bestKey == "" {
		return "", false
	}
	return CategoryMap[bestKey], true
}
