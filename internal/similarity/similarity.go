// Package similarity provides the free-text similarity measures used by the
// duplicate checker and the approximate matching stage.
//
// Two measures are exposed:
//   - Jaccard: token-set similarity for judging whether two descriptions are
//     close enough to call a row a duplicate.
//   - SharesLongRun: a cheap contiguous-substring test for catching
//     abbreviated or reordered descriptions where token overlap is too strict
//     ("ALUGUEL JANEIRO" vs "ALUGUEL JAN").
//
// Both operate on already-normalized strings (see the normalize package);
// callers are responsible for normalizing first.
package similarity

import "strings"

// DefaultLongRunLength is the minimum shared substring length that counts as
// a "close enough" signal between two descriptions.
const DefaultLongRunLength = 5

// Jaccard returns the token-set similarity |A ∩ B| / |A ∪ B| of the two
// strings, splitting each on whitespace. Identical non-empty strings score
// 1.0. Two empty strings score 0.0: both fields being blank carries no
// information and must not produce a spurious duplicate match. A single
// empty side also scores 0.0.
func Jaccard(a, b string) float64 {
	if a == b {
		if a == "" {
			return 0.0
		}
		return 1.0
	}

	setA := tokenSet(a)
	setB := tokenSet(b)

	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}

	intersection := 0
	for tok := range setA {
		if setB[tok] {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

// SharesLongRun reports whether any contiguous substring of a with length at
// least minLen occurs inside b. Strings shorter than minLen can never share
// a qualifying run. minLen values below 1 are treated as 1.
func SharesLongRun(a, b string, minLen int) bool {
	if minLen < 1 {
		minLen = 1
	}

	if len(a) < minLen || len(b) < minLen {
		return false
	}

	for i := 0; i+minLen <= len(a); i++ {
		if strings.Contains(b, a[i:i+minLen]) {
			return true
		}
	}

	return false
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		set[tok] = true
	}
	return set
}
