package scoring

import (
	"github.com/pmezard/go-difflib/difflib"
)

const DefaultSimilarityThreshold = 0.8

// Ratio is the longest-matching-blocks similarity 2*M/T over the characters of a and b.
func Ratio(a, b string) float64 {
	return difflib.NewMatcher(chars(a), chars(b)).Ratio()
}

func IsSimilar(a, b string, threshold float64) bool {
	return Ratio(a, b) >= threshold
}

// FirstSimilar returns the index of the first candidate similar to code, or -1.
func FirstSimilar(code string, candidates []string, threshold float64) int {
	for i, c := range candidates {
		if IsSimilar(code, c, threshold) {
			return i
		}
	}
	return -1
}

func chars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
