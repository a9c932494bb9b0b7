// Package fuzzy implements the approximate word matcher used by the search filter.
//
// The matcher is a greedy subsequence scan with a mismatch budget, not an edit
// distance. It tolerates extra characters in the text and can accept some
// non-intuitive matches; reordered letters are rejected.
package fuzzy

import "strings"

// DefaultWordRatio is the share of query words that must match for a query to pass.
const DefaultWordRatio = 0.7

// Budget returns the number of mismatched characters tolerated for a pattern of n runes.
func Budget(n int) int {
	return max(1, n/3)
}

// Match reports whether pattern approximately occurs in text. Both are lowercased.
// An empty pattern always matches.
func Match(pattern, text string) bool {
	p := []rune(strings.ToLower(pattern))
	if len(p) == 0 {
		return true
	}
	t := []rune(strings.ToLower(text))
	budget := Budget(len(p))

	for start := range t {
		if scan(p, t[start:], budget) {
			return true
		}
	}
	return false
}

// scan consumes p in order from the head of t. Each text rune that does not
// advance the pattern costs one mismatch.
func scan(p, t []rune, budget int) bool {
	pi, misses := 0, 0
	for _, r := range t {
		if r == p[pi] {
			pi++
			if pi == len(p) {
				return true
			}
			continue
		}
		misses++
		if misses > budget {
			return false
		}
	}
	return false
}

// MatchWords splits query on whitespace and reports whether at least ratio of
// its words fuzzy-match text. A query without words matches. A ratio <= 0 uses
// DefaultWordRatio.
func MatchWords(query, text string, ratio float64) bool {
	words := strings.Fields(query)
	if len(words) == 0 {
		return true
	}
	if ratio <= 0 {
		ratio = DefaultWordRatio
	}
	lower := strings.ToLower(text)

	matched := 0
	for _, w := range words {
		if Match(w, lower) {
			matched++
		}
	}
	return float64(matched) >= ratio*float64(len(words))
}
