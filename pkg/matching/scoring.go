package matching

import (
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

const (
	// winklerPrefixCap is the maximum common prefix length rewarded by the Winkler boost
	winklerPrefixCap = 4
	// winklerScaling is the Winkler prefix scaling factor
	winklerScaling = 0.1
)

// Similarity calculates the Jaro-Winkler similarity between two strings after
// normalizing both. Returns a value between 0.0 (no similarity) and 1.0 (equal).
// An empty input never matches, even another empty input.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0.0
	}

	a = normalizers.Normalize(a)
	b = normalizers.Normalize(b)
	if a == b {
		return 1.0
	}

	score := jaro(a, b)

	prefixLen := 0
	for i := 0; i < len(a) && i < len(b) && i < winklerPrefixCap; i++ {
		if a[i] != b[i] {
			break
		}
		prefixLen++
	}

	return score + float64(prefixLen)*winklerScaling*(1.0-score)
}

// jaro calculates the Jaro similarity of two normalized strings. Normalized
// strings are ASCII-only, so byte indexing is rune indexing.
func jaro(a, b string) float64 {
	// The window is not clamped: for single-character inputs it is negative and
	// nothing can match.
	matchWindow := max(len(a), len(b))/2 - 1

	aMatches := make([]bool, len(a))
	bMatches := make([]bool, len(b))

	matches := 0
	for i := 0; i < len(a); i++ {
		start := max(0, i-matchWindow)
		end := min(len(b), i+matchWindow+1)

		for j := start; j < end; j++ {
			if bMatches[j] || a[i] != b[j] {
				continue
			}
			aMatches[i] = true
			bMatches[j] = true
			matches++
			break
		}
	}

	if matches == 0 {
		return 0.0
	}

	outOfOrder := 0
	k := 0
	for i := 0; i < len(a); i++ {
		if !aMatches[i] {
			continue
		}
		for !bMatches[k] {
			k++
		}
		if a[i] != b[k] {
			outOfOrder++
		}
		k++
	}

	m := float64(matches)
	t := float64(outOfOrder) / 2

	return (m/float64(len(a)) + m/float64(len(b)) + (m-t)/m) / 3
}
