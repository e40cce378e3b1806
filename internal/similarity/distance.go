package similarity

import "unicode/utf8"

// Levenshtein returns the rune-level edit distance between a and b.
func Levenshtein(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// EditRatio returns 1 - lev(a, b)/max(len(a), len(b)) in [0, 1].
func EditRatio(a []rune, b string) float64 {
	rb := []rune(b)
	longest := max(len(a), len(rb))
	if longest == 0 {
		return 1
	}
	return 1 - float64(Levenshtein(a, rb))/float64(longest)
}

// lengthBound is the best edit ratio two strings of lengths n and m can reach.
func lengthBound(n, m int) float64 {
	if n == 0 && m == 0 {
		return 1
	}
	return float64(min(n, m)) / float64(max(n, m))
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
