package similarity

import "strings"

// Trigrams returns the distinct 3-rune grams of s. Every whitespace-separated
// word is padded with two leading spaces and one trailing space.
func Trigrams(s string) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(s)+2)
	out := make([]string, 0, len(s)+2)
	for _, w := range words {
		r := []rune("  " + w + " ")
		for i := 0; i+3 <= len(r); i++ {
			g := string(r[i : i+3])
			if _, ok := seen[g]; ok {
				continue
			}
			seen[g] = struct{}{}
			out = append(out, g)
		}
	}
	return out
}

func trigramSet(s string) map[string]struct{} {
	grams := Trigrams(s)
	set := make(map[string]struct{}, len(grams))
	for _, g := range grams {
		set[g] = struct{}{}
	}
	return set
}

// TrigramSimilarity returns the Jaccard similarity of the trigram sets of a and b.
func TrigramSimilarity(a, b string) float64 {
	return jaccard(trigramSet(a), b)
}

func jaccard(a map[string]struct{}, b string) float64 {
	grams := Trigrams(b)
	if len(a) == 0 || len(grams) == 0 {
		return 0
	}
	inter := 0
	for _, g := range grams {
		if _, ok := a[g]; ok {
			inter++
		}
	}
	return float64(inter) / float64(len(a)+len(grams)-inter)
}
