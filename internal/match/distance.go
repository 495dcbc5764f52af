package match

import "unicode/utf8"

// Distance returns the Levenshtein distance between a and b: the minimum
// number of single-rune insertions, deletions or substitutions turning one
// into the other.
func Distance(a, b string) int {
	ra, rb := []rune(a), []rune(b)

	// table[i][j] is the distance between ra[:i] and rb[:j].
	table := make([][]int, len(ra)+1)
	for i := range table {
		table[i] = make([]int, len(rb)+1)
		table[i][0] = i
	}
	for j := range table[0] {
		table[0][j] = j
	}

	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			table[i][j] = min(
				table[i][j-1]+1,
				table[i-1][j]+1,
				table[i-1][j-1]+cost,
			)
		}
	}
	return table[len(ra)][len(rb)]
}

// Similarity converts the edit distance into a percentage in [0, 100]
// relative to the longer string. Two empty strings are a perfect match.
func Similarity(a, b string) float64 {
	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if maxLen == 0 {
		return 100
	}
	return float64(maxLen-Distance(a, b)) / float64(maxLen) * 100
}
