package usecase

// Similarity returns 1 - levenshtein(a', b') / max(len(a'), len(b')) over the
// canonical forms a' and b', in [0,1]. Two names with the same canonical form score
// 1.0, including two empty names; callers must not treat that case as a real match.
func Similarity(a, b string) float64 {
	return canonicalSimilarity(Normalize(a), Normalize(b))
}

// canonicalSimilarity is Similarity for strings that are already canonical
func canonicalSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}

	r1 := []rune(a)
	r2 := []rune(b)
	longest := max(len(r1), len(r2))

	return 1.0 - float64(levenshteinDistance(r1, r2))/float64(longest)
}

// levenshteinDistance calculates the edit distance between two rune slices
func levenshteinDistance(r1, r2 []rune) int {
	m := len(r1)
	n := len(r2)
	if m == 0 {
		return n
	}
	if n == 0 {
		return m
	}

	// Use two rows instead of full matrix for space efficiency
	prev := make([]int, n+1)
	curr := make([]int, n+1)

	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}
