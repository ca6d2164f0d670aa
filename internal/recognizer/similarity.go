package recognizer

// levenshteinDistance computes the edit distance between two strings
// using the two-row dynamic programming formulation.
func levenshteinDistance(s1, s2 string) int {
	r1, r2 := []rune(s1), []rune(s2)
	if len(r1) < len(r2) {
		r1, r2 = r2, r1
	}
	if len(r2) == 0 {
		return len(r1)
	}

	previous := make([]int, len(r2)+1)
	current := make([]int, len(r2)+1)
	for j := range previous {
		previous[j] = j
	}

	for i, c1 := range r1 {
		current[0] = i + 1
		for j, c2 := range r2 {
			insertion := previous[j+1] + 1
			deletion := current[j] + 1
			substitution := previous[j]
			if c1 != c2 {
				substitution++
			}
			current[j+1] = min3(insertion, deletion, substitution)
		}
		previous, current = current, previous
	}

	return previous[len(r2)]
}

// textSimilarity returns the normalized edit-distance similarity
// 1 - distance/maxLen, in [0,1]. Two empty strings are identical.
func textSimilarity(text1, text2 string) float64 {
	if text1 == text2 {
		return 1.0
	}

	maxLen := len([]rune(text1))
	if l := len([]rune(text2)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1.0
	}

	distance := levenshteinDistance(text1, text2)
	return 1.0 - float64(distance)/float64(maxLen)
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
