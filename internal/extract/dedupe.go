package extract

import "strings"

// Near-duplicate detection defaults. Two candidates collapse when either
// normalized title is a prefix of the other within the window, or when
// their edit-distance similarity exceeds the threshold.
const (
	DefaultSimilarityThreshold = 0.8
	DefaultPrefixWindow        = 18
)

// Dedupe removes near-duplicate candidates, first occurrence wins. The
// dual rule catches both "same task restated with extra words"
// (prefix containment) and "same task reworded" (edit-distance
// similarity).
func Dedupe(candidates []TaskCandidate, threshold float64, window int) []TaskCandidate {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	if window <= 0 {
		window = DefaultPrefixWindow
	}

	var kept []TaskCandidate
	var keys []string
	for _, c := range candidates {
		key := normalizeForCompare(c.Title)
		if key == "" {
			continue
		}
		dup := false
		for _, seen := range keys {
			if isNearDuplicate(seen, key, threshold, window) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		kept = append(kept, c)
		keys = append(keys, key)
	}
	return kept
}

func isNearDuplicate(a, b string, threshold float64, window int) bool {
	if a == b {
		return true
	}
	if prefixContained(a, b, window) {
		return true
	}
	return similarity(a, b) > threshold
}

// normalizeForCompare lowercases and strips punctuation so that
// restatements compare equal.
func normalizeForCompare(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// prefixContained reports whether the shorter of a and b (capped at
// window characters) is a prefix of the other.
func prefixContained(a, b string, window int) bool {
	short, long := a, b
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) < 4 {
		return false
	}
	if len(short) > window {
		short = short[:window]
	}
	return strings.HasPrefix(long, short)
}

// similarity is 1 - editDistance/maxLen.
func similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	longer := len(a)
	if len(b) > longer {
		longer = len(b)
	}
	if longer == 0 {
		return 1
	}
	return 1 - float64(editDistance(a, b))/float64(longer)
}

// editDistance is the classic Levenshtein distance (single-character
// insertion, deletion, substitution), computed with a rolling row.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
