package entities

import "strings"

// DescriptionWords splits a task description into lowercase words for
// fuzzy capability matching.
func DescriptionWords(description string) []string {
	fields := strings.FieldsFunc(description, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('A' <= r && r <= 'Z') && !('0' <= r && r <= '9')
	})
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		if f == "" {
			continue
		}
		words = append(words, strings.ToLower(f))
	}
	return words
}

// StringRatio computes a similarity ratio in [0,1] between two strings,
// equivalent in spirit to Python's difflib.SequenceMatcher.ratio(): twice
// the total length of matching blocks divided by the combined length of
// both strings. No corpus dependency implements this specific algorithm,
// so it is hand-rolled here (see DESIGN.md).
func StringRatio(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == b {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	matches := matchingBlockLength(a, b)
	return 2.0 * float64(matches) / float64(len(a)+len(b))
}

// matchingBlockLength sums the lengths of non-overlapping matching
// blocks found greedily by longest-common-substring, recursing on the
// left/right remainders — the same recursive strategy
// SequenceMatcher.get_matching_blocks uses.
func matchingBlockLength(a, b string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	aStart, bStart, length := longestCommonSubstring(a, b)
	if length == 0 {
		return 0
	}
	total := length
	total += matchingBlockLength(a[:aStart], b[:bStart])
	total += matchingBlockLength(a[aStart+length:], b[bStart+length:])
	return total
}

func longestCommonSubstring(a, b string) (aStart, bStart, length int) {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	best := 0
	bestA, bestB := 0, 0
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > best {
					best = curr[j]
					bestA = i - best
					bestB = j - best
				}
			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
		for j := range curr {
			curr[j] = 0
		}
	}
	return bestA, bestB, best
}
