package stream

// Ratio measures the similarity of two strings in [0, 1] as
// 2*M / (len(a)+len(b)), where M is the total length of the matching
// blocks found by recursive longest-common-substring alignment. Equal
// strings score 1; disjoint strings score 0.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchedLen(ra, rb)) / float64(total)
}

func matchedLen(a, b []rune) int {
	ai, bi, size := longestMatch(a, b)
	if size == 0 {
		return 0
	}
	return size +
		matchedLen(a[:ai], b[:bi]) +
		matchedLen(a[ai+size:], b[bi+size:])
}

// longestMatch finds the longest common substring via the classic
// rolling-row dynamic program.
func longestMatch(a, b []rune) (ai, bi, size int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > size {
					size = curr[j]
					ai = i - size
					bi = j - size
				}
			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
	}
	return ai, bi, size
}

// countWords counts ASCII whitespace-separated tokens, with each CJK
// ideograph counting as one word on its own.
func countWords(s string) int {
	words := 0
	inToken := false
	for _, r := range s {
		switch {
		case r >= 0x4E00 && r <= 0x9FFF:
			words++
			inToken = false
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			inToken = false
		default:
			if !inToken {
				words++
				inToken = true
			}
		}
	}
	return words
}
