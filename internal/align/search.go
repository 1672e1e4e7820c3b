package align

// FindSpan returns the start of the leftmost occurrence of needle in
// haystack, or -1. An empty needle never matches.
func FindSpan(haystack, needle []int32) int {
	if len(needle) == 0 {
		return -1
	}

	for start := 0; start+len(needle) <= len(haystack); start++ {
		if matchAt(haystack, needle, start) {
			return start
		}
	}

	return -1
}

func matchAt(haystack, needle []int32, start int) bool {
	for k, id := range needle {
		if haystack[start+k] != id {
			return false
		}
	}
	return true
}
