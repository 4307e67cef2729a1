package random

import (
	"math/rand/v2"
)

// Password draws length characters from charset. Multi-byte characters in
// charset are kept whole. It returns "" for an empty charset or length < 1.
func Password(charset string, length int) string {
	symbols := []rune(charset)
	if length <= 0 || len(symbols) == 0 {
		return ""
	}

	result := make([]rune, length)
	for i := range result {
		result[i] = symbols[rand.IntN(len(symbols))]
	}
	return string(result)
}

// Index returns a uniform index in [0, n), or 0 when n is not positive.
func Index(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	return rand.Uint64N(n)
}
