package utils

import "math/bits"

// RoundUp2 - Returns the nearest power of two that is equal to or bigger than a, values below 1 give 1
func RoundUp2(a int) int {
	if a <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(a-1))
}

// IsPowerOf2 - Returns true if a is a power of two
func IsPowerOf2(a int) bool {
	return a > 0 && a&(a-1) == 0
}
