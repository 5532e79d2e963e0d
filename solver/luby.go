package solver

import "math"

// luby returns the x-th term (0-based) of the Luby restart sequence
// 1, 1, 2, 1, 1, 2, 4, ... scaled as a power of y.
func luby(y float64, x int) float64 {
	// Find the finite subsequence that contains index x, and the size of
	// that subsequence:
	size, seq := 1, 0
	for size < x+1 {
		seq++
		size = 2*size + 1
	}
	for size-1 != x {
		size = (size - 1) >> 1
		seq--
		x %= size
	}
	return math.Pow(y, float64(seq))
}
