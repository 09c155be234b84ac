// Package numeric provides small shared numeric helpers.
package numeric

// NextPowerOf2 returns the smallest power of two >= n.
func NextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}

	p := 1
	for p < n {
		p <<= 1
	}

	return p
}
