package math32

// Min returns the minimum of two values.
func Min[T float32 | int32 | int](a, b T) T {
	if a < b {
		return a
	}
	return b
}

// Max returns the maximum of two values.
func Max[T float32 | int32 | int](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// Abs returns the absolute value of a float32.
func Abs(a float32) float32 {
	if a < 0 {
		return -a
	}
	return a
}

// CeilDiv returns a/b rounded up for positive b.
func CeilDiv(a, b int) int {
	return (a + b - 1) / b
}
