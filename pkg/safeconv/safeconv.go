// Package safeconv provides integer conversions that panic instead of wrapping.
package safeconv

// MustIntToUint64 converts a non-negative int, such as a length or a count,
// to uint64. It panics on negative input.
func MustIntToUint64(v int) uint64 {
	if v < 0 {
		panic("safeconv: negative int to uint64 conversion")
	}

	return uint64(v)
}
