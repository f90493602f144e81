// Package convert provides overflow-safe integer conversions for values
// crossing driver boundaries.
package convert

import "math"

// IntToInt32Clamped converts an int to int32, clamping at the bounds.
func IntToInt32Clamped(v int) int32 {
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	if v < math.MinInt32 {
		return math.MinInt32
	}
	return int32(v)
}

// Int64ToIntClamped converts a stored int64 to int, clamping on 32-bit
// platforms.
func Int64ToIntClamped(v int64) int {
	if v > int64(math.MaxInt) {
		return math.MaxInt
	}
	if v < int64(math.MinInt) {
		return math.MinInt
	}
	return int(v)
}

// BoolToInt64 encodes a flag for INTEGER columns shared by both drivers.
func BoolToInt64(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
