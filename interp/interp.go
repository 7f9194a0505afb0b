// Package interp provides linear interpolation helpers used by the speed
// profile package.
package interp

// Lerp linearly interpolates the value at x0 between the two knots
// (x1, y1) and (x2, y2). x1 and x2 need not be ordered; if x1 == x2 the
// value y1 is returned.
func Lerp(x1, y1, x2, y2, x0 float64) float64 {
	if x2 == x1 {
		return y1
	}
	t := (x0 - x1) / (x2 - x1)
	return y1 + t*(y2-y1)
}

// Slope returns the slope of the line through (x1, y1) and (x2, y2).
// It returns 0 if x1 == x2.
func Slope(x1, y1, x2, y2 float64) float64 {
	if x2 == x1 {
		return 0
	}
	return (y2 - y1) / (x2 - x1)
}
