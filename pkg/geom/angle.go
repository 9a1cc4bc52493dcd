package geom

import "math"

// NormalizeAngle wraps an angle in degrees into (-180, 180]
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 360)
	if a <= -180 {
		a += 360
	} else if a > 180 {
		a -= 360
	}
	return a
}

// AngleDiff returns the signed shortest rotation in degrees that turns b into e
func AngleDiff(b, e float64) float64 {
	return NormalizeAngle(e - b)
}

// LerpAngle interpolates between two headings along the shortest arc
func LerpAngle(a, b, s float64) float64 {
	return NormalizeAngle(a + AngleDiff(a, b)*s)
}

// RotateDirection returns -1, 0 or 1 depending on which way the shortest
// rotation from a to b goes. Differences below one degree count as straight on.
func RotateDirection(a, b float64) int {
	d := AngleDiff(a, b)
	switch {
	case d > 1:
		return 1
	case d < -1:
		return -1
	default:
		return 0
	}
}
