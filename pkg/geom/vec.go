package geom

import "math"

// Vec3 is a point or direction in world space. The ground plane is XZ, Y is up.
type Vec3 struct {
	X, Y, Z float64
}

// Up is the world up vector
var Up = Vec3{0, 1, 0}

// V returns a Vec3 from its components
func V(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Add returns a + b
func (a Vec3) Add(b Vec3) Vec3 {
	return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z}
}

// Sub returns a - b
func (a Vec3) Sub(b Vec3) Vec3 {
	return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

// Scale returns a * s
func (a Vec3) Scale(s float64) Vec3 {
	return Vec3{a.X * s, a.Y * s, a.Z * s}
}

// Length returns the euclidean length of a
func (a Vec3) Length() float64 {
	return math.Sqrt(a.X*a.X + a.Y*a.Y + a.Z*a.Z)
}

// Normalize returns a scaled to unit length. The zero vector is returned unchanged.
func (a Vec3) Normalize() Vec3 {
	l := a.Length()
	if l == 0 {
		return a
	}
	return a.Scale(1 / l)
}

// AngleXZ returns the heading of a on the ground plane in degrees, measured
// from +X towards +Z, in the range (-180, 180].
func (a Vec3) AngleXZ() float64 {
	return math.Atan2(a.Z, a.X) * 180 / math.Pi
}

// Dist returns the distance between b and e
func Dist(b, e Vec3) float64 {
	return e.Sub(b).Length()
}

// Lerp interpolates linearly between b (s=0) and e (s=1)
func Lerp(b, e Vec3, s float64) Vec3 {
	return b.Add(e.Sub(b).Scale(s))
}

// Cross returns the cross product u x v
func Cross(u, v Vec3) Vec3 {
	return Vec3{
		u.Y*v.Z - u.Z*v.Y,
		u.Z*v.X - u.X*v.Z,
		u.X*v.Y - u.Y*v.X,
	}
}
