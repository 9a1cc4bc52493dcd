package traffic

import "github.com/golangdaddy/trafficsim/models"

// brakingThreshold is the per-second velocity change below which a vehicle
// shows brake lights
const brakingThreshold = -0.3

// TargetVelocity is the speed at which a vehicle can still stop within
// specs.StopTime and keep specs.RemainDst to an obstacle gap ahead. The same
// formula applies whether the obstacle is closing in or pulling away.
func TargetVelocity(gap float64, s models.Specs) float64 {
	v := gap - s.Length/2 - s.RemainDst - s.Acceleration*s.StopTime*s.StopTime/2
	return v / s.StopTime
}

// Step computes the velocity for this tick from the previous velocity and the
// current gap, clamped to [0, MaxV]. braking reports a hard deceleration or a
// stop.
func Step(prev, gap float64, s models.Specs, delta float64) (v float64, braking bool) {
	v = TargetVelocity(gap, s)

	if delta > 0 && (v-prev)/delta < brakingThreshold {
		braking = true
	}

	if v < s.MinV {
		v = 0
		braking = true
	}

	if v > s.MaxV {
		v = s.MaxV
	}

	return v, braking
}

// sinkRunout is added to the gap of a vehicle heading into a garage so it
// rolls all the way onto the terminal end instead of stopping short of it
func sinkRunout(s models.Specs) float64 {
	return s.Length/2 + s.RemainDst + s.Acceleration*s.StopTime*s.StopTime/2 + s.Length
}
