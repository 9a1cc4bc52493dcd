package models

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
)

// VehicleKind selects the kinematic profile of a vehicle
type VehicleKind int

const (
	KindCar VehicleKind = iota
	KindBus
)

// String returns the lower-case name of the kind
func (k VehicleKind) String() string {
	switch k {
	case KindCar:
		return "car"
	case KindBus:
		return "bus"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseVehicleKind maps "car" or "bus" (case-insensitive) to a VehicleKind
func ParseVehicleKind(s string) (VehicleKind, error) {
	switch strings.ToLower(s) {
	case "car":
		return KindCar, nil
	case "bus":
		return KindBus, nil
	}
	return 0, fmt.Errorf("unknown vehicle kind %q", s)
}

// Specs are the kinematic parameters of a vehicle. They are fixed once the
// vehicle is spawned.
type Specs struct {
	MaxV           float64 // Top speed in length units per second
	MinV           float64 // Speeds below this count as stopped
	CornerVelocity float64 // Speed while crossing an intersection
	StopTime       float64 // Horizon over which the vehicle must be able to stop
	Acceleration   float64
	Length         float64
	RemainDst      float64 // Minimum gap kept to the obstacle ahead
}

// Footprint is the lane space a vehicle claims: its length plus its safety gap
func (s Specs) Footprint() float64 {
	return s.Length + s.RemainDst
}

// Validate checks that the specs can drive the kinematics model
func (s Specs) Validate() error {
	var errs []error
	if s.MaxV < 0 {
		errs = append(errs, errors.New("maxV must not be negative"))
	}
	if s.MinV < 0 {
		errs = append(errs, errors.New("minV must not be negative"))
	}
	if s.CornerVelocity <= 0 {
		errs = append(errs, errors.New("cornerVelocity must be positive"))
	}
	if s.StopTime <= 0 {
		errs = append(errs, errors.New("stopTime must be positive"))
	}
	if s.Length <= 0 {
		errs = append(errs, errors.New("length must be positive"))
	}
	if s.RemainDst < 0 {
		errs = append(errs, errors.New("remainDst must not be negative"))
	}
	return errors.Join(errs...)
}

// NewSpecs draws randomized specs for the given kind
func NewSpecs(kind VehicleKind, r *rand.Rand) Specs {
	s := Specs{
		MaxV:           randRange(r, 1, 1.5),
		MinV:           randRange(r, 0.02, 0.08),
		CornerVelocity: 1,
		StopTime:       randRange(r, 0.5, 0.8),
		Acceleration:   randRange(r, 0.1, 0.2),
		Length:         0.2,
		RemainDst:      randRange(r, 0.06, 0.08),
	}

	if kind == KindBus {
		// Buses are longer, slower and keep a bigger gap
		s.MaxV = randRange(r, 0.8, 1.1)
		s.Length = 0.66
		s.RemainDst = randRange(r, 0.14, 0.15)
	}

	// Never corner faster than the vehicle may drive
	if s.CornerVelocity > s.MaxV {
		s.CornerVelocity = s.MaxV
	}

	return s
}

// BlinkDuration draws the on/off period of a vehicle's turn indicator
func BlinkDuration(r *rand.Rand) float64 {
	return randRange(r, 0.45, 0.55)
}

func randRange(r *rand.Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}
