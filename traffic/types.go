// Package traffic is the simulation core: lanes with per-direction vehicle
// queues and space reservations, intersections that arbitrate right of way
// (priority rules or traffic lights), garages that spawn and remove vehicles,
// and the per-vehicle kinematics and crossing state machine.
//
// All entities live in a World arena and refer to each other by identifier.
// The World is advanced with Update(delta); it is safe to read snapshots from
// another goroutine, but the topology must be built before the first Update.
package traffic

import (
	"errors"
	"fmt"
)

// LaneID identifies a lane inside a World
type LaneID int

// CrossID identifies an intersection inside a World
type CrossID int

// VehicleID identifies a vehicle inside a World. IDs are never reused.
type VehicleID uint64

const (
	NoLane    LaneID    = -1
	NoCross   CrossID   = -1
	NoVehicle VehicleID = 0
)

// Direction is the travel direction along a lane. Forward runs from the
// lane's begin end to its end end.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// Opposite returns the other travel direction
func (d Direction) Opposite() Direction {
	if d == Forward {
		return Backward
	}
	return Forward
}

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// Topology errors. Everything else in the simulation is backpressure, not an error.
var (
	ErrZeroLength      = errors.New("lane has zero length")
	ErrUnknownCross    = errors.New("unknown cross")
	ErrUnknownLane     = errors.New("unknown lane")
	ErrNotIncident     = errors.New("lane does not touch cross")
	ErrInvalidTimings  = errors.New("invalid light timings")
	ErrInvalidGarage   = errors.New("invalid garage config")
	ErrBadPlacement    = errors.New("bad vehicle placement")
	ErrIsolatedCross   = errors.New("cross has no approaches")
	ErrInvalidCapacity = errors.New("allowed in-flight count must be positive")
)
