package traffic

import (
	"fmt"
	"slices"

	"github.com/golangdaddy/trafficsim/pkg/geom"
)

// LaneKind tells plain streets apart from garage lanes
type LaneKind int

const (
	LaneStreet LaneKind = iota
	LaneGarage
)

func (k LaneKind) String() string {
	switch k {
	case LaneStreet:
		return "street"
	case LaneGarage:
		return "garage"
	default:
		return fmt.Sprintf("lanekind(%d)", int(k))
	}
}

// jointOffset moves each travel direction to its own side of the lane centre line
const jointOffset = 0.06

// minLaneLength rejects degenerate geometry at construction time
const minLaneLength = 1e-6

// Lane is a two-way road segment. Each travel direction keeps its own FIFO
// queue of vehicles (front of the queue = furthest along) and its own
// reservation counter for vehicles that are about to enter.
type Lane struct {
	ID   LaneID
	Name string
	Kind LaneKind

	begin      geom.Vec3 // World position of the begin end
	end        geom.Vec3 // World position of the end end
	beginCross CrossID   // Cross at the begin end, NoCross for an open or garage end
	endCross   CrossID   // Cross at the end end
	length     float64
	direction  geom.Vec3 // Unit vector from begin to end
	normal     geom.Vec3 // Unit vector to the right of the forward direction

	queues       [2][]VehicleID
	occupied     [2]float64 // Sum of footprints of queued vehicles
	reserved     [2]float64 // Sum of footprints claimed by vehicles about to enter
	reservations [2]int     // Number of outstanding reservations

	garage *Garage // Set for garage lanes
}

func newLane(id LaneID, name string, kind LaneKind, begin, end geom.Vec3, beginCross, endCross CrossID) (*Lane, error) {
	length := geom.Dist(begin, end)
	if length < minLaneLength {
		return nil, fmt.Errorf("lane %q: %w", name, ErrZeroLength)
	}

	direction := end.Sub(begin).Normalize()

	return &Lane{
		ID:         id,
		Name:       name,
		Kind:       kind,
		begin:      begin,
		end:        end,
		beginCross: beginCross,
		endCross:   endCross,
		length:     length,
		direction:  direction,
		normal:     geom.Cross(direction, geom.Up).Normalize(),
	}, nil
}

// Length returns the geometric length of the lane
func (l *Lane) Length() float64 {
	return l.length
}

// FreeSpace returns the lane length not yet claimed in direction dir by
// queued vehicles or by reservations
func (l *Lane) FreeSpace(dir Direction) float64 {
	return l.length - l.reserved[dir] - l.occupied[dir]
}

// Reserved returns the space currently reserved in direction dir
func (l *Lane) Reserved(dir Direction) float64 {
	return l.reserved[dir]
}

// Reserve claims amount of space for a vehicle that is about to enter
func (l *Lane) Reserve(dir Direction, amount float64) {
	l.reserved[dir] += amount
	l.reservations[dir]++
}

// Release gives back a reservation made with Reserve
func (l *Lane) Release(dir Direction, amount float64) {
	l.reservations[dir]--
	l.reserved[dir] -= amount
	if l.reservations[dir] <= 0 {
		// drop rounding residue once nothing is reserved
		l.reservations[dir] = 0
		l.reserved[dir] = 0
	} else if l.reserved[dir] < 0 {
		l.reserved[dir] = 0
	}
}

// Queue returns a copy of the queue for direction dir, front first
func (l *Lane) Queue(dir Direction) []VehicleID {
	return slices.Clone(l.queues[dir])
}

// Head returns the vehicle furthest along in direction dir
func (l *Lane) Head(dir Direction) VehicleID {
	if len(l.queues[dir]) == 0 {
		return NoVehicle
	}
	return l.queues[dir][0]
}

// Tail returns the vehicle that entered last in direction dir
func (l *Lane) Tail(dir Direction) VehicleID {
	q := l.queues[dir]
	if len(q) == 0 {
		return NoVehicle
	}
	return q[len(q)-1]
}

func (l *Lane) push(dir Direction, id VehicleID, footprint float64) {
	l.queues[dir] = append(l.queues[dir], id)
	l.occupied[dir] += footprint
}

func (l *Lane) remove(dir Direction, id VehicleID, footprint float64) bool {
	i := slices.Index(l.queues[dir], id)
	if i < 0 {
		return false
	}
	l.queues[dir] = slices.Delete(l.queues[dir], i, i+1)
	l.occupied[dir] -= footprint
	if len(l.queues[dir]) == 0 || l.occupied[dir] < 0 {
		l.occupied[dir] = 0
	}
	return true
}

// ExitCross returns the cross a vehicle travelling in dir drives into
func (l *Lane) ExitCross(dir Direction) CrossID {
	if dir == Forward {
		return l.endCross
	}
	return l.beginCross
}

// EntryCross returns the cross a vehicle travelling in dir came from
func (l *Lane) EntryCross(dir Direction) CrossID {
	return l.ExitCross(dir.Opposite())
}

// isSink reports whether dir leads into the synthetic end of a garage lane
func (l *Lane) isSink(dir Direction) bool {
	return l.Kind == LaneGarage && dir == Backward
}

func (l *Lane) side(dir Direction) geom.Vec3 {
	if dir == Forward {
		return l.normal.Scale(jointOffset)
	}
	return l.normal.Scale(-jointOffset)
}

// EntryJoint is where a vehicle travelling in dir enters the lane
func (l *Lane) EntryJoint(dir Direction) geom.Vec3 {
	if dir == Forward {
		return l.begin.Add(l.side(dir))
	}
	return l.end.Add(l.side(dir))
}

// ExitJoint is where a vehicle travelling in dir leaves the lane
func (l *Lane) ExitJoint(dir Direction) geom.Vec3 {
	if dir == Forward {
		return l.end.Add(l.side(dir))
	}
	return l.begin.Add(l.side(dir))
}

// PositionAt returns the world position at progress x along dir
func (l *Lane) PositionAt(dir Direction, x float64) geom.Vec3 {
	s := x / l.length
	if s > 1 {
		s = 1
	} else if s < 0 {
		s = 0
	}
	return geom.Lerp(l.EntryJoint(dir), l.ExitJoint(dir), s)
}

// Heading returns the travel heading in degrees for direction dir
func (l *Lane) Heading(dir Direction) float64 {
	h := l.direction.AngleXZ()
	if dir == Backward {
		h = geom.NormalizeAngle(h + 180)
	}
	return h
}
