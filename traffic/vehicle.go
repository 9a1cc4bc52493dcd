package traffic

import (
	"fmt"
	"math"
	"slices"

	"github.com/golangdaddy/trafficsim/models"
	"github.com/golangdaddy/trafficsim/pkg/geom"
)

// VehicleState is the crossing sub-state of a vehicle
type VehicleState int

const (
	Driving    VehicleState = iota // Following traffic on a lane
	Registered                     // Waiting at a cross for admission
	Changing                       // Admitted, rolling to the end of the lane
	Cornering                      // Inside the cross, turning into the next lane
)

func (s VehicleState) String() string {
	switch s {
	case Driving:
		return "driving"
	case Registered:
		return "registered"
	case Changing:
		return "changing"
	case Cornering:
		return "cornering"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// registerDistance is how close to the end of a lane a vehicle picks its
// turn and joins the waiting list of the cross
const registerDistance = 2.4

// Blinker is the turn indicator of a vehicle
type Blinker struct {
	Elapsed  float64
	Duration float64
	On       bool
	Side     int // -1 left, 1 right, 0 straight on
}

func (b *Blinker) update(delta float64) {
	b.Elapsed += delta
	if b.Elapsed > b.Duration {
		b.On = !b.On
		b.Elapsed = 0
	}
}

type vehicle struct {
	id    VehicleID
	kind  models.VehicleKind
	specs models.Specs

	xPos     float64
	velocity float64
	braking  bool
	state    VehicleState
	allowed  bool // Set by the cross when the vehicle may enter it

	lane  LaneID
	dir   Direction
	front VehicleID // Next vehicle ahead on the same lane
	back  VehicleID // Next vehicle behind on the same lane

	cross    CrossID // Cross the vehicle is negotiating
	nextLane LaneID
	nextDir  Direction
	arrival  int // Approach index the vehicle arrives on
	target   int // Approach index the vehicle leaves on

	blinker Blinker

	position     geom.Vec3
	heading      float64
	articulation float64

	cornerFrom   geom.Vec3
	cornerTo     geom.Vec3
	cornerBegRot float64
	cornerEndRot float64
	cornerLen    float64

	origin      LaneID // Garage lane that spawned the vehicle
	updatedTick uint64
}

func (v *vehicle) footprint() float64 {
	return v.specs.Footprint()
}

// updateVehicle advances one vehicle by one tick
func (w *World) updateVehicle(v *vehicle, delta float64) {
	if v.updatedTick == w.tick {
		return
	}
	v.updatedTick = w.tick

	v.blinker.update(delta)

	switch v.state {
	case Driving:
		w.drive(v, delta)
		w.maybeRegister(v)
	case Registered:
		w.drive(v, delta)
		w.tryEnterCross(v)
	case Changing:
		w.change(v, delta)
	case Cornering:
		w.corner(v, delta)
	}
}

// gap returns the distance to the obstacle ahead of v on its lane
func (w *World) gap(v *vehicle) float64 {
	lane := w.lanes[v.lane]
	if v.front != NoVehicle {
		f := w.vehicles[v.front]
		return f.xPos - v.xPos - f.specs.Length/2
	}

	g := lane.length - v.xPos
	if lane.isSink(v.dir) {
		g += sinkRunout(v.specs)
	}
	return g
}

func (w *World) drive(v *vehicle, delta float64) {
	lane := w.lanes[v.lane]

	v.velocity, v.braking = Step(v.velocity, w.gap(v), v.specs, delta)
	v.xPos += v.velocity * delta
	if v.xPos > lane.length {
		v.xPos = lane.length
	}

	v.position = lane.PositionAt(v.dir, v.xPos)
	v.heading = lane.Heading(v.dir)
}

func (w *World) maybeRegister(v *vehicle) {
	lane := w.lanes[v.lane]
	if v.cross != NoCross || lane.length-v.xPos >= registerDistance {
		return
	}

	crossID := lane.ExitCross(v.dir)
	if crossID == NoCross {
		return
	}
	c := w.crosses[crossID]

	arrival := c.approachIndex(v.lane, v.dir)
	if arrival < 0 {
		// AddLane always registers the approach
		panic(fmt.Sprintf("lane %d is not an approach of cross %d", v.lane, crossID))
	}
	target := w.chooseTurn(c, arrival)

	next := c.approaches[target]
	v.cross = crossID
	v.arrival = arrival
	v.target = target
	v.nextLane = next.Lane
	v.nextDir = next.Arrival.Opposite()

	v.blinker.Side = 0
	if len(c.approaches) != 2 {
		v.blinker.Side = geom.RotateDirection(lane.Heading(v.dir), w.lanes[v.nextLane].Heading(v.nextDir))
	}

	c.approaches[arrival].Waiting = append(c.approaches[arrival].Waiting, v.id)
	v.state = Registered

	w.emit(Event{Kind: EventRegistered, Vehicle: v.id, VehicleKind: v.kind, Lane: v.lane, Cross: crossID})
}

// chooseTurn picks the approach a vehicle arriving on approach arrival leaves on
func (w *World) chooseTurn(c *Cross, arrival int) int {
	n := len(c.approaches)

	if w.chooser != nil {
		target := w.chooser(c.ID, arrival, n)
		if target < 0 || target >= n {
			panic(fmt.Sprintf("turn chooser picked approach %d of %d at cross %d", target, n, c.ID))
		}
		return target
	}

	switch n {
	case 1:
		return arrival
	case 2:
		return 1 - arrival
	}

	// Uniform over the other approaches
	target := w.rng.IntN(n - 1)
	if target >= arrival {
		target++
	}
	return target
}

func (w *World) tryEnterCross(v *vehicle) {
	if !v.allowed {
		return
	}

	next := w.lanes[v.nextLane]
	if next.FreeSpace(v.nextDir) <= v.footprint() {
		return
	}

	next.Reserve(v.nextDir, v.footprint())
	v.velocity = v.specs.CornerVelocity
	v.braking = false
	v.state = Changing
}

// change rolls an admitted vehicle over the rest of its lane into the cross
func (w *World) change(v *vehicle, delta float64) {
	lane := w.lanes[v.lane]

	v.velocity = v.specs.CornerVelocity
	if v.front != NoVehicle {
		// never catch up with an admitted vehicle ahead
		target, _ := Step(v.velocity, w.gap(v), v.specs, delta)
		v.velocity = min(v.velocity, target)
	}
	v.xPos += v.velocity * delta

	if v.xPos < lane.length {
		v.position = lane.PositionAt(v.dir, v.xPos)
		return
	}

	w.detach(v)

	next := w.lanes[v.nextLane]
	v.xPos = 0
	v.cornerFrom = lane.ExitJoint(v.dir)
	v.cornerTo = next.EntryJoint(v.nextDir)
	v.cornerBegRot = lane.Heading(v.dir)
	v.cornerEndRot = next.Heading(v.nextDir)
	v.cornerLen = geom.Dist(v.cornerFrom, v.cornerTo)
	v.position = v.cornerFrom
	v.state = Cornering

	w.cornering = append(w.cornering, v.id)
}

// detach removes v from its lane queue and relinks its neighbours
func (w *World) detach(v *vehicle) {
	w.lanes[v.lane].remove(v.dir, v.id, v.footprint())

	if v.front != NoVehicle {
		w.vehicles[v.front].back = v.back
	}
	if v.back != NoVehicle {
		w.vehicles[v.back].front = v.front
	}
	v.front = NoVehicle
	v.back = NoVehicle
}

func (w *World) corner(v *vehicle, delta float64) {
	v.velocity = v.specs.CornerVelocity
	v.xPos += v.velocity * delta

	s := 1.0
	if v.cornerLen > 0 {
		s = min(v.xPos/v.cornerLen, 1)
	}

	v.position = geom.Lerp(v.cornerFrom, v.cornerTo, s)
	v.heading = geom.LerpAngle(v.cornerBegRot, v.cornerEndRot, s)
	if v.kind == models.KindBus {
		v.articulation = articulation(v.cornerBegRot, v.cornerEndRot, s)
	}

	if s >= 1 && w.entryClear(v) {
		w.enterLane(v)
	}
}

// articulation is the bend between the two halves of a bus, peaking halfway
// through a turn
func articulation(begRot, endRot, s float64) float64 {
	peak := geom.AngleDiff(begRot, endRot) / 4
	return geom.LerpAngle(0, peak, 1-math.Abs(2*s-1))
}

// entryClear reports whether the last vehicle on the next lane has moved far
// enough in for v to join behind it
func (w *World) entryClear(v *vehicle) bool {
	tailID := w.lanes[v.nextLane].Tail(v.nextDir)
	if tailID == NoVehicle {
		return true
	}
	tail := w.vehicles[tailID]
	return tail.xPos >= tail.specs.Length/2+v.specs.Length/2
}

func (w *World) enterLane(v *vehicle) {
	next := w.lanes[v.nextLane]

	next.Release(v.nextDir, v.footprint())
	w.crosses[v.cross].leave()

	tail := next.Tail(v.nextDir)
	next.push(v.nextDir, v.id, v.footprint())
	v.front = tail
	v.back = NoVehicle
	if tail != NoVehicle {
		w.vehicles[tail].back = v.id
	}

	crossID := v.cross
	w.removeCornering(v.id)

	v.lane = v.nextLane
	v.dir = v.nextDir
	v.xPos = 0
	v.velocity = v.specs.CornerVelocity
	v.cross = NoCross
	v.nextLane = NoLane
	v.allowed = false
	v.blinker.On = false
	v.blinker.Side = 0
	v.articulation = 0
	v.position = next.EntryJoint(v.dir)
	v.heading = next.Heading(v.dir)
	v.state = Driving

	w.emit(Event{Kind: EventEnteredLane, Vehicle: v.id, VehicleKind: v.kind, Lane: v.lane, Cross: crossID})
}

func (w *World) removeCornering(id VehicleID) {
	if i := slices.Index(w.cornering, id); i >= 0 {
		w.cornering = slices.Delete(w.cornering, i, i+1)
	}
}
