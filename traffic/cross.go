package traffic

import (
	"fmt"

	"github.com/golangdaddy/trafficsim/pkg/geom"
)

// CrossKind selects the admission policy of a cross
type CrossKind int

const (
	Unsignalled CrossKind = iota
	Signalled
)

func (k CrossKind) String() string {
	switch k {
	case Unsignalled:
		return "unsignalled"
	case Signalled:
		return "lights"
	default:
		return fmt.Sprintf("crosskind(%d)", int(k))
	}
}

// Decision is the verdict of the admission policy for one approach
type Decision int

const (
	Skip  Decision = iota // Nothing waiting, or the approach is not served this tick
	Deny                  // Must yield to conflicting traffic
	Admit                 // Head of the waiting list may go, capacity permitting
)

func (d Decision) String() string {
	switch d {
	case Skip:
		return "skip"
	case Deny:
		return "deny"
	case Admit:
		return "admit"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// DefaultAllowedInFlight is how many vehicles may be inside a cross at once
const DefaultAllowedInFlight = 2

// crossRadius is how far street ends stop short of a cross centre
const crossRadius = 0.3

// Approach is one lane touching a cross
type Approach struct {
	Lane    LaneID
	Arrival Direction   // Travel direction that arrives at the cross
	Waiting []VehicleID // Registered vehicles in arrival order
	Yield   []bool      // Yield[j] is set when this approach gives way to approach j
}

// Cross is an intersection. Without lights it admits waiting vehicles by
// yield rules, or round robin when no rule was ever set.
type Cross struct {
	ID   CrossID
	Name string
	Kind CrossKind
	Pos  geom.Vec3

	approaches      []Approach
	allowedInFlight int
	inFlight        int
	configured      bool // Yield rules were assigned
	cursor          int  // Last approach admitted in round robin mode

	lights *Lights
}

func newCross(id CrossID, name string, pos geom.Vec3) *Cross {
	return &Cross{
		ID:              id,
		Name:            name,
		Kind:            Unsignalled,
		Pos:             pos,
		allowedInFlight: DefaultAllowedInFlight,
		cursor:          -1,
	}
}

func (c *Cross) addApproach(lane LaneID, arrival Direction) int {
	for i := range c.approaches {
		c.approaches[i].Yield = append(c.approaches[i].Yield, false)
	}
	c.approaches = append(c.approaches, Approach{
		Lane:    lane,
		Arrival: arrival,
		Yield:   make([]bool, len(c.approaches)+1),
	})
	if c.lights != nil {
		c.lights.grow(len(c.approaches))
	}
	return len(c.approaches) - 1
}

func (c *Cross) approachIndex(lane LaneID, arrival Direction) int {
	for i, a := range c.approaches {
		if a.Lane == lane && a.Arrival == arrival {
			return i
		}
	}
	return -1
}

func (c *Cross) laneIndex(lane LaneID) int {
	for i, a := range c.approaches {
		if a.Lane == lane {
			return i
		}
	}
	return -1
}

// InFlight returns the number of admitted vehicles that have not yet left
func (c *Cross) InFlight() int {
	return c.inFlight
}

// leave frees the in-flight slot of a vehicle that reached its next lane
func (c *Cross) leave() {
	if c.inFlight > 0 {
		c.inFlight--
	}
}

// dontCheckStreet reports whether approach i is not served this tick
func (c *Cross) dontCheckStreet(i int) bool {
	if c.Kind == Signalled && c.lights != nil {
		return c.lights.denies(i)
	}
	return false
}

// decide is the admission policy for approach i given which approaches had
// vehicles waiting at the start of the tick
func (c *Cross) decide(i int, waiting []bool) Decision {
	if len(c.approaches[i].Waiting) == 0 || c.dontCheckStreet(i) {
		return Skip
	}
	if !c.configured {
		return Admit
	}
	for j, yield := range c.approaches[i].Yield {
		if yield && waiting[j] && !c.dontCheckStreet(j) {
			return Deny
		}
	}
	return Admit
}

func (w *World) updateCross(c *Cross, delta float64) {
	if c.lights != nil && c.lights.advance(delta) {
		w.emit(Event{Kind: EventPhaseChanged, Lane: NoLane, Cross: c.ID, Phase: c.lights.phase})
	}

	waiting := make([]bool, len(c.approaches))
	for i, a := range c.approaches {
		waiting[i] = len(a.Waiting) > 0
	}

	if c.configured {
		w.tryPassVehiclesWithPriority(c, waiting)
	} else {
		w.tryPassAnyVehicle(c, waiting)
	}
}

// tryPassVehiclesWithPriority admits the head of every approach that has no
// waiting traffic to yield to, in approach order, until the cross is full
func (w *World) tryPassVehiclesWithPriority(c *Cross, waiting []bool) {
	for i := range c.approaches {
		if c.decide(i, waiting) != Admit {
			continue
		}
		w.admitHead(c, i)
	}
}

// tryPassAnyVehicle admits at most one vehicle, scanning round robin from
// the approach after the one served last
func (w *World) tryPassAnyVehicle(c *Cross, waiting []bool) {
	n := len(c.approaches)
	for k := 1; k <= n; k++ {
		i := (c.cursor + k) % n
		if c.decide(i, waiting) != Admit {
			continue
		}
		if w.admitHead(c, i) {
			c.cursor = i
			return
		}
	}
}

func (w *World) admitHead(c *Cross, i int) bool {
	if c.inFlight >= c.allowedInFlight {
		return false
	}

	a := &c.approaches[i]
	v := w.vehicles[a.Waiting[0]]
	if !w.hasRoom(v) {
		return false
	}

	a.Waiting = a.Waiting[1:]
	v.allowed = true
	c.inFlight++

	w.emit(Event{Kind: EventAdmitted, Vehicle: v.id, VehicleKind: v.kind, Lane: v.lane, Cross: c.ID})
	return true
}

func (w *World) hasRoom(v *vehicle) bool {
	return w.lanes[v.nextLane].FreeSpace(v.nextDir) > v.footprint()
}
