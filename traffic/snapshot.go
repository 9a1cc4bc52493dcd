package traffic

import (
	"cmp"
	"slices"

	"github.com/samber/lo"

	"github.com/golangdaddy/trafficsim/models"
	"github.com/golangdaddy/trafficsim/pkg/geom"
)

// VehicleSnapshot is a read-only copy of a vehicle's state
type VehicleSnapshot struct {
	ID             VehicleID
	Kind           models.VehicleKind
	Specs          models.Specs
	State          VehicleState
	Lane           LaneID
	Dir            Direction
	XPos           float64
	Velocity       float64
	Braking        bool
	AllowedToCross bool
	Front          VehicleID
	Back           VehicleID
	Cross          CrossID
	NextLane       LaneID
	NextDir        Direction
	Blinker        Blinker
	Position       geom.Vec3
	Heading        float64 // Degrees in the XZ plane
	Articulation   float64 // Bend of an articulated bus in degrees
}

// BlinkerLit reports whether the indicator lamp is lit this tick
func (s VehicleSnapshot) BlinkerLit() bool {
	return s.Blinker.Side != 0 && s.Blinker.On
}

// LaneSnapshot is a read-only copy of a lane's geometry and occupancy
type LaneSnapshot struct {
	ID        LaneID
	Name      string
	Kind      LaneKind
	Begin     geom.Vec3
	End       geom.Vec3
	Length    float64
	Crosses   [2]CrossID // Begin and end cross
	Queues    [2][]VehicleID
	Reserved  [2]float64
	FreeSpace [2]float64
}

// ApproachSnapshot is one approach of a CrossSnapshot
type ApproachSnapshot struct {
	Lane    LaneID
	Arrival Direction
	Waiting []VehicleID
	Yield   []bool
	Go      bool // Approach may currently cross
}

// CrossSnapshot is a read-only copy of a cross
type CrossSnapshot struct {
	ID              CrossID
	Name            string
	Kind            CrossKind
	Pos             geom.Vec3
	Configured      bool
	AllowedInFlight int
	InFlight        int
	Phase           Phase
	PhaseTimer      float64
	Approaches      []ApproachSnapshot
}

func (w *World) snapshotVehicle(v *vehicle) VehicleSnapshot {
	return VehicleSnapshot{
		ID:             v.id,
		Kind:           v.kind,
		Specs:          v.specs,
		State:          v.state,
		Lane:           v.lane,
		Dir:            v.dir,
		XPos:           v.xPos,
		Velocity:       v.velocity,
		Braking:        v.braking,
		AllowedToCross: v.allowed,
		Front:          v.front,
		Back:           v.back,
		Cross:          v.cross,
		NextLane:       v.nextLane,
		NextDir:        v.nextDir,
		Blinker:        v.blinker,
		Position:       v.position,
		Heading:        v.heading,
		Articulation:   v.articulation,
	}
}

// Vehicle returns a snapshot of one vehicle
func (w *World) Vehicle(id VehicleID) (VehicleSnapshot, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	v, ok := w.vehicles[id]
	if !ok {
		return VehicleSnapshot{}, false
	}
	return w.snapshotVehicle(v), true
}

// Vehicles returns snapshots of every live vehicle ordered by ID
func (w *World) Vehicles() []VehicleSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := lo.MapToSlice(w.vehicles, func(_ VehicleID, v *vehicle) VehicleSnapshot {
		return w.snapshotVehicle(v)
	})
	slices.SortFunc(out, func(a, b VehicleSnapshot) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// Lanes returns snapshots of every lane ordered by ID
func (w *World) Lanes() []LaneSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	return lo.Map(w.lanes, func(l *Lane, _ int) LaneSnapshot {
		return LaneSnapshot{
			ID:        l.ID,
			Name:      l.Name,
			Kind:      l.Kind,
			Begin:     l.begin,
			End:       l.end,
			Length:    l.length,
			Crosses:   [2]CrossID{l.beginCross, l.endCross},
			Queues:    [2][]VehicleID{l.Queue(Forward), l.Queue(Backward)},
			Reserved:  l.reserved,
			FreeSpace: [2]float64{l.FreeSpace(Forward), l.FreeSpace(Backward)},
		}
	})
}

// Crosses returns snapshots of every cross ordered by ID
func (w *World) Crosses() []CrossSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	return lo.Map(w.crosses, func(c *Cross, _ int) CrossSnapshot {
		s := CrossSnapshot{
			ID:              c.ID,
			Name:            c.Name,
			Kind:            c.Kind,
			Pos:             c.Pos,
			Configured:      c.configured,
			AllowedInFlight: c.allowedInFlight,
			InFlight:        c.inFlight,
		}
		if c.lights != nil {
			s.Phase = c.lights.phase
			s.PhaseTimer = c.lights.timer
		}
		s.Approaches = lo.Map(c.approaches, func(a Approach, i int) ApproachSnapshot {
			return ApproachSnapshot{
				Lane:    a.Lane,
				Arrival: a.Arrival,
				Waiting: slices.Clone(a.Waiting),
				Yield:   slices.Clone(a.Yield),
				Go:      !c.dontCheckStreet(i),
			}
		})
		return s
	})
}

// Garages returns the garage settings and live counts keyed by lane
func (w *World) Garages() map[LaneID]GarageSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	return lo.SliceToMap(w.garages, func(g *Garage) (LaneID, GarageSnapshot) {
		return g.Lane, GarageSnapshot{Name: g.Name, Lane: g.Lane, Pos: g.Pos, Config: g.config, Active: g.active}
	})
}

// GarageSnapshot is a read-only copy of a garage
type GarageSnapshot struct {
	Name   string
	Lane   LaneID
	Pos    geom.Vec3
	Config GarageConfig
	Active int
}
