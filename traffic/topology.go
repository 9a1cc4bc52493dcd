package traffic

import (
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/golangdaddy/trafficsim/models"
	"github.com/golangdaddy/trafficsim/pkg/geom"
)

// ErrFrozen is returned by topology calls made after the first Update
var ErrFrozen = errors.New("topology is frozen once the simulation has started")

// ErrSelfLoop is returned for a lane whose two ends are on the same cross
var ErrSelfLoop = errors.New("lane starts and ends on the same cross")

func (w *World) lookupCross(id CrossID) (*Cross, error) {
	if id < 0 || int(id) >= len(w.crosses) {
		return nil, fmt.Errorf("cross %d: %w", id, ErrUnknownCross)
	}
	return w.crosses[id], nil
}

func (w *World) lookupLane(id LaneID) (*Lane, error) {
	if id < 0 || int(id) >= len(w.lanes) {
		return nil, fmt.Errorf("lane %d: %w", id, ErrUnknownLane)
	}
	return w.lanes[id], nil
}

// AddCross adds an unsignalled cross at pos
func (w *World) AddCross(name string, pos geom.Vec3) (CrossID, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return NoCross, ErrFrozen
	}

	id := CrossID(len(w.crosses))
	w.crosses = append(w.crosses, newCross(id, name, pos))
	w.log.Debug().Int("cross", int(id)).Str("name", name).Msg("added cross")
	return id, nil
}

// AddLane adds a street lane between two points. Either end may be attached
// to a cross or left open (NoCross); vehicles stop at an open end.
func (w *World) AddLane(name string, begin, end geom.Vec3, beginCross, endCross CrossID) (LaneID, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.addLane(name, LaneStreet, begin, end, beginCross, endCross)
}

func (w *World) addLane(name string, kind LaneKind, begin, end geom.Vec3, beginCross, endCross CrossID) (LaneID, error) {
	if w.started {
		return NoLane, ErrFrozen
	}
	for _, c := range []CrossID{beginCross, endCross} {
		if c == NoCross {
			continue
		}
		if _, err := w.lookupCross(c); err != nil {
			return NoLane, fmt.Errorf("lane %q: %w", name, err)
		}
	}
	if beginCross != NoCross && beginCross == endCross {
		return NoLane, fmt.Errorf("lane %q: %w", name, ErrSelfLoop)
	}

	id := LaneID(len(w.lanes))
	lane, err := newLane(id, name, kind, begin, end, beginCross, endCross)
	if err != nil {
		return NoLane, err
	}
	w.lanes = append(w.lanes, lane)

	// Forward travel arrives at the end cross, backward travel at the begin cross
	if endCross != NoCross {
		w.crosses[endCross].addApproach(id, Forward)
	}
	if beginCross != NoCross {
		w.crosses[beginCross].addApproach(id, Backward)
	}

	w.log.Debug().Int("lane", int(id)).Str("name", name).Float64("length", lane.length).Msg("added lane")
	return id, nil
}

// shrink moves p towards q by crossRadius so lanes end at the edge of a cross
func shrink(p, q geom.Vec3) geom.Vec3 {
	return p.Add(q.Sub(p).Normalize().Scale(crossRadius))
}

// AddStreet adds a lane between two crosses. The lane ends stop short of the
// cross centres to leave room for cornering.
func (w *World) AddStreet(name string, from, to CrossID) (LaneID, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	a, err := w.lookupCross(from)
	if err != nil {
		return NoLane, fmt.Errorf("street %q: %w", name, err)
	}
	b, err := w.lookupCross(to)
	if err != nil {
		return NoLane, fmt.Errorf("street %q: %w", name, err)
	}
	if geom.Dist(a.Pos, b.Pos) <= 2*crossRadius {
		return NoLane, fmt.Errorf("street %q: %w", name, ErrZeroLength)
	}

	return w.addLane(name, LaneStreet, shrink(a.Pos, b.Pos), shrink(b.Pos, a.Pos), from, to)
}

// AddGarage adds a garage at pos connected to cross by a garage lane. The
// lane begins at the garage, so spawned vehicles travel Forward and
// returning vehicles travel Backward into the garage.
func (w *World) AddGarage(name string, pos geom.Vec3, cross CrossID, cfg GarageConfig) (LaneID, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := cfg.Validate(); err != nil {
		return NoLane, fmt.Errorf("garage %q: %w", name, err)
	}
	c, err := w.lookupCross(cross)
	if err != nil {
		return NoLane, fmt.Errorf("garage %q: %w", name, err)
	}
	if geom.Dist(pos, c.Pos) <= crossRadius {
		return NoLane, fmt.Errorf("garage %q: %w", name, ErrZeroLength)
	}

	id, err := w.addLane(name, LaneGarage, pos, shrink(c.Pos, pos), NoCross, cross)
	if err != nil {
		return NoLane, err
	}

	g := &Garage{
		Name:   name,
		Lane:   id,
		Pos:    pos,
		config: cfg,
	}
	w.pickKind(g)
	w.lanes[id].garage = g
	w.garages = append(w.garages, g)

	w.log.Info().Str("garage", name).Int("lane", int(id)).Int("cross", int(cross)).Msg("added garage")
	return id, nil
}

func (w *World) configurableCross(id CrossID) (*Cross, error) {
	if w.started {
		return nil, ErrFrozen
	}
	return w.lookupCross(id)
}

func incidentIndex(c *Cross, lane LaneID) (int, error) {
	i := c.laneIndex(lane)
	if i < 0 {
		return -1, fmt.Errorf("lane %d at cross %q: %w", lane, c.Name, ErrNotIncident)
	}
	return i, nil
}

// SetDefaultPriority makes s0 and s1 the main road of a cross: s2 and s3
// yield to both of them. Any argument may be NoLane.
func (w *World) SetDefaultPriority(cross CrossID, s0, s1, s2, s3 LaneID) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	c, err := w.configurableCross(cross)
	if err != nil {
		return err
	}

	resolve := func(lanes ...LaneID) ([]int, error) {
		var idx []int
		for _, l := range lo.Without(lanes, NoLane) {
			i, err := incidentIndex(c, l)
			if err != nil {
				return nil, err
			}
			idx = append(idx, i)
		}
		return idx, nil
	}

	major, err := resolve(s0, s1)
	if err != nil {
		return err
	}
	minor, err := resolve(s2, s3)
	if err != nil {
		return err
	}

	for _, m := range minor {
		for _, j := range major {
			if m != j {
				c.approaches[m].Yield[j] = true
			}
		}
	}
	c.configured = true
	return nil
}

// SetYield makes approach from give way to approach to
func (w *World) SetYield(cross CrossID, from, to LaneID) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	c, err := w.configurableCross(cross)
	if err != nil {
		return err
	}
	i, err := incidentIndex(c, from)
	if err != nil {
		return err
	}
	j, err := incidentIndex(c, to)
	if err != nil {
		return err
	}
	if i != j {
		c.approaches[i].Yield[j] = true
	}
	c.configured = true
	return nil
}

// SetLights turns a cross into a signalled cross. The lanes in groupA get
// the first green, every other approach gets the second.
func (w *World) SetLights(cross CrossID, timings LightTimings, groupA ...LaneID) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	c, err := w.configurableCross(cross)
	if err != nil {
		return err
	}
	if err := timings.Validate(); err != nil {
		return fmt.Errorf("cross %q: %w", c.Name, err)
	}

	mask := make([]bool, len(c.approaches))
	for _, l := range groupA {
		i, err := incidentIndex(c, l)
		if err != nil {
			return err
		}
		mask[i] = true
	}

	c.lights = newLights(timings, mask)
	c.Kind = Signalled
	w.log.Info().Str("cross", c.Name).Int("groupA", len(groupA)).Msg("lights installed")
	return nil
}

// SetAllowedInFlight sets how many vehicles may be inside a cross at once
func (w *World) SetAllowedInFlight(cross CrossID, n int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	c, err := w.configurableCross(cross)
	if err != nil {
		return err
	}
	if n <= 0 {
		return fmt.Errorf("cross %q: %d: %w", c.Name, n, ErrInvalidCapacity)
	}
	c.allowedInFlight = n
	return nil
}

// Placement describes a vehicle put directly onto a lane
type Placement struct {
	Lane     LaneID
	Dir      Direction
	Kind     models.VehicleKind
	Specs    *models.Specs // Drawn at random for Kind when nil
	XPos     float64
	Velocity float64
}

// PlaceVehicle puts a vehicle at the tail of a lane queue. The vehicle must
// be behind every vehicle already queued in that direction.
func (w *World) PlaceVehicle(p Placement) (VehicleID, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	lane, err := w.lookupLane(p.Lane)
	if err != nil {
		return NoVehicle, err
	}

	specs := models.NewSpecs(p.Kind, w.rng)
	if p.Specs != nil {
		specs = *p.Specs
	}
	if err := specs.Validate(); err != nil {
		return NoVehicle, fmt.Errorf("%w: %w", ErrBadPlacement, err)
	}

	switch {
	case p.Dir != Forward && p.Dir != Backward:
		return NoVehicle, fmt.Errorf("%w: direction %v", ErrBadPlacement, p.Dir)
	case p.XPos < 0 || p.XPos > lane.length:
		return NoVehicle, fmt.Errorf("%w: xPos %v outside lane of length %v", ErrBadPlacement, p.XPos, lane.length)
	case p.Velocity < 0 || p.Velocity > specs.MaxV:
		return NoVehicle, fmt.Errorf("%w: velocity %v", ErrBadPlacement, p.Velocity)
	}
	if tail := lane.Tail(p.Dir); tail != NoVehicle && w.vehicles[tail].xPos <= p.XPos {
		return NoVehicle, fmt.Errorf("%w: xPos %v not behind tail at %v", ErrBadPlacement, p.XPos, w.vehicles[tail].xPos)
	}

	v := w.newVehicle(p.Kind, specs, p.Lane, p.Dir, p.XPos, p.Velocity)
	return v.id, nil
}

// Validate checks that every cross is reachable from at least one lane
func (w *World) Validate() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var errs []error
	for _, c := range w.crosses {
		if len(c.approaches) == 0 {
			errs = append(errs, fmt.Errorf("cross %q: %w", c.Name, ErrIsolatedCross))
		}
	}
	return errors.Join(errs...)
}
