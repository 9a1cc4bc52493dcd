package traffic

import (
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/golangdaddy/trafficsim/models"
)

// TurnChooser picks the approach a vehicle leaves a cross on, given the
// approach it arrived on and the number of approaches. Returning an index
// out of range panics.
type TurnChooser func(cross CrossID, arrival, approaches int) int

// Stats are running totals of a World
type Stats struct {
	Tick      uint64
	Time      float64
	Vehicles  int
	InFlight  int
	Spawned   int
	Despawned int
	Admitted  int
}

// World owns every lane, cross, garage and vehicle of a simulation
type World struct {
	mu sync.Mutex

	log       zerolog.Logger
	rng       *rand.Rand
	observers []Observer
	chooser   TurnChooser

	lanes     []*Lane
	crosses   []*Cross
	garages   []*Garage
	vehicles  map[VehicleID]*vehicle
	cornering []VehicleID // Vehicles inside a cross, on no lane queue
	nextID    VehicleID

	tick    uint64
	time    float64
	started bool
	stats   Stats
}

// Option configures a World
type Option func(*World)

// WithSeed seeds the world's random source
func WithSeed(seed uint64) Option {
	return func(w *World) {
		w.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithRand sets the world's random source
func WithRand(r *rand.Rand) Option {
	return func(w *World) {
		w.rng = r
	}
}

// WithLogger sets the logger used for topology and lifecycle messages
func WithLogger(log zerolog.Logger) Option {
	return func(w *World) {
		w.log = log
	}
}

// WithObserver adds an event observer
func WithObserver(o Observer) Option {
	return func(w *World) {
		w.observers = append(w.observers, o)
	}
}

// WithTurnChooser replaces the random turn choice at crosses
func WithTurnChooser(c TurnChooser) Option {
	return func(w *World) {
		w.chooser = c
	}
}

// NewWorld creates an empty world
func NewWorld(opts ...Option) *World {
	w := &World{
		log:      zerolog.Nop(),
		vehicles: make(map[VehicleID]*vehicle),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.rng == nil {
		WithSeed(1)(w)
	}
	return w
}

// Update advances the simulation by delta seconds: garages first, then
// crosses, then vehicles. Vehicles inside crosses move before vehicles on
// lanes, and lane queues are walked front to back.
func (w *World) Update(delta float64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.started = true
	w.tick++
	w.time += delta

	for _, g := range w.garages {
		w.updateGarage(g, delta)
	}
	for _, c := range w.crosses {
		w.updateCross(c, delta)
	}

	for _, id := range slices.Clone(w.cornering) {
		w.updateVehicle(w.vehicles[id], delta)
	}
	for _, lane := range w.lanes {
		for _, dir := range []Direction{Forward, Backward} {
			for _, id := range lane.Queue(dir) {
				if v, ok := w.vehicles[id]; ok {
					w.updateVehicle(v, delta)
				}
			}
		}
	}
}

// Stats returns the running totals
func (w *World) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := w.stats
	s.Tick = w.tick
	s.Time = w.time
	s.Vehicles = len(w.vehicles)
	for _, c := range w.crosses {
		s.InFlight += c.inFlight
	}
	return s
}

// Time returns the simulated seconds elapsed
func (w *World) Time() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.time
}

func (w *World) newVehicle(kind models.VehicleKind, specs models.Specs, laneID LaneID, dir Direction, xPos, velocity float64) *vehicle {
	w.nextID++
	lane := w.lanes[laneID]

	v := &vehicle{
		id:       w.nextID,
		kind:     kind,
		specs:    specs,
		xPos:     xPos,
		velocity: velocity,
		state:    Driving,
		lane:     laneID,
		dir:      dir,
		cross:    NoCross,
		nextLane: NoLane,
		origin:   NoLane,
		blinker:  Blinker{Duration: models.BlinkDuration(w.rng)},
		position: lane.PositionAt(dir, xPos),
		heading:  lane.Heading(dir),
	}

	tail := lane.Tail(dir)
	lane.push(dir, v.id, v.footprint())
	v.front = tail
	if tail != NoVehicle {
		w.vehicles[tail].back = v.id
	}

	w.vehicles[v.id] = v
	return v
}
