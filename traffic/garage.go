package traffic

import (
	"fmt"

	"github.com/golangdaddy/trafficsim/models"
	"github.com/golangdaddy/trafficsim/pkg/geom"
)

// GarageConfig controls how a garage releases and takes back vehicles
type GarageConfig struct {
	SpawnInterval   float64 // Seconds between spawns
	DespawnInterval float64 // Seconds between despawns
	BusRatio        float64 // Probability that a spawned vehicle is a bus
	MaxVehicles     int     // Maximum number of live vehicles from this garage (0 = unlimited)
}

// DefaultGarageConfig returns a garage that spawns a vehicle every two
// seconds, mostly cars, with no cap
func DefaultGarageConfig() GarageConfig {
	return GarageConfig{
		SpawnInterval:   2,
		DespawnInterval: 0.5,
		BusRatio:        0.1,
		MaxVehicles:     0,
	}
}

// Validate checks the intervals, ratio and cap
func (c GarageConfig) Validate() error {
	switch {
	case c.SpawnInterval <= 0:
		return fmt.Errorf("spawn interval %v: %w", c.SpawnInterval, ErrInvalidGarage)
	case c.DespawnInterval < 0:
		return fmt.Errorf("despawn interval %v: %w", c.DespawnInterval, ErrInvalidGarage)
	case c.BusRatio < 0 || c.BusRatio > 1:
		return fmt.Errorf("bus ratio %v: %w", c.BusRatio, ErrInvalidGarage)
	case c.MaxVehicles < 0:
		return fmt.Errorf("max vehicles %d: %w", c.MaxVehicles, ErrInvalidGarage)
	}
	return nil
}

// Garage is the source and sink at the open end of a garage lane. Vehicles
// leave on the Forward queue and are taken back from the Backward queue.
type Garage struct {
	Name string
	Lane LaneID
	Pos  geom.Vec3

	config     GarageConfig
	spawnAcc   float64
	despawnAcc float64
	pending    models.VehicleKind // Kind of the next vehicle to spawn
	specs      models.Specs       // Specs of the next vehicle to spawn
	active     int                // Live vehicles spawned here
}

// Config returns the garage settings
func (g *Garage) Config() GarageConfig {
	return g.config
}

// Active returns the number of live vehicles this garage spawned
func (g *Garage) Active() int {
	return g.active
}

func (g *Garage) full() bool {
	return g.config.MaxVehicles > 0 && g.active >= g.config.MaxVehicles
}

func (w *World) pickKind(g *Garage) {
	g.pending = models.KindCar
	if w.rng.Float64() < g.config.BusRatio {
		g.pending = models.KindBus
	}
	g.specs = models.NewSpecs(g.pending, w.rng)
}

func (w *World) updateGarage(g *Garage, delta float64) {
	g.spawnAcc += delta
	g.despawnAcc += delta

	if g.spawnAcc+phaseEpsilon >= g.config.SpawnInterval {
		w.trySpawn(g)
	}
	if g.despawnAcc+phaseEpsilon >= g.config.DespawnInterval {
		w.tryDespawn(g)
	}
}

func (w *World) trySpawn(g *Garage) {
	if g.full() {
		return
	}

	lane := w.lanes[g.Lane]
	specs := g.specs

	if lane.FreeSpace(Forward) <= specs.Footprint() {
		return
	}
	if tailID := lane.Tail(Forward); tailID != NoVehicle {
		tail := w.vehicles[tailID]
		if tail.xPos < tail.specs.Length/2+specs.Footprint() {
			return
		}
	}

	g.spawnAcc = 0
	v := w.newVehicle(g.pending, specs, g.Lane, Forward, 0, 0)
	v.origin = g.Lane
	g.active++
	w.pickKind(g)

	w.log.Debug().
		Uint64("vehicle", uint64(v.id)).
		Str("kind", v.kind.String()).
		Str("garage", g.Name).
		Msg("spawned vehicle")
	w.emit(Event{Kind: EventSpawned, Vehicle: v.id, VehicleKind: v.kind, Lane: g.Lane, Cross: NoCross})
}

func (w *World) tryDespawn(g *Garage) {
	lane := w.lanes[g.Lane]
	headID := lane.Head(Backward)
	if headID == NoVehicle {
		return
	}
	head := w.vehicles[headID]
	if head.xPos < lane.length {
		return
	}

	g.despawnAcc = 0
	w.destroy(head)

	w.log.Debug().
		Uint64("vehicle", uint64(head.id)).
		Str("garage", g.Name).
		Msg("despawned vehicle")
	w.emit(Event{Kind: EventDespawned, Vehicle: head.id, VehicleKind: head.kind, Lane: g.Lane, Cross: NoCross})
}

// destroy removes a vehicle at the head of its queue from the world
func (w *World) destroy(v *vehicle) {
	w.detach(v)
	delete(w.vehicles, v.id)

	if v.origin != NoLane {
		if origin := w.lanes[v.origin].garage; origin != nil && origin.active > 0 {
			origin.active--
		}
	}
}
