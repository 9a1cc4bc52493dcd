package traffic

import (
	"fmt"

	"github.com/golangdaddy/trafficsim/models"
)

// EventKind names something that happened during a tick
type EventKind int

const (
	EventSpawned EventKind = iota
	EventDespawned
	EventRegistered
	EventAdmitted
	EventEnteredLane
	EventPhaseChanged
)

var eventNames = [...]string{"spawned", "despawned", "registered", "admitted", "entered_lane", "phase_changed"}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventNames) {
		return fmt.Sprintf("event(%d)", int(k))
	}
	return eventNames[k]
}

// Event is delivered to observers synchronously inside Update. Fields that do
// not apply to the kind are left at their zero or none values.
type Event struct {
	Kind        EventKind
	Tick        uint64
	Time        float64
	Vehicle     VehicleID
	VehicleKind models.VehicleKind
	Lane        LaneID
	Cross       CrossID
	Phase       Phase
}

// Observer receives simulation events. Observers run on the simulation
// goroutine with the world locked and must not call back into the World.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(Event)

// OnEvent calls f(e)
func (f ObserverFunc) OnEvent(e Event) {
	f(e)
}

func (w *World) emit(e Event) {
	e.Tick = w.tick
	e.Time = w.time

	switch e.Kind {
	case EventSpawned:
		w.stats.Spawned++
	case EventDespawned:
		w.stats.Despawned++
	case EventAdmitted:
		w.stats.Admitted++
	}

	for _, o := range w.observers {
		o.OnEvent(e)
	}
}
