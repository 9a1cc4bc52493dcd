package traffic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golangdaddy/trafficsim/pkg/geom"
)

// deadEnd builds a garage whose lane ends at a cross with no other approach,
// so every vehicle turns round and drives back in
func deadEnd(t *testing.T, cfg GarageConfig, opts ...Option) (*World, LaneID) {
	t.Helper()

	w := NewWorld(opts...)
	x, err := w.AddCross("turn", geom.V(0, 0, 0))
	require.NoError(t, err)
	lane, err := w.AddGarage("depot", geom.V(-5, 0, 0), x, cfg)
	require.NoError(t, err)
	return w, lane
}

func TestGarageSpawnInterval(t *testing.T) {
	cfg := GarageConfig{SpawnInterval: 1, DespawnInterval: 0.5}
	w, lane := deadEnd(t, cfg, WithSeed(5))

	for range 9 {
		w.Update(0.1)
	}
	assert.Equal(t, 0, w.Stats().Spawned)

	w.Update(0.1)
	assert.Equal(t, 1, w.Stats().Spawned)

	queue := w.Lanes()[lane].Queues[Forward]
	require.Len(t, queue, 1)
	v := snapshot(t, w, queue[0])
	assert.Equal(t, Forward, v.Dir)
	assert.Greater(t, v.Velocity, 0.0, "moves off in the tick it spawned")
	assert.Equal(t, 1, w.Garages()[lane].Active)
}

func TestGarageRespectsCap(t *testing.T) {
	live := 0
	cfg := GarageConfig{SpawnInterval: 0.1, DespawnInterval: 0.1, MaxVehicles: 2}
	w, lane := deadEnd(t, cfg, WithSeed(5), WithObserver(ObserverFunc(func(e Event) {
		switch e.Kind {
		case EventSpawned:
			live++
		case EventDespawned:
			live--
		}
		require.LessOrEqual(t, live, 2)
	})))

	for range 2000 {
		w.Update(testDelta)
		require.LessOrEqual(t, w.Garages()[lane].Active, 2)
	}

	stats := w.Stats()
	assert.Greater(t, stats.Spawned, 2)
	assert.Greater(t, stats.Despawned, 0)
	assert.Equal(t, stats.Spawned-stats.Despawned, w.Garages()[lane].Active)
	assert.Equal(t, stats.Vehicles, w.Garages()[lane].Active)
}

func TestGarageKeepsSpacing(t *testing.T) {
	cfg := GarageConfig{SpawnInterval: testDelta, DespawnInterval: 0.2, BusRatio: 0.3}
	w, _ := deadEnd(t, cfg, WithSeed(9))

	for range 600 {
		w.Update(testDelta)
		checkLanes(t, w)
	}
	assert.Greater(t, w.Stats().Spawned, 3)
}

func TestGarageBlockedEntry(t *testing.T) {
	cfg := GarageConfig{SpawnInterval: testDelta, DespawnInterval: 0.5}
	w, lane := deadEnd(t, cfg)

	_, err := w.PlaceVehicle(Placement{Lane: lane, Dir: Forward, Specs: ptr(parkedSpecs()), XPos: 0.1})
	require.NoError(t, err)

	for range 100 {
		w.Update(testDelta)
	}
	assert.Equal(t, 0, w.Stats().Spawned)
}

func TestGarageDespawnsReturningVehicles(t *testing.T) {
	var despawned []VehicleID
	cfg := GarageConfig{SpawnInterval: 3, DespawnInterval: 0.5, MaxVehicles: 3}
	w, lane := deadEnd(t, cfg, WithSeed(2), WithObserver(ObserverFunc(func(e Event) {
		if e.Kind == EventDespawned {
			despawned = append(despawned, e.Vehicle)
		}
	})))

	for range 2000 {
		w.Update(testDelta)
		for _, id := range w.Lanes()[lane].Queues[Backward] {
			v := snapshot(t, w, id)
			require.LessOrEqual(t, v.XPos, w.Lanes()[lane].Length)
		}
	}

	require.NotEmpty(t, despawned)
	for _, id := range despawned {
		_, ok := w.Vehicle(id)
		assert.False(t, ok)
	}
	checkLanes(t, w)
}

func TestGarageConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  GarageConfig
	}{
		{"zero spawn interval", GarageConfig{DespawnInterval: 1}},
		{"negative despawn interval", GarageConfig{SpawnInterval: 1, DespawnInterval: -1}},
		{"bus ratio above one", GarageConfig{SpawnInterval: 1, BusRatio: 1.5}},
		{"negative cap", GarageConfig{SpawnInterval: 1, MaxVehicles: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWorld()
			x, err := w.AddCross("x", geom.V(0, 0, 0))
			require.NoError(t, err)
			_, err = w.AddGarage("g", geom.V(3, 0, 0), x, tt.cfg)
			assert.ErrorIs(t, err, ErrInvalidGarage)
		})
	}

	assert.NoError(t, DefaultGarageConfig().Validate())
}
