package traffic

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golangdaddy/trafficsim/models"
	"github.com/golangdaddy/trafficsim/pkg/geom"
)

func TestGarageToGarage(t *testing.T) {
	w := NewWorld(WithSeed(42))
	x, err := w.AddCross("x", geom.V(0, 0, 0))
	require.NoError(t, err)

	cfg := GarageConfig{SpawnInterval: 1.5, DespawnInterval: 0.3, BusRatio: 0.2, MaxVehicles: 6}
	g1, err := w.AddGarage("g1", geom.V(-5.3, 0, 0), x, cfg)
	require.NoError(t, err)
	g2, err := w.AddGarage("g2", geom.V(5.3, 0, 0), x, cfg)
	require.NoError(t, err)
	require.NoError(t, w.Validate())

	lanes := w.Lanes()
	assert.InDelta(t, 5.0, lanes[g1].Length, 1e-9)
	assert.Equal(t, LaneGarage, lanes[g2].Kind)

	for i := range 4000 {
		w.Update(testDelta)
		if i%10 == 0 {
			checkLanes(t, w)
		}
		require.LessOrEqual(t, w.Crosses()[x].InFlight, DefaultAllowedInFlight)
	}

	stats := w.Stats()
	assert.Greater(t, stats.Despawned, 0)
	assert.Equal(t, stats.Spawned-stats.Despawned, stats.Vehicles)
	assert.Len(t, w.Vehicles(), stats.Vehicles)
	assert.InDelta(t, 200, stats.Time, 1e-6)
}

func TestRingRoad(t *testing.T) {
	w := NewWorld(WithSeed(8))
	corners := []geom.Vec3{geom.V(0, 0, 0), geom.V(10, 0, 0), geom.V(10, 0, 10), geom.V(0, 0, 10)}

	var crosses []CrossID
	for i, p := range corners {
		id, err := w.AddCross(string(rune('a'+i)), p)
		require.NoError(t, err)
		crosses = append(crosses, id)
	}
	var streets []LaneID
	for i := range crosses {
		id, err := w.AddStreet("ring", crosses[i], crosses[(i+1)%len(crosses)])
		require.NoError(t, err)
		streets = append(streets, id)
	}

	cfg := GarageConfig{SpawnInterval: 2, DespawnInterval: 0.5, BusRatio: 0.25, MaxVehicles: 8}
	g1, err := w.AddGarage("north", geom.V(-4, 0, 0), crosses[0], cfg)
	require.NoError(t, err)
	_, err = w.AddGarage("south", geom.V(14, 0, 10), crosses[2], cfg)
	require.NoError(t, err)

	require.NoError(t, w.SetDefaultPriority(crosses[0], streets[0], streets[3], g1, NoLane))
	require.NoError(t, w.SetLights(crosses[2], DefaultLightTimings(), streets[1]))

	signalled := 0
	for i := range 6000 {
		w.Update(testDelta)
		if i%25 == 0 {
			checkLanes(t, w)
		}
	}
	for _, c := range w.Crosses() {
		if c.Kind == Signalled {
			signalled++
		}
		for _, a := range c.Approaches {
			assert.Len(t, a.Yield, len(c.Approaches))
		}
	}

	assert.Equal(t, 1, signalled)
	assert.Greater(t, w.Stats().Despawned, 0)
}

func TestSameSeedSameRun(t *testing.T) {
	run := func() []VehicleSnapshot {
		w := NewWorld(WithSeed(99))
		x, err := w.AddCross("x", geom.V(0, 0, 0))
		require.NoError(t, err)
		cfg := GarageConfig{SpawnInterval: 0.7, DespawnInterval: 0.2, BusRatio: 0.5}
		for _, p := range []geom.Vec3{geom.V(-5, 0, 0), geom.V(5, 0, 0), geom.V(0, 0, 5)} {
			_, err := w.AddGarage("g", p, x, cfg)
			require.NoError(t, err)
		}
		for range 1000 {
			w.Update(testDelta)
		}
		return w.Vehicles()
	}

	assert.Equal(t, run(), run())
}

func TestSnapshotsFromAnotherGoroutine(t *testing.T) {
	w, _ := deadEnd(t, GarageConfig{SpawnInterval: 0.2, DespawnInterval: 0.2}, WithSeed(4))

	var wg sync.WaitGroup
	done := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				_ = w.Vehicles()
				_ = w.Lanes()
				_ = w.Crosses()
				_ = w.Stats()
			}
		}
	}()

	for range 500 {
		w.Update(testDelta)
	}
	close(done)
	wg.Wait()

	assert.Equal(t, uint64(500), w.Stats().Tick)
}

func TestTopologyErrors(t *testing.T) {
	w := NewWorld()
	a, err := w.AddCross("a", geom.V(0, 0, 0))
	require.NoError(t, err)
	b, err := w.AddCross("b", geom.V(0.5, 0, 0))
	require.NoError(t, err)
	c, err := w.AddCross("c", geom.V(5, 0, 0))
	require.NoError(t, err)

	_, err = w.AddStreet("short", a, b)
	assert.ErrorIs(t, err, ErrZeroLength)
	_, err = w.AddStreet("nowhere", a, CrossID(7))
	assert.ErrorIs(t, err, ErrUnknownCross)
	_, err = w.AddLane("loop", geom.V(0, 0, 0), geom.V(1, 0, 0), a, a)
	assert.ErrorIs(t, err, ErrSelfLoop)
	_, err = w.AddGarage("inside", geom.V(0.1, 0, 0), a, DefaultGarageConfig())
	assert.ErrorIs(t, err, ErrZeroLength)

	_, err = w.AddStreet("ac", a, c)
	require.NoError(t, err)
	assert.ErrorIs(t, w.Validate(), ErrIsolatedCross)
}

func TestStreetEndsStopShortOfCrosses(t *testing.T) {
	w := NewWorld()
	a, err := w.AddCross("a", geom.V(0, 0, 0))
	require.NoError(t, err)
	b, err := w.AddCross("b", geom.V(0, 0, 4))
	require.NoError(t, err)
	id, err := w.AddStreet("ab", a, b)
	require.NoError(t, err)

	l := w.Lanes()[id]
	assert.InDelta(t, 3.4, l.Length, 1e-9)
	assert.InDelta(t, 0.3, l.Begin.Z, 1e-9)
	assert.InDelta(t, 3.7, l.End.Z, 1e-9)
	assert.Equal(t, [2]CrossID{a, b}, l.Crosses)
}

func TestRandomPlacementUsesKindSpecs(t *testing.T) {
	w, _, west, _ := straightCross(t, WithSeed(1))
	id, err := w.PlaceVehicle(Placement{Lane: west, Dir: Forward, Kind: models.KindBus, XPos: 1})
	require.NoError(t, err)

	v := snapshot(t, w, id)
	assert.Equal(t, models.KindBus, v.Kind)
	assert.Equal(t, 0.66, v.Specs.Length)
}
