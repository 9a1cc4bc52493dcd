package traffic

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/golangdaddy/trafficsim/models"
	"github.com/golangdaddy/trafficsim/pkg/geom"
)

const testDelta = 0.05

func testSpecs() models.Specs {
	return models.Specs{
		MaxV:           2,
		MinV:           0.02,
		CornerVelocity: 1,
		StopTime:       0.6,
		Acceleration:   0.15,
		Length:         0.2,
		RemainDst:      0.07,
	}
}

func parkedSpecs() models.Specs {
	s := testSpecs()
	s.MaxV = 0
	return s
}

func ptr[T any](v T) *T {
	return &v
}

// straightCross builds west -> X -> east where the west lane arrives at the
// cross and the east lane leaves it, both 4.7 long
func straightCross(t *testing.T, opts ...Option) (w *World, x CrossID, west, east LaneID) {
	t.Helper()

	w = NewWorld(opts...)
	x, err := w.AddCross("x", geom.V(0, 0, 0))
	require.NoError(t, err)
	west, err = w.AddLane("west", geom.V(-5, 0, 0), geom.V(-0.3, 0, 0), NoCross, x)
	require.NoError(t, err)
	east, err = w.AddLane("east", geom.V(0.3, 0, 0), geom.V(5, 0, 0), x, NoCross)
	require.NoError(t, err)
	return w, x, west, east
}

// teeCross adds a south lane arriving at the cross of straightCross
func teeCross(t *testing.T, opts ...Option) (w *World, x CrossID, west, south, east LaneID) {
	t.Helper()

	w = NewWorld(opts...)
	x, err := w.AddCross("x", geom.V(0, 0, 0))
	require.NoError(t, err)
	west, err = w.AddLane("west", geom.V(-5, 0, 0), geom.V(-0.3, 0, 0), NoCross, x)
	require.NoError(t, err)
	south, err = w.AddLane("south", geom.V(0, 0, -5), geom.V(0, 0, -0.3), NoCross, x)
	require.NoError(t, err)
	east, err = w.AddLane("east", geom.V(0.3, 0, 0), geom.V(5, 0, 0), x, NoCross)
	require.NoError(t, err)
	return w, x, west, south, east
}

func place(t *testing.T, w *World, lane LaneID, xPos float64, specs models.Specs) VehicleID {
	t.Helper()

	id, err := w.PlaceVehicle(Placement{Lane: lane, Dir: Forward, Specs: ptr(specs), XPos: xPos})
	require.NoError(t, err)
	return id
}

func snapshot(t *testing.T, w *World, id VehicleID) VehicleSnapshot {
	t.Helper()

	v, ok := w.Vehicle(id)
	require.True(t, ok, "vehicle %d", id)
	return v
}

// checkLanes asserts the queue and reservation invariants on every lane
func checkLanes(t *testing.T, w *World) {
	t.Helper()

	for _, l := range w.Lanes() {
		for dir := range 2 {
			queue := l.Queues[dir]
			for i, id := range queue {
				v := snapshot(t, w, id)
				require.Equal(t, l.ID, v.Lane)
				require.GreaterOrEqual(t, v.Velocity, 0.0)
				require.LessOrEqual(t, v.Velocity, v.Specs.MaxV+1e-12)
				if i > 0 {
					ahead := snapshot(t, w, queue[i-1])
					require.Less(t, v.XPos, ahead.XPos, "lane %s overtaking", l.Name)
					require.Equal(t, ahead.ID, v.Front)
					require.Equal(t, v.ID, ahead.Back)
				} else {
					require.Equal(t, NoVehicle, v.Front)
				}
			}
			require.GreaterOrEqual(t, l.Reserved[dir], 0.0)
		}
	}
}
