package recorder

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golangdaddy/trafficsim/config"
	"github.com/golangdaddy/trafficsim/models"
	"github.com/golangdaddy/trafficsim/pkg/geom"
	"github.com/golangdaddy/trafficsim/traffic"
)

func openTestRecorder(t *testing.T, batchSize int) *Recorder {
	t.Helper()

	cfg := config.RecorderConfig{
		Enabled:   true,
		Driver:    "sqlite",
		DSN:       filepath.Join(t.TempDir(), "events.db"),
		BatchSize: batchSize,
	}
	r, err := Open(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(config.RecorderConfig{Driver: "mysql"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestOnEvent_BuffersUntilBatchSize(t *testing.T) {
	r := openTestRecorder(t, 3)
	runID, err := r.StartRun("test", 1, 0.05)
	require.NoError(t, err)

	e := traffic.Event{Kind: traffic.EventSpawned, Tick: 1, Vehicle: 1, VehicleKind: models.KindBus, Lane: 0, Cross: traffic.NoCross}
	r.OnEvent(e)
	r.OnEvent(e)

	counts, err := r.Counts(runID)
	require.NoError(t, err)
	assert.Empty(t, counts)

	r.OnEvent(e)
	counts, err = r.Counts(runID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts["spawned"])
}

func TestOnEvent_IgnoredBeforeRun(t *testing.T) {
	r := openTestRecorder(t, 1)
	r.OnEvent(traffic.Event{Kind: traffic.EventAdmitted})
	assert.NoError(t, r.Flush())
}

func TestRecordsWorldRun(t *testing.T) {
	r := openTestRecorder(t, 50)

	w := traffic.NewWorld(traffic.WithSeed(6), traffic.WithObserver(r))
	x, err := w.AddCross("x", geom.V(0, 0, 0))
	require.NoError(t, err)
	cfg := traffic.GarageConfig{SpawnInterval: 1, DespawnInterval: 0.2, BusRatio: 0.5, MaxVehicles: 4}
	_, err = w.AddGarage("west", geom.V(-5, 0, 0), x, cfg)
	require.NoError(t, err)
	_, err = w.AddGarage("east", geom.V(5, 0, 0), x, cfg)
	require.NoError(t, err)

	runID, err := r.StartRun("two garages", 6, 0.05)
	require.NoError(t, err)

	for range 2000 {
		w.Update(0.05)
	}
	stats := w.Stats()
	require.NoError(t, r.FinishRun(stats))

	counts, err := r.Counts(runID)
	require.NoError(t, err)
	assert.Equal(t, int64(stats.Spawned), counts["spawned"])
	assert.Equal(t, int64(stats.Despawned), counts["despawned"])
	assert.Equal(t, int64(stats.Admitted), counts["admitted"])
	assert.Positive(t, counts["entered_lane"])

	run, err := r.LoadRun(runID)
	require.NoError(t, err)
	assert.Equal(t, "two garages", run.Network)
	assert.Equal(t, uint64(2000), run.Ticks)
	assert.Equal(t, stats.Despawned, run.Despawned)
	require.NotNil(t, run.FinishedAt)
}

func TestOnEvent_FailedWritesDropBatches(t *testing.T) {
	var logs bytes.Buffer
	cfg := config.RecorderConfig{
		Enabled:   true,
		Driver:    "sqlite",
		DSN:       filepath.Join(t.TempDir(), "events.db"),
		BatchSize: 2,
	}
	r, err := Open(cfg, zerolog.New(&logs))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	runID, err := r.StartRun("broken", 1, 0.05)
	require.NoError(t, err)
	require.NoError(t, r.db.Migrator().DropTable(&EventRecord{}))

	e := traffic.Event{Kind: traffic.EventAdmitted, Tick: 1, Vehicle: 1, Lane: 0, Cross: 0}
	for range 10 {
		r.OnEvent(e)
	}
	assert.Empty(t, r.buf)
	assert.Equal(t, uint64(10), r.Dropped())
	assert.Equal(t, 1, strings.Count(logs.String(), "dropping batches"))

	require.NoError(t, r.db.AutoMigrate(&EventRecord{}))
	r.OnEvent(e)
	r.OnEvent(e)
	assert.Contains(t, logs.String(), "event writes recovered")

	counts, err := r.Counts(runID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts["admitted"])
}

func TestFinishRun_WithoutRun(t *testing.T) {
	r := openTestRecorder(t, 1)
	assert.ErrorIs(t, r.FinishRun(traffic.Stats{}), ErrNoRun)
}
