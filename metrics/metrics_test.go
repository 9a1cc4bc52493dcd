package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golangdaddy/trafficsim/traffic"
)

type fixedStats traffic.Stats

func (f fixedStats) Stats() traffic.Stats {
	return traffic.Stats(f)
}

func TestCollectorCountsEvents(t *testing.T) {
	p := NewProvider(true)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	c, err := New(p.Meter())
	require.NoError(t, err)

	c.OnEvent(traffic.Event{Kind: traffic.EventSpawned})
	c.OnEvent(traffic.Event{Kind: traffic.EventSpawned})
	c.OnEvent(traffic.Event{Kind: traffic.EventAdmitted})

	snap, err := p.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2.0, snap["traffic.events.spawned"])
	assert.Equal(t, 1.0, snap["traffic.events.admitted"])
	assert.NotContains(t, snap, "traffic.vehicles", "no source yet")
}

func TestCollectorObservesStats(t *testing.T) {
	p := NewProvider(true)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	c, err := New(p.Meter())
	require.NoError(t, err)
	c.Observe(fixedStats{Vehicles: 7, InFlight: 2, Time: 12.5})

	snap, err := p.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7.0, snap["traffic.vehicles"])
	assert.Equal(t, 2.0, snap["traffic.crosses.in_flight"])
	assert.Equal(t, 12.5, snap["traffic.time"])
}

func TestDisabledProvider(t *testing.T) {
	p := NewProvider(false)

	c, err := New(p.Meter())
	require.NoError(t, err)
	c.OnEvent(traffic.Event{Kind: traffic.EventDespawned})

	snap, err := p.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap)
	assert.NoError(t, p.Shutdown(context.Background()))
}
