package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cfg := `
logLevel: debug
sim:
  delta: 0.02
  seed: 77
  network: city.yaml
recorder:
  enabled: true
  driver: postgres
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "trafficsim.yaml"), []byte(cfg), 0644))

	require.NoError(t, Load(dir))

	assert.Equal(t, "debug", GetString("logLevel"))

	sim, err := GetSimConfig()
	require.NoError(t, err)
	assert.Equal(t, 0.02, sim.Delta)
	assert.Equal(t, uint64(77), sim.Seed)
	assert.Equal(t, "city.yaml", sim.Network)
	assert.Equal(t, 6000, sim.Ticks)

	rec, err := GetRecorderConfig()
	require.NoError(t, err)
	assert.True(t, rec.Enabled)
	assert.Equal(t, "postgres", rec.Driver)
	assert.Equal(t, 500, rec.BatchSize)
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(t.TempDir()))

	assert.Equal(t, "info", GetString("logLevel"))
	assert.True(t, GetBool("logConsole"))
	assert.True(t, GetBool("metrics.enabled"))
	assert.Equal(t, 10*time.Second, GetDuration("metrics.interval"))

	sim, err := GetSimConfig()
	require.NoError(t, err)
	assert.Equal(t, SimConfig{Delta: 0.05, Seed: 1, Ticks: 6000, ReportEvery: 200}, sim)

	rec, err := GetRecorderConfig()
	require.NoError(t, err)
	assert.Equal(t, RecorderConfig{Driver: "sqlite", DSN: "trafficsim.db", BatchSize: 500}, rec)

	view, err := GetViewerConfig()
	require.NoError(t, err)
	assert.Equal(t, ViewerConfig{Width: 960, Height: 720, Scale: 40, Title: "trafficsim", TPS: 60}, view)
}

func TestLoad_BrokenFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "trafficsim.yaml"), []byte("sim: [unclosed"), 0644))

	err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestGetSimConfig_RejectsZeroDelta(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(t.TempDir()))

	viper.Set("sim.delta", 0)
	_, err := GetSimConfig()
	assert.Error(t, err)
}

func TestGetRecorderConfig_UnknownDriver(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(t.TempDir()))

	viper.Set("recorder.enabled", true)
	viper.Set("recorder.driver", "mysql")
	_, err := GetRecorderConfig()
	assert.Error(t, err)
}
