package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// ConfigName is the config file looked up in the config directory
const ConfigName = "trafficsim"

// SimConfig holds the headless runner settings
type SimConfig struct {
	Delta       float64
	Seed        uint64
	Ticks       int
	Network     string
	ReportEvery int
}

// RecorderConfig holds the event recorder settings
type RecorderConfig struct {
	Enabled   bool
	Driver    string
	DSN       string
	BatchSize int
}

// ViewerConfig holds the window settings of the viewer
type ViewerConfig struct {
	Width  int
	Height int
	Scale  float64
	Title  string
	TPS    int
}

// Load sets default values and reads trafficsim.yaml from configDir.
// A missing file is not an error.
func Load(configDir string) error {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logConsole", true)

	viper.SetDefault("sim.delta", 0.05)
	viper.SetDefault("sim.seed", 1)
	viper.SetDefault("sim.ticks", 6000)
	viper.SetDefault("sim.network", "")
	viper.SetDefault("sim.reportEvery", 200)

	viper.SetDefault("recorder.enabled", false)
	viper.SetDefault("recorder.driver", "sqlite")
	viper.SetDefault("recorder.dsn", "trafficsim.db")
	viper.SetDefault("recorder.batchSize", 500)

	viper.SetDefault("viewer.width", 960)
	viper.SetDefault("viewer.height", 720)
	viper.SetDefault("viewer.scale", 40)
	viper.SetDefault("viewer.title", "trafficsim")
	viper.SetDefault("viewer.tps", 60)

	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.interval", "10s")

	viper.SetConfigName(ConfigName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// GetSimConfig returns the sim.* section
func GetSimConfig() (SimConfig, error) {
	c := SimConfig{
		Delta:       viper.GetFloat64("sim.delta"),
		Seed:        viper.GetUint64("sim.seed"),
		Ticks:       viper.GetInt("sim.ticks"),
		Network:     viper.GetString("sim.network"),
		ReportEvery: viper.GetInt("sim.reportEvery"),
	}
	if c.Delta <= 0 {
		return c, fmt.Errorf("sim.delta must be positive, got %v", c.Delta)
	}
	if c.Ticks < 0 {
		return c, fmt.Errorf("sim.ticks must not be negative, got %d", c.Ticks)
	}
	return c, nil
}

// GetRecorderConfig returns the recorder.* section
func GetRecorderConfig() (RecorderConfig, error) {
	c := RecorderConfig{
		Enabled:   viper.GetBool("recorder.enabled"),
		Driver:    viper.GetString("recorder.driver"),
		DSN:       viper.GetString("recorder.dsn"),
		BatchSize: viper.GetInt("recorder.batchSize"),
	}
	if c.Enabled && c.Driver != "sqlite" && c.Driver != "postgres" {
		return c, fmt.Errorf("recorder.driver must be sqlite or postgres, got %q", c.Driver)
	}
	return c, nil
}

// GetViewerConfig returns the viewer.* section
func GetViewerConfig() (ViewerConfig, error) {
	c := ViewerConfig{
		Width:  viper.GetInt("viewer.width"),
		Height: viper.GetInt("viewer.height"),
		Scale:  viper.GetFloat64("viewer.scale"),
		Title:  viper.GetString("viewer.title"),
		TPS:    viper.GetInt("viewer.tps"),
	}
	if c.Width <= 0 || c.Height <= 0 || c.Scale <= 0 {
		return c, fmt.Errorf("viewer size %dx%d at scale %v is not drawable", c.Width, c.Height, c.Scale)
	}
	return c, nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a duration config value.
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}
