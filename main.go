package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/golangdaddy/trafficsim/config"
	"github.com/golangdaddy/trafficsim/logging"
	"github.com/golangdaddy/trafficsim/road"
	"github.com/golangdaddy/trafficsim/traffic"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "trafficsim",
		Short: "Urban traffic simulation",
		Long: `trafficsim simulates vehicles driving a city of streets and
intersections. Garages spawn cars and buses, intersections arbitrate right
of way by priority rules or traffic lights.

Run it headless with "run" or open the viewer with "view".`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", ".", "Directory holding trafficsim.yaml")
	rootCmd.PersistentFlags().String("network", "", "Network file (built-in city when empty)")
	rootCmd.PersistentFlags().Uint64("seed", 1, "Random seed")
	rootCmd.PersistentFlags().Float64("delta", 0.05, "Simulated seconds per tick")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level")
	bindFlag(rootCmd, "sim.network", "network")
	bindFlag(rootCmd, "sim.seed", "seed")
	bindFlag(rootCmd, "sim.delta", "delta")
	bindFlag(rootCmd, "logLevel", "log-level")

	rootCmd.AddCommand(
		newVersionCmd(),
		newValidateCmd(),
		newRunCmd(),
		newViewCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

// setup loads the config file named by --config and builds the logger
func setup(cmd *cobra.Command) (zerolog.Logger, error) {
	dir, _ := cmd.Flags().GetString("config")
	if err := config.Load(dir); err != nil {
		return zerolog.Nop(), err
	}
	log := logging.New(os.Stderr, config.GetString("logLevel"), config.GetBool("logConsole"))
	return log, nil
}

// buildWorld loads the network and builds it into a fresh world
func buildWorld(sim config.SimConfig, log zerolog.Logger, opts ...traffic.Option) (*traffic.World, *road.Network, *road.Index, error) {
	network, err := road.Load(sim.Network)
	if err != nil {
		return nil, nil, nil, err
	}

	opts = append([]traffic.Option{
		traffic.WithSeed(sim.Seed),
		traffic.WithLogger(log),
	}, opts...)
	w := traffic.NewWorld(opts...)

	ix, err := network.Build(w, log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to build network %q: %w", network.Name, err)
	}
	return w, network, ix, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("trafficsim version %s\n", version)
		},
	}
}
