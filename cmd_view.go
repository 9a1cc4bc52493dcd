package main

import (
	"github.com/spf13/cobra"

	"github.com/golangdaddy/trafficsim/config"
	"github.com/golangdaddy/trafficsim/ui"
)

func newViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Open the simulation viewer",
		Long: `View opens a window showing the city from above. Space pauses,
"." steps one tick while paused, up and down change the speed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := setup(cmd)
			if err != nil {
				return err
			}
			sim, err := config.GetSimConfig()
			if err != nil {
				return err
			}
			viewer, err := config.GetViewerConfig()
			if err != nil {
				return err
			}

			w, network, _, err := buildWorld(sim, log)
			if err != nil {
				return err
			}
			log.Info().Str("network", network.Name).Msg("opening viewer")
			return ui.Run(ui.NewCityView(w, viewer, sim.Delta, log))
		},
	}
}
