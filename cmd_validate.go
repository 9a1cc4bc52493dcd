package main

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/golangdaddy/trafficsim/config"
	"github.com/golangdaddy/trafficsim/traffic"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that a network file parses and builds",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := setup(cmd)
			if err != nil {
				return err
			}
			sim, err := config.GetSimConfig()
			if err != nil {
				return err
			}

			w, network, ix, err := buildWorld(sim, log)
			if err != nil {
				return err
			}

			fmt.Printf("network %q is valid\n", network.Name)
			for _, c := range w.Crosses() {
				lanes := lo.Map(c.Approaches, func(a traffic.ApproachSnapshot, _ int) string {
					return ix.LaneName(a.Lane)
				})
				slices.Sort(lanes)
				fmt.Printf("  %-12s %-11s %v\n", c.Name, c.Kind, lanes)
			}
			fmt.Printf("  %d lanes, %d garages\n", len(w.Lanes()), len(w.Garages()))
			return nil
		},
	}
}
