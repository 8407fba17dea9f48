package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"newsflow/internal/config"
	"newsflow/internal/health"
	"newsflow/internal/render"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show per-source crawl health and latency percentiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		tracker := health.NewTracker(cfg.App.StateDir)
		if len(tracker.Sources()) == 0 {
			fmt.Println("no health data yet; run a crawl first")
			return nil
		}
		fmt.Print(render.Health(tracker))
		return nil
	},
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the enabled sources in crawl order",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		for i, name := range cfg.Sources.Enabled {
			fmt.Printf("%2d. %s\n", i+1, name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd, sourcesCmd)
}
