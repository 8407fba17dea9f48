// Package cmd wires the CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"newsflow/internal/config"
	"newsflow/internal/logger"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "newsflow",
	Short: "newsflow aggregates headlines from many sources into one deduplicated stream",
	Long: `newsflow crawls RSS/Atom feeds, public JSON APIs and scraped index pages
in parallel, normalizes everything into one article schema, removes
duplicates within and across sources, and prints the merged stream.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		logger.SetLevel(cfg.Logging.Level)
		return nil
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.newsflow.yaml)")
}
