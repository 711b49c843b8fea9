// Package cmd wires the CLI entrypoints for the crawler service.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "league-crawler",
		Short: "Incremental ranked-ladder and match-history harvester.",
		Long: `league-crawler continuously walks the ranked ladders of every configured
sub-region and harvests the match history of every player it discovers,
persisting normalized records into PostgreSQL for analytics consumers.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (optional, env vars with prefix LEAGUE_ also apply)")
	cmd.AddCommand(newCrawlCmd())
	return cmd
}

// Execute runs the CLI.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
