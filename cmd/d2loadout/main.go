// Package main is the d2loadout command: the loadout widget HTTP backend plus
// terminal commands that print a player's loadout or DIM link.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "d2loadout",
	Short: "Destiny 2 loadout widget backend",
	Long: `d2loadout fetches a player's equipped Destiny 2 loadout from the Bungie.net API,
reshapes it for the stream overlay and can derive a DIM loadout link.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML configuration file (optional; D2L_* env vars override)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(loadoutCmd)
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(statusCmd)
}
