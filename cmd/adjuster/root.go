package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/adjuster/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "adjuster",
	Short: "Adjuster is an agent-driven insurance claim processor",
	Long: `Adjuster runs visual claim evidence through a simulated agent negotiation:
vision analysis produces a damage report, a policy agent evaluates it against
the approval threshold, and approved claims trigger payment initiation.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to a config file (default: ./adjuster.yaml if present)")
}

// loadConfig resolves configuration for a command: defaults, then the config
// file, then ADJUSTER_* environment variables.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}
