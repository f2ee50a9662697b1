package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/adjuster/internal/cli"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <evidence-file>",
	Short: "Process a single claim from an evidence file",
	Long: `Submits a local photo or video as claim evidence and follows the claim
through upload, analysis, negotiation and settlement. Without a configured
vision endpoint the simulated analyzer answers from canned profiles.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}

		// Flags override whatever the config file and environment resolved.
		if cmd.Flags().Changed("threshold") {
			cfg.Workflow.ApprovalThreshold, _ = cmd.Flags().GetInt64("threshold")
		}
		if cmd.Flags().Changed("pace") {
			cfg.Workflow.PhaseDelay, _ = cmd.Flags().GetDuration("pace")
		}
		if cmd.Flags().Changed("endpoint") {
			cfg.Vision.Endpoint, _ = cmd.Flags().GetString("endpoint")
		}
		if cmd.Flags().Changed("token") {
			cfg.Vision.Token, _ = cmd.Flags().GetString("token")
		}
		if simulate, _ := cmd.Flags().GetBool("simulate"); simulate {
			cfg.Vision.Endpoint = ""
		}
		if cmd.Flags().Changed("profile") {
			cfg.Vision.Profile, _ = cmd.Flags().GetString("profile")
		}
		if cmd.Flags().Changed("profiles-file") {
			cfg.Vision.ProfilesFile, _ = cmd.Flags().GetString("profiles-file")
		}

		jsonMode, _ := cmd.Flags().GetBool("json")
		debug, _ := cmd.Flags().GetBool("debug")

		opts := cli.RunOptions{
			EvidencePath: args[0],
			JSON:         jsonMode,
			Debug:        debug,
		}
		if err := cli.RunClaim(cfg, opts); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("json", false, "Emit the claim lifecycle as NDJSON instead of rendering it")
	runCmd.Flags().Bool("debug", false, "Enable debug logging to stderr")
	runCmd.Flags().Int64("threshold", 0, "Approval threshold in USD (overrides config)")
	runCmd.Flags().Duration("pace", 0, "Delay between negotiation phases (overrides config)")
	runCmd.Flags().Bool("simulate", false, "Force the simulated analyzer even when an endpoint is configured")
	runCmd.Flags().String("profile", "", "Pin the simulated analyzer to a named profile")
	runCmd.Flags().String("profiles-file", "", "YAML file with custom simulated analyzer profiles")
	runCmd.Flags().String("endpoint", "", "Vision gateway endpoint (overrides config)")
	runCmd.Flags().String("token", "", "Vision gateway bearer token (overrides config)")
}
