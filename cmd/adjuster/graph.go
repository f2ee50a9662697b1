package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/adjuster/internal/cli"
	"github.com/aretw0/adjuster/internal/presentation/graph"
	"github.com/aretw0/adjuster/pkg/domain"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the claim workflow visualization",
	Long: `Outputs a Mermaid diagram of the claim steps. When a snapshot mirror is
configured (Redis or a file), the live session's progress is overlaid on the
diagram.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}

		var session *domain.Session
		mirror, cleanup, err := cli.OpenMirror(cfg)
		if err != nil {
			fmt.Printf("Error opening snapshot mirror: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()
		if mirror != nil {
			session, err = mirror.Load(context.Background())
			if err != nil && !errors.Is(err, domain.ErrNoSnapshot) {
				fmt.Printf("Error loading mirrored session: %v\n", err)
				os.Exit(1)
			}
		}

		// Generate and print the Mermaid diagram
		output := graph.GenerateMermaid(session)
		fmt.Print(output)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
