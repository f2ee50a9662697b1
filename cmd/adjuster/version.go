package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/adjuster"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of adjuster",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("adjuster version %s\n", strings.TrimSpace(adjuster.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
