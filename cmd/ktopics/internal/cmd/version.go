package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// set at build time with -ldflags "-X github.com/gmbyapa/ktopics/cmd/ktopics/internal/cmd.version=..."
var version = `dev`

var versionCmd = &cobra.Command{
	Use:   `version`,
	Short: `Print the ktopics version`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ktopics %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
