package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   `ktopics`,
	Short: `Owner scoped Kafka topic management`,
	Long: `ktopics creates Kafka topics under a per owner namespace, keeps their ownership records
and serves owner scoped listing, publishing and on demand message drains over HTTP.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
