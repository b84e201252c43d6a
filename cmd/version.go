package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spigell/placement-readiness/internal/artifact"
)

// Actual version can be specified in build command.
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s version: %s (artifact format %s v%d)\n", app, version, artifact.Format, artifact.FormatVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
