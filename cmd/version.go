package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is stamped at build time through -ldflags "-X ...cmd.version=<tag>".
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the talentscout build version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("%s version: %s\n", app, version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
