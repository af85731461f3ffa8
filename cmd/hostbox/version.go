package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hostbox/internal/server"
)

var (
	commit = "unknown"
	date   = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("hostbox %s (commit: %s, built: %s)\n", server.Version, commit, date)
	},
}
