// Hostbox — sandboxed host-tool server over MCP stdio.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hostbox [root]",
	Short: "Hostbox — sandboxed shell and file tools served over MCP stdio.",
	Long: `Hostbox exposes shell command execution and file manipulation as MCP
tools, confined to a single root directory. Commands run with a timeout
and process-group cleanup; file operations never leave the root.`,
	Args:          cobra.MaximumNArgs(1),
	RunE:          runServe,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.Flags().BoolVarP(&serveVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "", "path to a YAML config file")
	rootCmd.Flags().StringVar(&serveMetricsAddr, "metrics-addr", "", "listen address for /metrics and /healthz")
	_ = godotenv.Load()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}
