// Apled-ctl drives apled-server devices from the command line.
//
// It finds devices over mDNS, prints their status, switches the LED and
// runs a live watch view.
//
// Usage:
//
//	apled-ctl [command] [flags]
//
// Without --device the first device found by mDNS is used.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/apled/internal/logging"
	"github.com/muurk/apled/internal/version"
)

func main() {
	if err := logging.InitializeFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logging.Sync()
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "apled-ctl",
	Short: "Control apled LED servers",
	Long: `A command-line client for apled-server.

Discovers devices on the local network, reads their status document and
switches the LED. Set APLED_LOG_LEVEL=debug to see request logs.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("apled-ctl %s (commit: %s)\n", version.Version, version.Commit)
	},
}
