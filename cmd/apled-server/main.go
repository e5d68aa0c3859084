// Apled-server serves a single indicator output over HTTP.
//
// It attaches to the device's wireless access point, drives the LED pin
// through a GPIO driver and exposes /, /ledon, /ledoff, /ledtoggle and
// /status. Optional extras are mDNS advertisement, a Prometheus listener
// and retained MQTT state messages.
//
// Usage:
//
//	apled-server serve [flags]
//	apled-server config init|show
//
// See 'apled-server --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/apled/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "apled-server",
	Short: "apled LED web server",
	Long: `Serves one LED over HTTP on the device's own WiFi access point.

Browse to the address printed at startup to switch the LED, or fetch
/status for a JSON document with uptime, heap and chip details.

Use 'apled-ctl' on another machine to drive a running server.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// configPath is shared by serve and the config subcommands.
var configPath string

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: OS config dir/apled/config.yaml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("apled-server %s (commit: %s)\n", version.Version, version.Commit)
	},
}
