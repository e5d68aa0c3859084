package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/apled/internal/client"
	"github.com/muurk/apled/internal/discovery"
	"github.com/muurk/apled/internal/logging"
	"github.com/muurk/apled/internal/ui"
)

// Shared flags
var (
	deviceAddr   string
	devicePort   int
	timeout      time.Duration
	scanTimeout  time.Duration
	outputFormat string
	interval     time.Duration
)

const (
	formatStyled = "styled"
	formatJSON   = "json"
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&deviceAddr, "device", "", "Device address or URL (skips discovery)")
	pf.IntVar(&devicePort, "port", 80, "Device HTTP port, used with a bare --device address")
	pf.DurationVar(&timeout, "timeout", client.DefaultTimeout, "Request timeout")
	pf.DurationVar(&scanTimeout, "scan-timeout", 3*time.Second, "mDNS discovery timeout")
	pf.StringVar(&outputFormat, "format", formatStyled, "Output format (styled, json)")

	watchCmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "Polling interval")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(onCmd)
	rootCmd.AddCommand(offCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(watchCmd)
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Find apled devices on the network",
	Long: `Find apled devices using mDNS/DNS-SD discovery.

Only services whose TXT record carries app=apled are listed.`,
	Example: `  # Quick scan
  apled-ctl scan

  # Longer scan on a busy network
  apled-ctl scan --scan-timeout 10s`,
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := discovery.ScanForDevices(scanTimeout)
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}
		if outputFormat == formatJSON {
			return writeJSON(cmd.OutOrStdout(), devices)
		}
		if len(devices) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No devices found. Join the device's WiFi access point and try a longer --scan-timeout.")
			return nil
		}
		ui.NewPrinter(nil).PrintPanel(ui.DevicesPanel(devices, ui.GetTerminalWidth()))
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the device status document",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := resolveClient(cmd.Context())
		if err != nil {
			return err
		}
		doc, err := c.Status(cmd.Context())
		if err != nil {
			return report("Status failed", err)
		}
		if outputFormat == formatJSON {
			return writeJSON(cmd.OutOrStdout(), doc)
		}
		ui.NewPrinter(nil).PrintPanel(ui.StatusPanel(c.BaseURL, doc, ui.GetTerminalWidth()))
		return nil
	},
}

var onCmd = &cobra.Command{
	Use:   "on",
	Short: "Switch the LED on",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(cmd, "Switch on", (*client.Client).Engage)
	},
}

var offCmd = &cobra.Command{
	Use:   "off",
	Short: "Switch the LED off",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(cmd, "Switch off", (*client.Client).Disengage)
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Flip the LED",
	Long: `Flip the LED and print the state it landed in.

Toggle is sent exactly once even on failure, since a retry could flip the
LED a second time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(cmd, "Toggle", (*client.Client).Toggle)
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live view of a device",
	Long: `Poll a device and show its status, with keys to drive the LED:

  e  on
  d  off
  t  toggle
  r  refresh now
  q  quit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !ui.IsInteractive() {
			return fmt.Errorf("watch needs an interactive terminal")
		}
		c, err := resolveClient(cmd.Context())
		if err != nil {
			return err
		}
		return ui.RunWatch(c, c.BaseURL, interval, timeout)
	},
}

type action func(*client.Client, context.Context) (bool, error)

func runAction(cmd *cobra.Command, title string, do action) error {
	c, err := resolveClient(cmd.Context())
	if err != nil {
		return err
	}
	on, err := do(c, cmd.Context())
	if err != nil {
		return report(title+" failed", err)
	}
	if outputFormat == formatJSON {
		return writeJSON(cmd.OutOrStdout(), map[string]bool{"led_state": on})
	}
	ui.NewPrinter(nil).PrintPanel(ui.StatePanel(title, c.BaseURL, on, ui.GetTerminalWidth()))
	return nil
}

// resolveClient builds a client for --device, or for the first device
// found over mDNS.
func resolveClient(ctx context.Context) (*client.Client, error) {
	var c *client.Client
	if deviceAddr != "" {
		c = newClient(deviceAddr, devicePort)
	} else {
		logging.Debug("No --device given, discovering", zap.Duration("timeout", scanTimeout))
		dev, err := discovery.FindFirst(ctx, scanTimeout)
		if err != nil {
			return nil, fmt.Errorf("no device found (use --device to skip discovery): %w", err)
		}
		c = client.New(dev.BaseURL())
	}
	c.SetTimeout(timeout)
	return c, nil
}

// newClient accepts a URL, host:port or a bare host paired with port.
func newClient(addr string, port int) *client.Client {
	if hasScheme(addr) || hasPort(addr) {
		return client.New(addr)
	}
	return client.NewForHost(addr, port)
}

// report prints the styled failure and returns a short error for cobra.
func report(title string, err error) error {
	if outputFormat != formatJSON {
		ui.NewPrinter(nil).PrintError(title, err, client.GetTroubleshootingHint(err))
	}
	return fmt.Errorf("%s: %s", title, client.GetShortErrorMessage(err))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
