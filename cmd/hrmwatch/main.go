package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unicode"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// formatVersion adds 'v' prefix if version starts with a digit
func formatVersion(ver string) string {
	if len(ver) > 0 && unicode.IsDigit(rune(ver[0])) {
		return "v" + ver
	}
	return ver
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hrmwatch",
		Short: "Heart rate monitor over Bluetooth Low Energy",
		Long: `Connects to a Bluetooth heart rate strap (Garmin HRM-Dual or any device
exposing the standard Heart Rate Service), streams the measured rate, and
raises an alarm while it stays above the configured maximum.

Lost connections are re-established automatically.`,
		Version:       formatVersion(version),
		SilenceErrors: true,
	}
	root.SetVersionTemplate(fmt.Sprintf("hrmwatch {{.Version}} (commit %s, built %s)\n", commit, date))

	root.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().Bool("verbose", false, "Enable debug logging")
	root.PersistentFlags().String("config", "", "Settings file (default $XDG_CONFIG_HOME/hrmwatch/config.yaml)")
	root.Flags().BoolP("version", "v", false, "Show version information")

	root.AddCommand(newMonitorCmd())
	root.AddCommand(newScanCmd())
	root.AddCommand(newDecodeCmd())
	root.AddCommand(newConfigCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// Ctrl+C is a normal exit, not an error - exit silently
		if errors.Is(err, context.Canceled) {
			return
		}
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", FormatUserError(err))
		os.Exit(1)
	}
}
